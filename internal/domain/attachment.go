package domain

import "time"

// FileRef points at an uploaded attachment without carrying its bytes
type FileRef struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// MediaURL is the path the attachment is served from
func (f FileRef) MediaURL() string {
	return "/media/" + f.ID
}

// Attachment is an uploaded file. Attachments referenced by a published
// record are permanent; the rest expire.
type Attachment struct {
	FileRef
	Data      []byte    `json:"data"`
	Permanent bool      `json:"permanent"`
	CreatedAt time.Time `json:"created_at"`
}
