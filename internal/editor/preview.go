package editor

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

// DataURLPreviewer inlines the attachment as a base64 data URL
type DataURLPreviewer struct{}

// Preview returns data:<mime>;base64,<payload>. Only images are previewed.
func (DataURLPreviewer) Preview(ctx context.Context, att *domain.Attachment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(att.Data) == 0 {
		return "", domain.ErrInvalidAttachment
	}

	mtype := mimetype.Detect(att.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", domain.ErrInvalidAttachment
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mtype.String()) + base64.StdEncoding.EncodedLen(len(att.Data)))
	b.WriteString("data:")
	b.WriteString(mtype.String())
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(att.Data))
	return b.String(), nil
}
