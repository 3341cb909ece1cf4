package validator

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

// DefaultCategories are offered by the authoring form when none are configured
var DefaultCategories = []string{"Technology", "Science", "Programming", "Web Development"}

// draftRules is the validation view of a draft. Only the fields of the active
// mode are copied in, so the inactive mode never produces errors.
type draftRules struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Body        string    `json:"content" validate:"required"`
	Category    string    `json:"category" validate:"required,category"`
	Type        string    `json:"type" validate:"required,oneof=Article Video"`
	PublishDate time.Time `json:"publish_date" validate:"publishable"`
	Tags        []string  `json:"tags" validate:"min=1,dive,required"`
	VideoURL    string    `json:"video_url" validate:"omitempty,url"`
}

// Validator validates content drafts
type Validator struct {
	validate     *validator.Validate
	categories   map[string]bool
	categoryList []string
	now          func() time.Time
}

// New creates a draft validator. categories restricts the category field;
// now supplies the current time for publish date checks.
func New(categories []string, now func() time.Time) *Validator {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	if now == nil {
		now = time.Now
	}

	v := &Validator{
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		categories: make(map[string]bool, len(categories)),
		now:        now,
	}
	for _, c := range categories {
		if !v.categories[c] {
			v.categories[c] = true
			v.categoryList = append(v.categoryList, c)
		}
	}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return v.categories[fl.Field().String()]
	})
	v.validate.RegisterValidation("publishable", func(fl validator.FieldLevel) bool {
		date, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return v.publishable(date)
	})

	return v
}

// Categories returns the accepted categories in configuration order
func (v *Validator) Categories() []string {
	return append([]string(nil), v.categoryList...)
}

// publishable reports whether date is on or after today and not before the
// epoch floor. Dates are compared as calendar days in the clock's location.
func (v *Validator) publishable(date time.Time) bool {
	if date.IsZero() || date.Before(domain.EpochFloor) {
		return false
	}
	now := v.now()
	day := domain.StartOfDay(date.In(now.Location()))
	return !day.Before(domain.StartOfDay(now))
}

// ValidateDraft checks the draft against the authoring rules and returns the
// failures keyed by field. An empty result means the draft is valid.
func (v *Validator) ValidateDraft(d *domain.ContentDraft) domain.FieldErrors {
	rules := draftRules{
		Title:       d.Title,
		Body:        d.Body,
		Category:    d.Category,
		Type:        string(d.Type),
		PublishDate: d.PublishDate,
		Tags:        d.Tags,
	}
	if d.Type == domain.TypeVideo {
		rules.VideoURL = d.VideoURL
	}

	fieldErrs := domain.FieldErrors{}

	err := v.validate.Struct(rules)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := fe.Field()
			if strings.HasPrefix(field, "tags[") {
				field = "tags"
			}
			fieldErrs.Add(field, v.message(fe))
		}
	} else if err != nil {
		fieldErrs.Add("draft", err.Error())
	}

	return fieldErrs
}

// message turns a rule failure into the text shown next to the field
func (v *Validator) message(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()

	switch {
	case field == "title" && tag == "required":
		return "Title is required"
	case field == "title" && tag == "max":
		return "Title must be 100 characters or less"
	case field == "content":
		return "Content is required"
	case field == "category" && tag == "required":
		return "Category is required"
	case field == "category":
		return "Category must be one of: " + strings.Join(v.Categories(), ", ")
	case field == "type":
		return "Type must be Article or Video"
	case field == "publish_date":
		return v.dateMessage(fe.Value())
	case strings.HasPrefix(field, "tags"):
		if tag == "min" {
			return "At least one tag is required"
		}
		return "Tags must not be empty"
	case field == "video_url":
		return "Invalid URL"
	default:
		return field + " failed validation for " + tag
	}
}

func (v *Validator) dateMessage(value interface{}) string {
	date, _ := value.(time.Time)
	if date.IsZero() {
		return "Publish date is required"
	}
	if date.Before(domain.EpochFloor) {
		return "Publish date must not be before 1900-01-01"
	}
	return "Publish date must not be in the past"
}
