package entry

import (
	"fmt"
	"strings"
)

// Entry is one captured photo with its caption and two-level category
type Entry struct {
	Image     string `json:"image" label:"photo" validate:"required"`
	Caption   string `json:"caption" label:"caption" validate:"required"`
	Category1 string `json:"category1" label:"category1" validate:"required"`
	Category2 string `json:"category2" label:"category2" validate:"required"`
}

// New builds an entry from raw form values, trimming the caption
func New(image, caption, category1, category2 string) Entry {
	return Entry{
		Image:     image,
		Caption:   caption,
		Category1: category1,
		Category2: category2,
	}.normalized()
}

func (e Entry) normalized() Entry {
	e.Caption = strings.TrimSpace(e.Caption)
	e.Category1 = strings.TrimSpace(e.Category1)
	e.Category2 = strings.TrimSpace(e.Category2)
	return e
}

// ValidationError reports which entry fields are missing or invalid
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing required field(s)"
	}
	return fmt.Sprintf("%s: %s", reason, strings.Join(e.Fields, ", "))
}

// Has reports whether field is among the offending fields
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}
