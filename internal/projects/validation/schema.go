package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/arqmanager/portfolio-web/internal/projects/domain"
)

// Field names as exposed to the form views.
const (
	FieldTitle       = "title"
	FieldCategory    = "category"
	FieldDescription = "description"
)

// Schema holds the acceptance rules for a project draft. It has no side effects.
type Schema struct {
	MinDescriptionLen int
	// CategoryRequired makes an empty category a failure instead of falling back to DefaultCategory.
	CategoryRequired bool
	DefaultCategory  string
}

func NewSchema(minDescriptionLen int, defaultCategory string) Schema {
	return Schema{
		MinDescriptionLen: minDescriptionLen,
		DefaultCategory:   defaultCategory,
	}
}

// Validate checks every rule and reports all failing fields at once.
// Client, responsible and deadline are optional and never fail.
func (s Schema) Validate(d domain.Draft) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(d.Title) == "" {
		errs.add(&RequiredFieldError{Name: FieldTitle, Label: "Project name"})
	}

	if s.CategoryRequired && strings.TrimSpace(d.Category) == "" {
		errs.add(&RequiredFieldError{Name: FieldCategory, Label: "Category"})
	}

	if n := utf8.RuneCountInString(d.Description); n < s.MinDescriptionLen {
		errs.add(&TooShortError{
			Name:   FieldDescription,
			Label:  "Description",
			Min:    s.MinDescriptionLen,
			Actual: n,
		})
	}

	return errs
}

// Normalize returns the draft with the default category applied when the
// category is optional and left empty.
func (s Schema) Normalize(d domain.Draft) domain.Draft {
	if !s.CategoryRequired && strings.TrimSpace(d.Category) == "" {
		d.Category = s.DefaultCategory
	}
	return d
}
