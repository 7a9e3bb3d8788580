package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqmanager/portfolio-web/internal/projects/domain"
)

func validDraft() domain.Draft {
	return domain.Draft{
		Title:       "Casa Moderna",
		Category:    "Anteprojeto",
		Description: "Projeto residencial completo",
	}
}

func TestValidate_ValidDraft(t *testing.T) {
	s := NewSchema(10, "Estudo Preliminar")
	errs := s.Validate(validDraft())
	assert.True(t, errs.Valid())
}

func TestValidate_EmptyTitle(t *testing.T) {
	s := NewSchema(10, "Estudo Preliminar")

	for _, title := range []string{"", "   ", "\t\n"} {
		d := validDraft()
		d.Title = title

		errs := s.Validate(d)
		require.Contains(t, errs, FieldTitle)

		var req *RequiredFieldError
		assert.True(t, errors.As(errs[FieldTitle], &req), "title %q", title)
	}
}

func TestValidate_ShortDescription(t *testing.T) {
	s := NewSchema(10, "Estudo Preliminar")

	d := validDraft()
	d.Description = "curta"

	errs := s.Validate(d)
	var short *TooShortError
	require.True(t, errors.As(errs[FieldDescription], &short))
	assert.Equal(t, 10, short.Min)
	assert.Equal(t, 5, short.Actual)
	assert.Equal(t, "Description must be at least 10 characters", short.Message())
}

func TestValidate_DescriptionCountsCharactersNotBytes(t *testing.T) {
	s := NewSchema(10, "Estudo Preliminar")

	d := validDraft()
	d.Description = strings.Repeat("ç", 9)
	assert.Contains(t, s.Validate(d), FieldDescription)

	d.Description = strings.Repeat("ç", 10)
	assert.NotContains(t, s.Validate(d), FieldDescription)
}

func TestValidate_MultipleFailures(t *testing.T) {
	s := NewSchema(10, "Estudo Preliminar")
	s.CategoryRequired = true

	errs := s.Validate(domain.Draft{})
	assert.Len(t, errs, 3)

	msgs := errs.Messages()
	assert.Equal(t, "Project name is required", msgs[FieldTitle])
	assert.Equal(t, "Category is required", msgs[FieldCategory])
}

func TestValidate_OptionalFieldsNeverFail(t *testing.T) {
	s := NewSchema(10, "Estudo Preliminar")

	d := validDraft()
	d.Client = ""
	d.Responsible = strings.Repeat("x", 5000)
	d.Deadline = "not-a-date"

	assert.True(t, s.Validate(d).Valid())
}

func TestNormalize_DefaultsCategory(t *testing.T) {
	s := NewSchema(10, "Estudo Preliminar")

	d := validDraft()
	d.Category = ""
	assert.Equal(t, "Estudo Preliminar", s.Normalize(d).Category)
	assert.True(t, s.Validate(d).Valid(), "category is optional when not required")

	s.CategoryRequired = true
	assert.Empty(t, s.Normalize(d).Category)
}
