package validation

import "fmt"

const (
	CodeRequired = "REQUIRED"
	CodeTooShort = "TOO_SHORT"
)

// FieldError is implemented by every rule failure so the HTTP layer can render
// field/code/message without string matching.
type FieldError interface {
	error
	Field() string
	Code() string
	Message() string
}

// RequiredFieldError reports an empty mandatory field.
type RequiredFieldError struct {
	Name  string
	Label string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, CodeRequired)
}

func (e *RequiredFieldError) Field() string { return e.Name }
func (e *RequiredFieldError) Code() string  { return CodeRequired }

func (e *RequiredFieldError) Message() string {
	return fmt.Sprintf("%s is required", e.Label)
}

// TooShortError reports a value under the minimum number of characters.
type TooShortError struct {
	Name   string
	Label  string
	Min    int
	Actual int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("%s: %s (min %d, got %d)", e.Name, CodeTooShort, e.Min, e.Actual)
}

func (e *TooShortError) Field() string { return e.Name }
func (e *TooShortError) Code() string  { return CodeTooShort }

func (e *TooShortError) Message() string {
	return fmt.Sprintf("%s must be at least %d characters", e.Label, e.Min)
}

// FieldErrors maps a field name to its failure. An empty map means the draft is valid.
type FieldErrors map[string]FieldError

func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// Messages flattens the errors into field -> human-readable message.
func (fe FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(fe))
	for field, err := range fe {
		out[field] = err.Message()
	}
	return out
}

func (fe FieldErrors) add(err FieldError) {
	fe[err.Field()] = err
}
