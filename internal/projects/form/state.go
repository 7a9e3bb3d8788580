package form

import (
	"errors"
	"fmt"

	"github.com/arqmanager/portfolio-web/internal/projects/validation"
)

type State string

const (
	StateLoading        State = "loading"
	StateLoadFailed     State = "load_failed"
	StateEditing        State = "editing"
	StateConfirmPending State = "confirm_pending"
	StateSubmitting     State = "submitting"
	StateSucceeded      State = "succeeded"
	StateDiscarded      State = "discarded"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

var (
	ErrNotEditable        = errors.New("form is not editable in its current state")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrNothingToConfirm   = errors.New("no submission is waiting for confirmation")
	ErrNotLoadable        = errors.New("form has nothing to load")
	ErrDiscarded          = errors.New("form has been discarded")
)

// InvalidDraftError is returned by Submit when the draft fails validation.
// Nothing has been sent to the backend.
type InvalidDraftError struct {
	Fields validation.FieldErrors
}

func (e *InvalidDraftError) Error() string {
	return fmt.Sprintf("draft has %d invalid field(s)", len(e.Fields))
}

// stateError explains why an operation is refused in the current state.
func stateError(s State) error {
	switch s {
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateDiscarded:
		return ErrDiscarded
	default:
		return fmt.Errorf("%w: %s", ErrNotEditable, s)
	}
}
