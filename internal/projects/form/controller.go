package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/logger"
	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
	"github.com/arqmanager/portfolio-web/internal/projects/validation"
)

const (
	msgCheckFields   = "Check the required fields."
	msgLoadFailed    = "Could not load the project."
	msgCreated       = "Project created successfully!"
	msgSaved         = "Project saved successfully!"
	msgCreateFailed  = "Could not create the project."
	msgSaveFailed    = "Could not save the project."
	defaultRedirect  = "/dashboard"
	defaultNavDelay  = 1500 * time.Millisecond
	maxFilesTemplate = "Maximum of %d files allowed: %d file(s) not added."
)

type Options struct {
	Schema         validation.Schema
	MaxAttachments int
	Previews       attachments.PreviewStore
	// FilesBaseURL prefixes persisted file paths, e.g. http://localhost:3333
	FilesBaseURL  string
	RedirectTo    string
	RedirectDelay time.Duration
	Notifier      Notifier
	Navigator     Navigator
}

// Controller drives one project form session: field binding, attachments,
// validation, the confirmation gate and the final submission. All methods are
// safe for concurrent use; state transitions are serialized and at most one
// backend call is in flight per controller.
type Controller struct {
	mu sync.Mutex

	mode      Mode
	projectID string
	api       backend.ProjectsAPI
	opts      Options

	state       State
	draft       domain.Draft
	confirmed   domain.Draft // snapshot shown in the confirmation gate
	files       *attachments.Manager
	fieldErrors validation.FieldErrors
	loadErr     error
	inFlight    bool
}

// NewCreate starts a new-project form directly in Editing.
func NewCreate(api backend.ProjectsAPI, opts Options) *Controller {
	c := newController(ModeCreate, "", api, opts)
	c.state = StateEditing
	c.draft.Category = opts.Schema.DefaultCategory
	return c
}

// NewEdit starts an edit form in Loading; call Load to hydrate it.
func NewEdit(api backend.ProjectsAPI, projectID string, opts Options) *Controller {
	c := newController(ModeEdit, projectID, api, opts)
	c.state = StateLoading
	return c
}

func newController(mode Mode, projectID string, api backend.ProjectsAPI, opts Options) *Controller {
	if opts.RedirectTo == "" {
		opts.RedirectTo = defaultRedirect
	}
	if opts.RedirectDelay == 0 {
		opts.RedirectDelay = defaultNavDelay
	}
	if opts.Notifier == nil {
		opts.Notifier = &Inbox{}
	}
	if opts.Navigator == nil {
		opts.Navigator = &Redirect{}
	}
	return &Controller{
		mode:        mode,
		projectID:   projectID,
		api:         api,
		opts:        opts,
		files:       attachments.NewManager(opts.MaxAttachments, opts.Previews),
		fieldErrors: validation.FieldErrors{},
	}
}

func (c *Controller) Mode() Mode        { return c.mode }
func (c *Controller) ProjectID() string { return c.projectID }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load fetches the project being edited and hydrates the draft and attachments.
// A failed load leaves the form in LoadFailed; Load may be called again to retry.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeEdit || (c.state != StateLoading && c.state != StateLoadFailed) {
		c.mu.Unlock()
		return ErrNotLoadable
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.state = StateLoading
	c.inFlight = true
	c.mu.Unlock()

	rec, err := c.api.FetchProject(ctx, c.projectID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if c.state == StateDiscarded {
		return ErrDiscarded
	}
	if err != nil {
		logger.New(ctx).LogError("form_load", err)
		c.state = StateLoadFailed
		c.loadErr = err
		c.opts.Notifier.Notify(Notification{Level: LevelError, Message: msgLoadFailed})
		return fmt.Errorf("load project %s: %w", c.projectID, err)
	}

	c.draft = rec.ToDraft()
	c.files.Hydrate(c.persistedFrom(rec))
	c.loadErr = nil
	c.state = StateEditing
	return nil
}

func (c *Controller) persistedFrom(rec *domain.Record) []attachments.Attachment {
	out := make([]attachments.Attachment, 0, len(rec.Files))
	for _, f := range rec.Files {
		out = append(out, attachments.Persisted(f.ID, domain.FileURL(c.opts.FilesBaseURL, f.Path), f.DisplayName()))
	}
	return out
}

// SetFields applies a partial update to the draft.
func (c *Controller) SetFields(p domain.DraftPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return stateError(c.state)
	}
	c.draft.Apply(p)
	return nil
}

// AddFiles adds pending attachments up to the remaining capacity. When the
// batch overflows, a warning is raised and a *attachments.CapacityExceededError
// is returned with the partial result.
func (c *Controller) AddFiles(blobs []attachments.Blob) (attachments.AddResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return attachments.AddResult{Skipped: len(blobs)}, stateError(c.state)
	}

	res, err := c.files.AddFiles(blobs)
	var capErr *attachments.CapacityExceededError
	if errors.As(err, &capErr) {
		c.opts.Notifier.Notify(Notification{
			Level:   LevelWarning,
			Message: fmt.Sprintf(maxFilesTemplate, capErr.Max, capErr.Skipped),
		})
	}
	return res, err
}

// RemoveAttachment removes the attachment at index in display order.
func (c *Controller) RemoveAttachment(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return stateError(c.state)
	}
	return c.files.RemoveAt(index)
}

// Submit validates the draft. Invalid drafts return *InvalidDraftError and
// never reach the backend. Valid edit drafts wait for Confirm; valid create
// drafts are sent right away.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateEditing {
		s := c.state
		c.mu.Unlock()
		return stateError(s)
	}

	draft := c.opts.Schema.Normalize(c.draft)
	errs := c.opts.Schema.Validate(draft)
	c.fieldErrors = errs
	if !errs.Valid() {
		c.mu.Unlock()
		c.opts.Notifier.Notify(Notification{Level: LevelError, Message: msgCheckFields})
		return &InvalidDraftError{Fields: errs}
	}

	c.draft = draft
	if c.mode == ModeEdit {
		c.confirmed = draft
		c.state = StateConfirmPending
		c.mu.Unlock()
		return nil
	}

	return c.submitLocked(ctx, draft)
}

// Confirm sends the edit that is waiting in the confirmation gate.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConfirmPending {
		s := c.state
		c.mu.Unlock()
		if s == StateSubmitting {
			return ErrSubmissionInFlight
		}
		return ErrNothingToConfirm
	}
	return c.submitLocked(ctx, c.confirmed)
}

// Cancel closes the confirmation gate and returns to Editing.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConfirmPending {
		return ErrNothingToConfirm
	}
	c.state = StateEditing
	return nil
}

// submitLocked is entered with c.mu held and releases it while the request
// is in flight. The request is detached from ctx cancellation: a caller that
// goes away does not abort the save, its outcome is only recorded.
func (c *Controller) submitLocked(ctx context.Context, draft domain.Draft) error {
	c.state = StateSubmitting
	c.inFlight = true
	payload := c.files.BuildSubmissionPayload()
	c.mu.Unlock()

	in := backend.ProjectInput{
		Draft:     draft,
		Files:     payload.NewFiles,
		RemoveIDs: payload.RemoveIDs,
	}

	reqCtx := context.WithoutCancel(ctx)
	var err error
	if c.mode == ModeCreate {
		if len(payload.NewFiles) > 0 {
			in.Cover = payload.NewFiles[0]
		}
		_, err = c.api.CreateProject(reqCtx, in)
	} else {
		_, err = c.api.UpdateProject(reqCtx, c.projectID, in)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if c.state == StateDiscarded {
		// The session went away while the request was running.
		c.files.Release()
		if err != nil {
			logger.New(ctx).LogErrorf("form_submit", "discarded form project=%s error=%v", c.projectID, err)
		}
		return ErrDiscarded
	}

	if err != nil {
		logger.New(ctx).LogErrorf("form_submit", "mode=%s project=%s error=%v", c.mode, c.projectID, err)
		c.state = StateEditing
		msg := msgSaveFailed
		if c.mode == ModeCreate {
			msg = msgCreateFailed
		}
		c.opts.Notifier.Notify(Notification{Level: LevelError, Message: msg})
		return fmt.Errorf("submit project: %w", err)
	}

	c.state = StateSucceeded
	c.files.Release()
	msg := msgSaved
	if c.mode == ModeCreate {
		msg = msgCreated
	}
	c.opts.Notifier.Notify(Notification{Level: LevelSuccess, Message: msg})
	c.opts.Navigator.Navigate(c.opts.RedirectTo, c.opts.RedirectDelay)
	return nil
}

// Discard ends the session and releases every preview. A submission still in
// flight keeps its blobs until it returns.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDiscarded {
		return
	}
	c.state = StateDiscarded
	if !c.inFlight {
		c.files.Release()
	}
}
