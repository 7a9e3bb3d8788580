package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/form"
	"github.com/arqmanager/portfolio-web/internal/projects/utils"
	"github.com/arqmanager/portfolio-web/internal/projects/validation"
)

var ErrFormNotFound = errors.New("form session not found")

type RegistryOptions struct {
	Schema         validation.Schema
	MaxAttachments int
	FilesBaseURL   string
	RedirectTo     string
	RedirectDelay  time.Duration
	// PreviewBase is the URL path under which form previews are served; the
	// form ID and "/previews" are appended.
	PreviewBase string
	IdleTTL     time.Duration
}

// FormSession is one open form together with the sinks it reports to.
type FormSession struct {
	ID         string
	Owner      string
	Controller *form.Controller
	Previews   *attachments.MemoryPreviews
	Inbox      *form.Inbox
	Redirect   *form.Redirect

	mu         sync.Mutex
	lastActive time.Time
}

func (s *FormSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *FormSession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Registry holds the open form sessions of every user, keyed by form ID.
type Registry struct {
	opts RegistryOptions
	now  func() time.Time

	mu    sync.Mutex
	forms map[string]*FormSession
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.PreviewBase == "" {
		opts.PreviewBase = "/api/v1/forms"
	}
	return &Registry{
		opts:  opts,
		now:   time.Now,
		forms: make(map[string]*FormSession),
	}
}

// OpenCreate starts a new-project form for owner.
func (r *Registry) OpenCreate(owner string, api backend.ProjectsAPI) (*FormSession, error) {
	return r.open(owner, func(opts form.Options) *form.Controller {
		return form.NewCreate(api, opts)
	})
}

// OpenEdit starts an edit form for projectID. The caller loads it.
func (r *Registry) OpenEdit(owner, projectID string, api backend.ProjectsAPI) (*FormSession, error) {
	return r.open(owner, func(opts form.Options) *form.Controller {
		return form.NewEdit(api, projectID, opts)
	})
}

func (r *Registry) open(owner string, build func(form.Options) *form.Controller) (*FormSession, error) {
	id, err := utils.NewID("frm")
	if err != nil {
		return nil, fmt.Errorf("new form id: %w", err)
	}

	sess := &FormSession{
		ID:         id,
		Owner:      owner,
		Previews:   attachments.NewMemoryPreviews(r.opts.PreviewBase + "/" + id + "/previews"),
		Inbox:      &form.Inbox{},
		Redirect:   &form.Redirect{},
		lastActive: r.now(),
	}
	sess.Controller = build(form.Options{
		Schema:         r.opts.Schema,
		MaxAttachments: r.opts.MaxAttachments,
		Previews:       sess.Previews,
		FilesBaseURL:   r.opts.FilesBaseURL,
		RedirectTo:     r.opts.RedirectTo,
		RedirectDelay:  r.opts.RedirectDelay,
		Notifier:       sess.Inbox,
		Navigator:      sess.Redirect,
	})

	r.mu.Lock()
	r.forms[id] = sess
	r.mu.Unlock()
	return sess, nil
}

// Get returns the form if it exists and belongs to owner.
func (r *Registry) Get(owner, id string) (*FormSession, error) {
	r.mu.Lock()
	sess, ok := r.forms[id]
	r.mu.Unlock()
	if !ok || sess.Owner != owner {
		return nil, ErrFormNotFound
	}
	sess.touch(r.now())
	return sess, nil
}

// Close discards the form and forgets it.
func (r *Registry) Close(owner, id string) error {
	r.mu.Lock()
	sess, ok := r.forms[id]
	if !ok || sess.Owner != owner {
		r.mu.Unlock()
		return ErrFormNotFound
	}
	delete(r.forms, id)
	r.mu.Unlock()

	sess.Controller.Discard()
	return nil
}

// Sweep discards forms idle for longer than the configured TTL and returns
// how many were removed. A form with a submission in flight is left alone.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.opts.IdleTTL)

	var expired []*FormSession
	r.mu.Lock()
	for id, sess := range r.forms {
		if sess.Controller.State() == form.StateSubmitting {
			continue
		}
		if sess.LastActive().Before(cutoff) {
			expired = append(expired, sess)
			delete(r.forms, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Discard()
	}
	return len(expired)
}

// Len is the number of open forms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// CloseAll discards every open form. Used on shutdown.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	all := make([]*FormSession, 0, len(r.forms))
	for id, sess := range r.forms {
		all = append(all, sess)
		delete(r.forms, id)
	}
	r.mu.Unlock()

	for _, sess := range all {
		sess.Controller.Discard()
	}
	return len(all)
}
