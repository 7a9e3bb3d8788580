package form

import (
	"errors"

	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
)

type AttachmentView struct {
	Index      int    `json:"index"`
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	IsNew      bool   `json:"is_new"`
	IsDocument bool   `json:"is_document"`
}

// View is a read-only snapshot of the controller for rendering.
type View struct {
	Mode        Mode              `json:"mode"`
	ProjectID   string            `json:"project_id,omitempty"`
	State       State             `json:"state"`
	Draft       domain.Draft      `json:"draft"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Attachments []AttachmentView  `json:"attachments"`
	Max         int               `json:"max_attachments"`
	Remaining   int               `json:"remaining"`
	RemoveIDs   []string          `json:"remove_ids,omitempty"`
	// ConfirmTitle is the project name shown by the confirmation gate.
	ConfirmTitle string `json:"confirm_title,omitempty"`
	LoadError    string `json:"load_error,omitempty"`
	Busy         bool   `json:"busy"`
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Mode:        c.mode,
		ProjectID:   c.projectID,
		State:       c.state,
		Draft:       c.draft,
		FieldErrors: c.fieldErrors.Messages(),
		Max:         c.files.Max(),
		Remaining:   c.files.Remaining(),
		RemoveIDs:   c.files.BuildSubmissionPayload().RemoveIDs,
		Busy:        c.inFlight,
	}

	items := c.files.Items()
	v.Attachments = make([]AttachmentView, 0, len(items))
	for i, a := range items {
		av := AttachmentView{
			Index:      i,
			ID:         a.ID,
			Name:       a.DisplayName,
			URL:        a.URL,
			IsNew:      a.IsPending(),
			IsDocument: domain.IsDocument(a.DisplayName),
		}
		if a.IsPending() {
			av.URL = a.PreviewURL
		}
		v.Attachments = append(v.Attachments, av)
	}

	if c.state == StateConfirmPending {
		v.ConfirmTitle = c.confirmed.Title
	}

	if c.loadErr != nil {
		v.LoadError = "network"
		if errors.Is(c.loadErr, backend.ErrNotFound) {
			v.LoadError = "not_found"
		}
	}

	return v
}
