package domain

import (
	"path"
	"strings"
	"time"
)

// Draft is the user-edited representation of a project before submission.
// It is created empty for a new project or hydrated from a Record in the edit flow.
type Draft struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Client      string `json:"client,omitempty"`
	Responsible string `json:"responsible,omitempty"`
	Deadline    string `json:"deadline,omitempty"` // YYYY-MM-DD
}

// DraftPatch carries a partial field update; nil pointers leave the field untouched.
type DraftPatch struct {
	Title       *string `json:"title,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Client      *string `json:"client,omitempty"`
	Responsible *string `json:"responsible,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
}

// Apply copies every non-nil field of p into d.
func (d *Draft) Apply(p DraftPatch) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Client != nil {
		d.Client = *p.Client
	}
	if p.Responsible != nil {
		d.Responsible = *p.Responsible
	}
	if p.Deadline != nil {
		d.Deadline = *p.Deadline
	}
}

// Record is a project as stored by the catalog backend.
type Record struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Client      string       `json:"client,omitempty"`
	Responsible string       `json:"responsible,omitempty"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Files       []RemoteFile `json:"files"`
}

// RemoteFile is an attachment reference owned by a backend Record.
type RemoteFile struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// DisplayName is the last segment of the stored path.
func (f RemoteFile) DisplayName() string {
	return path.Base(f.Path)
}

// ToDraft hydrates a Draft for the edit flow. The deadline is truncated to a calendar date.
func (r *Record) ToDraft() Draft {
	d := Draft{
		Title:       r.Title,
		Category:    r.Category,
		Description: r.Description,
		Client:      r.Client,
		Responsible: r.Responsible,
	}
	if r.Deadline != nil {
		d.Deadline = r.Deadline.UTC().Format(time.DateOnly)
	}
	return d
}

// User is the authenticated account as reported by the backend.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

var documentExts = map[string]bool{
	".doc":  true,
	".docx": true,
	".odt":  true,
	".txt":  true,
}

// IsDocument reports whether a file name refers to a text document rather than
// something that can be shown as a thumbnail (images and PDFs).
func IsDocument(name string) bool {
	return documentExts[strings.ToLower(path.Ext(name))]
}

// FileURL resolves a stored file path against the files base URL of the
// backend. Slashes at the seam are collapsed.
func FileURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/files/" + strings.TrimLeft(p, "/")
}

// CoverFile returns the first non-document file of a record, which consumers
// display as the project cover. ok is false when there is none.
func (r *Record) CoverFile() (RemoteFile, bool) {
	for _, f := range r.Files {
		if !IsDocument(f.Path) {
			return f, true
		}
	}
	return RemoteFile{}, false
}
