package attachments

import (
	"errors"
	"fmt"
)

// DefaultMax is the number of attachments a project may carry.
const DefaultMax = 6

var ErrIndexOutOfRange = errors.New("attachment index out of range")

// CapacityExceededError is returned alongside a partial AddResult when a batch
// did not fit. The accepted part of the batch has been added.
type CapacityExceededError struct {
	Max      int
	Accepted int
	Skipped  int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("attachment limit of %d reached: %d file(s) skipped", e.Max, e.Skipped)
}

// Attachment is one entry of the visible sequence. Persisted entries carry
// ID and URL; pending entries carry Blob and PreviewURL.
type Attachment struct {
	ID          string
	URL         string
	DisplayName string
	Blob        Blob
	PreviewURL  string
}

func (a Attachment) IsPending() bool { return a.Blob != nil }

// Persisted builds a server-owned attachment reference.
func Persisted(id, url, displayName string) Attachment {
	return Attachment{ID: id, URL: url, DisplayName: displayName}
}

type AddResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Payload is what a submission sends: new blobs to upload and persisted IDs to delete.
type Payload struct {
	NewFiles  []Blob
	RemoveIDs []string
}

// Manager tracks the ordered attachments of one form. It is not safe for
// concurrent use; the owning form serializes access.
//
// Invariant: visible persisted + pending <= max, except when a record was
// hydrated with more persisted files than max, in which case nothing can be
// added until enough are removed.
type Manager struct {
	max      int
	previews PreviewStore

	items     []Attachment
	removeIDs []string
	removed   map[string]bool
}

// NewManager creates a manager holding at most max files. A nil previews
// store falls back to an in-process table under "/previews".
func NewManager(max int, previews PreviewStore) *Manager {
	if max <= 0 {
		max = DefaultMax
	}
	if previews == nil {
		previews = NewMemoryPreviews("/previews")
	}
	return &Manager{
		max:      max,
		previews: previews,
		removed:  make(map[string]bool),
	}
}

// Hydrate appends the persisted attachments of a fetched record.
func (m *Manager) Hydrate(persisted []Attachment) {
	for _, a := range persisted {
		if a.IsPending() || m.removed[a.ID] {
			continue
		}
		m.items = append(m.items, a)
	}
}

func (m *Manager) Max() int { return m.max }
func (m *Manager) Len() int { return len(m.items) }

// Remaining is how many more files can be added.
func (m *Manager) Remaining() int {
	if r := m.max - len(m.items); r > 0 {
		return r
	}
	return 0
}

// Items returns a copy of the visible sequence in display order.
func (m *Manager) Items() []Attachment {
	out := make([]Attachment, len(m.items))
	copy(out, m.items)
	return out
}

// AddFiles accepts up to the remaining capacity and reports the rest as skipped.
// When anything is skipped the result is accompanied by a *CapacityExceededError.
func (m *Manager) AddFiles(blobs []Blob) (AddResult, error) {
	accept := len(blobs)
	if r := m.Remaining(); accept > r {
		accept = r
	}

	res := AddResult{}
	for _, b := range blobs[:accept] {
		url, err := m.previews.Create(b)
		if err != nil {
			res.Skipped = len(blobs) - res.Added
			return res, fmt.Errorf("create preview for %s: %w", b.Name(), err)
		}
		m.items = append(m.items, Attachment{
			DisplayName: b.Name(),
			Blob:        b,
			PreviewURL:  url,
		})
		res.Added++
	}

	res.Skipped = len(blobs) - res.Added
	if res.Skipped > 0 {
		return res, &CapacityExceededError{Max: m.max, Accepted: res.Added, Skipped: res.Skipped}
	}
	return res, nil
}

// RemoveAt drops the attachment at index. Pending entries are discarded and
// their preview revoked; persisted entries are hidden and their ID recorded
// for deletion on submit. There is no undo.
func (m *Manager) RemoveAt(index int) error {
	if index < 0 || index >= len(m.items) {
		return ErrIndexOutOfRange
	}

	a := m.items[index]
	m.items = append(m.items[:index:index], m.items[index+1:]...)

	if a.IsPending() {
		m.previews.Revoke(a.PreviewURL)
		return nil
	}

	if a.ID != "" && !m.removed[a.ID] {
		m.removed[a.ID] = true
		m.removeIDs = append(m.removeIDs, a.ID)
	}
	return nil
}

// BuildSubmissionPayload returns pending blobs in display order and the
// removal set in the order removals happened. It does not mutate state.
func (m *Manager) BuildSubmissionPayload() Payload {
	p := Payload{
		NewFiles:  make([]Blob, 0, len(m.items)),
		RemoveIDs: make([]string, len(m.removeIDs)),
	}
	for _, a := range m.items {
		if a.IsPending() {
			p.NewFiles = append(p.NewFiles, a.Blob)
		}
	}
	copy(p.RemoveIDs, m.removeIDs)
	return p
}

// Release revokes every outstanding preview. The pending entries stay in the
// sequence but must not be previewed afterwards; call it when the form is done.
func (m *Manager) Release() {
	for i, a := range m.items {
		if a.IsPending() && a.PreviewURL != "" {
			m.previews.Revoke(a.PreviewURL)
			m.items[i].PreviewURL = ""
		}
	}
}
