package attachments

import (
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// PreviewStore hands out local preview references for pending blobs.
// Every reference returned by Create must eventually be passed to Revoke.
type PreviewStore interface {
	Create(b Blob) (string, error)
	Revoke(url string)
}

// MemoryPreviews serves previews from an in-process table. URLs are
// prefix + handle, where handle is a random UUID.
type MemoryPreviews struct {
	prefix string

	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewMemoryPreviews(prefix string) *MemoryPreviews {
	return &MemoryPreviews{
		prefix: strings.TrimRight(prefix, "/") + "/",
		blobs:  make(map[string]Blob),
	}
}

func (p *MemoryPreviews) Create(b Blob) (string, error) {
	handle := uuid.NewString()

	p.mu.Lock()
	p.blobs[handle] = b
	p.mu.Unlock()

	return p.prefix + handle, nil
}

// Revoke forgets the preview and releases the blob's local resource, if any.
func (p *MemoryPreviews) Revoke(url string) {
	handle := strings.TrimPrefix(url, p.prefix)

	p.mu.Lock()
	b, ok := p.blobs[handle]
	delete(p.blobs, handle)
	p.mu.Unlock()

	if !ok {
		return
	}
	if r, ok := b.(Releaser); ok {
		if err := r.Release(); err != nil {
			log.Printf("[warn] operation=preview_revoke handle=%s error=%v", handle, err)
		}
	}
}

// Lookup resolves a handle (not a full URL) to its blob.
func (p *MemoryPreviews) Lookup(handle string) (Blob, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.blobs[handle]
	return b, ok
}

// Len is the number of live previews.
func (p *MemoryPreviews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.blobs)
}
