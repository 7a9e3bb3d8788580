package form

import (
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient user-facing message (a toast in the browser).
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(n Notification)
}

// Navigator schedules a client-side navigation.
type Navigator interface {
	Navigate(to string, after time.Duration)
}

// Inbox collects notifications until the view drains them.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
}

func (i *Inbox) Notify(n Notification) {
	i.mu.Lock()
	i.items = append(i.items, n)
	i.mu.Unlock()
}

// Drain returns and clears the pending notifications.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.items
	i.items = nil
	return out
}

// Redirect remembers the last navigation request.
type Redirect struct {
	mu    sync.Mutex
	to    string
	after time.Duration
}

func (r *Redirect) Navigate(to string, after time.Duration) {
	r.mu.Lock()
	r.to, r.after = to, after
	r.mu.Unlock()
}

// Pending returns the scheduled destination, or "" when none.
func (r *Redirect) Pending() (string, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.to, r.after
}
