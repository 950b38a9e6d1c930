// Package notify carries user-facing notifications from the workflow out to
// the SPA. The server has no toast system of its own; toasts are buffered per
// session and drained by the status endpoint.
package notify

import (
	"log/slog"
	"sync"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Toast struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
	// RetryLabel names the retry affordance for error toasts, if any.
	RetryLabel string `json:"retry_label,omitempty"`
}

// Notifier is fire-and-forget: Show never fails and never blocks the workflow.
type Notifier interface {
	Show(t Toast)
}

// Buffer collects toasts until the SPA polls for them.
type Buffer struct {
	mu     sync.Mutex
	toasts []Toast
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Show(t Toast) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toasts = append(b.toasts, t)
}

// Drain returns all pending toasts and clears the buffer.
func (b *Buffer) Drain() []Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.toasts
	b.toasts = nil
	return out
}

// SlogNotifier logs toasts instead of buffering them. Used where no session
// is attached, e.g. background maintenance.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n SlogNotifier) Show(t Toast) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notify.toast", "title", t.Title, "description", t.Description, "variant", string(t.Variant))
}

// Multi fans a toast out to several notifiers.
type Multi []Notifier

func (m Multi) Show(t Toast) {
	for _, n := range m {
		n.Show(t)
	}
}
