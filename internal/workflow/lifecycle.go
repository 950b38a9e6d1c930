package workflow

import (
	"context"
	"sync"
)

// Lifecycle tracks whether the owning session is still alive, and gates
// every asynchronous state mutation in the workflow. In the SPA this was a
// component mount flag; here it is an explicit object with Start/Stop so the
// contract can be tested in isolation.
//
// Stop is irreversible: once a session is torn down, late continuations must
// never touch its state again. Suppressed mutations are silent no-ops - the
// state they were meant to affect no longer exists.
type Lifecycle struct {
	mu     sync.Mutex
	live   bool
	ctx    context.Context
	cancel context.CancelFunc
}

func NewLifecycle() *Lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifecycle{ctx: ctx, cancel: cancel}
}

// Start arms the guard. Starting an already-stopped lifecycle has no effect.
func (l *Lifecycle) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx.Err() != nil {
		return
	}
	l.live = true
}

// Stop flips the flag false exactly once and cancels the session context,
// aborting any in-flight calls derived from it. Idempotent.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live = false
	l.cancel()
}

func (l *Lifecycle) IsLive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// Context is the session-scoped context. It is cancelled by Stop, so every
// network call derived from it dies with the session.
func (l *Lifecycle) Context() context.Context {
	return l.ctx
}

// Do applies a state mutation only while the session is live. Returns
// whether the mutation ran.
func (l *Lifecycle) Do(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.live {
		return false
	}
	fn()
	return true
}
