package workflow

import (
	"log/slog"
	"sync"
)

// Phase is one stage of the generation workflow. The set is closed; every
// switch over Phase must handle all of them.
type Phase string

const (
	PhaseJobSave    Phase = "job-save"
	PhaseGeneration Phase = "generation"
	PhaseLetterSave Phase = "letter-save"
	PhaseUserFetch  Phase = "user-fetch"
	PhaseCVParsing  Phase = "cv-parsing"
)

// Snapshot is one consistent view of the workflow's progress.
type Snapshot struct {
	Phase   Phase  `json:"phase"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Progress holds the current phase, a 0-100 percentage, and a status
// message, replaced atomically so readers never observe a half-updated
// record. Out-of-range percentages are clamped at this boundary and logged;
// they indicate a caller bug, not a user-visible condition.
type Progress struct {
	mu         sync.Mutex
	current    Snapshot
	logger     *slog.Logger
	subscriber func(Snapshot)
}

func NewProgress(logger *slog.Logger) *Progress {
	if logger == nil {
		logger = slog.Default()
	}
	return &Progress{logger: logger}
}

// Subscribe registers a callback fired after every update. At most one
// subscriber; the workflow uses it to push status to waiting pollers.
func (p *Progress) Subscribe(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriber = fn
}

// Update replaces the progress record.
func (p *Progress) Update(phase Phase, percent int, message string) {
	if percent < 0 || percent > 100 {
		p.logger.Warn("progress.out_of_range", "phase", string(phase), "percent", percent)
		if percent < 0 {
			percent = 0
		} else {
			percent = 100
		}
	}

	p.mu.Lock()
	p.current = Snapshot{Phase: phase, Percent: percent, Message: message}
	sub := p.subscriber
	snap := p.current
	p.mu.Unlock()

	if sub != nil {
		sub(snap)
	}
}

// Current returns the latest snapshot.
func (p *Progress) Current() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Reset returns the tracker to its pristine baseline. Called at the start of
// every generation attempt and by ResetError.
func (p *Progress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = Snapshot{}
}
