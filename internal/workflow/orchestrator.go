// Package workflow implements the cover-letter generation state machine:
// save the job posting, invoke the AI generation, persist the letter, and
// reflect phase/progress to the polling SPA - while tolerating session
// teardown, network failure, and user-triggered cancellation.
package workflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/cvjob-dk/cvjob-backend/internal/common"
	"github.com/cvjob-dk/cvjob-backend/internal/dtos"
	"github.com/cvjob-dk/cvjob-backend/internal/models"
	"github.com/cvjob-dk/cvjob-backend/internal/notify"
)

// LoadingState is the orchestrator-wide lifecycle state. Exactly one value
// at a time; idle before submission and after completion or failure.
type LoadingState string

const (
	StateIdle         LoadingState = "idle"
	StateInitializing LoadingState = "initializing"
	StateGenerating   LoadingState = "generating"
	StateSaving       LoadingState = "saving"
)

// MinDescriptionLength is the minimum job description length accepted for
// generation. Shorter postings give the model too little to work with.
const MinDescriptionLength = 100

// JobStore persists job postings. CreateOrUpdate reuses an existing row when
// the form carries an id, so a failed generation followed by a resubmit never
// duplicates the job.
type JobStore interface {
	CreateOrUpdate(ctx context.Context, userID uint, form dtos.JobForm) (*models.JobPosting, error)
	SaveDraft(ctx context.Context, userID uint, form dtos.JobForm) (*models.JobPosting, error)
	GetByID(ctx context.Context, userID, jobID uint) (*models.JobPosting, error)
}

// LetterStore persists cover letters. Insert is only ever called after the
// owning job posting has been durably saved.
type LetterStore interface {
	Insert(ctx context.Context, userID, jobID uint, content, locale string) (*models.CoverLetter, error)
	Update(ctx context.Context, userID, letterID uint, content string) (*models.CoverLetter, error)
	GetByID(ctx context.Context, userID, letterID uint) (*models.CoverLetter, error)
}

// GenerationRequest is the payload handed to the AI collaborator.
type GenerationRequest struct {
	Job    models.JobPosting
	User   models.User
	Locale string
}

// Generator is the external AI completion collaborator.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Options tunes one orchestrator instance.
type Options struct {
	// Timeout bounds the AI call. Default 45s.
	Timeout time.Duration
	// RetryGeneration wraps the AI call in Retry. Off by default so an
	// expensive generation is not silently charged multiple times; the
	// user retries manually from the error toast.
	RetryGeneration bool
	MaxRetries      int
	InitialDelay    time.Duration
	DefaultLocale   string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 45 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = time.Second
	}
	if o.DefaultLocale == "" {
		o.DefaultLocale = "da"
	}
	return o
}

// ErrorView is the serializable face of the last classified error.
type ErrorView struct {
	Kind      common.Kind `json:"kind"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
	Attempts  int         `json:"attempts,omitempty"`
	Help      string      `json:"help,omitempty"`
	RetryText string      `json:"retry_label,omitempty"`
}

// Status is the snapshot the SPA polls.
type Status struct {
	State           LoadingState        `json:"loading_state"`
	Step            int                 `json:"step"`
	Progress        Snapshot            `json:"progress"`
	Error           *ErrorView          `json:"error,omitempty"`
	SelectedJob     *models.JobPosting  `json:"selected_job,omitempty"`
	GeneratedLetter *models.CoverLetter `json:"generated_letter,omitempty"`
	Toasts          []notify.Toast      `json:"toasts,omitempty"`
}

// Orchestrator drives one user session's generation workflow. At most one
// generation sequence is in flight per instance; a submit while busy is
// rejected, never queued.
type Orchestrator struct {
	user      models.User
	jobs      JobStore
	letters   LetterStore
	generator Generator
	toasts    *notify.Buffer
	notifier  notify.Notifier
	logger    *slog.Logger
	opts      Options

	life     *Lifecycle
	progress *Progress

	mu              sync.Mutex
	state           LoadingState
	step            int
	lastErr         *ErrorView
	selectedJob     *models.JobPosting
	generatedLetter *models.CoverLetter
	// cancelGen aborts the in-flight AI call. Orchestrator-owned, never
	// global, so sessions cannot interfere with each other.
	cancelGen context.CancelFunc
}

func NewOrchestrator(
	user models.User,
	jobs JobStore,
	letters LetterStore,
	generator Generator,
	toasts *notify.Buffer,
	logger *slog.Logger,
	opts Options,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if toasts == nil {
		toasts = notify.NewBuffer()
	}
	return &Orchestrator{
		user:      user,
		jobs:      jobs,
		letters:   letters,
		generator: generator,
		toasts:    toasts,
		notifier:  toasts,
		logger:    logger,
		opts:      opts.withDefaults(),
		life:      NewLifecycle(),
		progress:  NewProgress(logger),
		state:     StateIdle,
		step:      1,
	}
}

// Start arms the session.
func (o *Orchestrator) Start() {
	o.life.Start()
}

// Stop tears the session down: the liveness flag flips false and the session
// context is cancelled, aborting any outstanding AI call. Continuations that
// resolve afterwards are no-ops.
func (o *Orchestrator) Stop() {
	o.life.Stop()
}

func (o *Orchestrator) User() models.User {
	return o.user
}

// ValidateJobForm enforces the submission preconditions: title and company
// non-empty, description at least MinDescriptionLength characters.
func ValidateJobForm(form dtos.JobForm) error {
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Company) == "" {
		return common.NewAppError(common.KindValidation, "titel og virksomhed skal udfyldes", common.ErrInvalidInput)
	}
	if utf8.RuneCountInString(strings.TrimSpace(form.Description)) < MinDescriptionLength {
		return common.NewAppError(common.KindValidation, "jobbeskrivelsen skal være på mindst 100 tegn", common.ErrInvalidInput)
	}
	return nil
}

// normalizeLocale parses the requested locale, falling back to the
// configured default on junk input.
func normalizeLocale(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return fallback
	}
	base, _ := tag.Base()
	return base.String()
}

// SubmitJob runs the full generation sequence:
//
//	idle -> initializing (save job) -> generating (AI call) -> saving
//	(persist letter) -> idle
//
// Any failure classifies the error, surfaces a phase-appropriate toast, and
// returns to idle. Previously persisted partial state - a saved job with no
// letter - is never rolled back; the next submit reuses the same job row.
func (o *Orchestrator) SubmitJob(form dtos.JobForm, locale string) error {
	if o.user.ID == 0 {
		err := common.NewAppError(common.KindAuth, "du skal være logget ind for at generere en ansøgning", common.ErrUnauthorized)
		o.report(PhaseUserFetch, err)
		return err
	}
	if err := ValidateJobForm(form); err != nil {
		o.logger.Info("generation.rejected_invalid", "user_id", o.user.ID, "error", err)
		o.report(PhaseJobSave, common.Classify(err))
		return err
	}

	// Voluntary application-level lock: one generation per orchestrator.
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		o.notifier.Show(notify.Toast{
			Title:       "Vent venligst",
			Description: "En generering er allerede i gang. Vent til den er færdig.",
			Variant:     notify.VariantDefault,
		})
		return common.ErrBusy
	}
	o.state = StateInitializing
	o.lastErr = nil
	o.mu.Unlock()
	o.resetProgress()

	ctx := o.life.Context()
	locale = normalizeLocale(locale, o.opts.DefaultLocale)

	o.logger.Info("generation.start", "user_id", o.user.ID, "company", form.Company, "locale", locale)
	o.setProgress(PhaseJobSave, 10, "Gemmer jobopslaget...")

	job, err := o.jobs.CreateOrUpdate(ctx, o.user.ID, form)
	if err != nil {
		return o.fail(PhaseJobSave, err)
	}
	if !o.life.IsLive() {
		return o.abandoned()
	}

	o.apply(func() {
		o.selectedJob = job
		o.state = StateGenerating
	})
	o.setProgress(PhaseGeneration, 40, "Genererer din ansøgning...")

	content, err := o.generate(ctx, GenerationRequest{Job: *job, User: o.user, Locale: locale})
	if err != nil {
		return o.fail(PhaseGeneration, err)
	}
	if !o.life.IsLive() {
		return o.abandoned()
	}

	o.apply(func() { o.state = StateSaving })
	o.setProgress(PhaseLetterSave, 80, "Gemmer ansøgningen...")

	letter, err := o.letters.Insert(ctx, o.user.ID, job.ID, content, locale)
	if err != nil {
		return o.fail(PhaseLetterSave, err)
	}

	applied := o.apply(func() {
		o.generatedLetter = letter
		o.step = 2
		o.state = StateIdle
	})
	if !applied {
		return o.abandoned()
	}
	o.setProgress(PhaseLetterSave, 100, "Din ansøgning er klar")
	o.notifier.Show(notify.Toast{
		Title:       "Ansøgning genereret",
		Description: "Din ansøgning til " + job.Company + " er klar.",
		Variant:     notify.VariantDefault,
	})
	o.logger.Info("generation.ok", "user_id", o.user.ID, "job_id", job.ID, "letter_id", letter.ID)
	return nil
}

// generate invokes the AI collaborator under the orchestrator-owned timeout.
// The cancel func doubles as the explicit-cancel hook and is cleared once the
// attempt resolves.
func (o *Orchestrator) generate(ctx context.Context, req GenerationRequest) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	o.mu.Lock()
	o.cancelGen = cancel
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		o.cancelGen = nil
		o.mu.Unlock()
	}()

	var content string
	op := func(ctx context.Context) error {
		out, err := o.generator.Generate(ctx, req)
		if err != nil {
			return err
		}
		content = out
		return nil
	}

	if !o.opts.RetryGeneration {
		if err := op(genCtx); err != nil {
			return "", err
		}
		return content, nil
	}

	err := Retry(genCtx, op, RetryOptions{
		MaxRetries:   o.opts.MaxRetries,
		InitialDelay: o.opts.InitialDelay,
		OnRetry: func(err error, attempt int) {
			o.logger.Warn("generation.retry", "attempt", attempt, "error", err)
			if o.life.IsLive() {
				o.notifier.Show(notify.Toast{
					Title:       "Prøver igen",
					Description: "AI-tjenesten svarede ikke. Prøver igen...",
					Variant:     notify.VariantDefault,
				})
			}
		},
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// EditLetter persists new letter content. The in-memory copy is replaced
// only after persistence succeeds - never optimistically.
func (o *Orchestrator) EditLetter(content string) error {
	o.mu.Lock()
	letter := o.generatedLetter
	o.mu.Unlock()
	if letter == nil || o.user.ID == 0 {
		o.notifier.Show(notify.Toast{
			Title:       "Ingen ansøgning",
			Description: "Der er ingen ansøgning at redigere endnu.",
			Variant:     notify.VariantDefault,
		})
		return common.NewAppError(common.KindValidation, "ingen ansøgning at redigere", common.ErrInvalidInput)
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		o.notifier.Show(notify.Toast{
			Title:       "Vent venligst",
			Description: "En anden handling er i gang.",
			Variant:     notify.VariantDefault,
		})
		return common.ErrBusy
	}
	o.state = StateSaving
	o.mu.Unlock()

	o.setProgress(PhaseLetterSave, 50, "Gemmer dine ændringer...")

	updated, err := o.letters.Update(o.life.Context(), o.user.ID, letter.ID, content)
	if err != nil {
		return o.fail(PhaseLetterSave, err)
	}

	if !o.apply(func() {
		o.generatedLetter = updated
		o.state = StateIdle
	}) {
		return o.abandoned()
	}
	o.setProgress(PhaseLetterSave, 100, "Ændringer gemt")
	o.logger.Info("letter.edited", "user_id", o.user.ID, "letter_id", letter.ID)
	return nil
}

// FetchJob loads a job posting into the working copy. Reads never move the
// loading-state machine.
func (o *Orchestrator) FetchJob(jobID uint) error {
	job, err := o.jobs.GetByID(o.life.Context(), o.user.ID, jobID)
	if err != nil {
		o.logger.Error("job.fetch_failed", "user_id", o.user.ID, "job_id", jobID, "error", err)
		o.report(PhaseUserFetch, common.Classify(err))
		return err
	}
	o.apply(func() { o.selectedJob = job })
	return nil
}

// FetchLetter loads an existing letter and, while the session is live,
// advances the UI to the letter step.
func (o *Orchestrator) FetchLetter(letterID uint) error {
	letter, err := o.letters.GetByID(o.life.Context(), o.user.ID, letterID)
	if err != nil {
		o.logger.Error("letter.fetch_failed", "user_id", o.user.ID, "letter_id", letterID, "error", err)
		o.report(PhaseUserFetch, common.Classify(err))
		return err
	}
	o.apply(func() {
		o.generatedLetter = letter
		o.step = 2
	})
	return nil
}

// ResetError clears any surfaced error and resets progress to its baseline.
// Idempotent; safe from any state.
func (o *Orchestrator) ResetError() {
	o.apply(func() { o.lastErr = nil })
	o.resetProgress()
}

// SaveJobAsDraft persists a posting without generating. Independent of the
// state machine; persistence failures are returned to the caller rather than
// swallowed, since the UI action awaits them directly.
func (o *Orchestrator) SaveJobAsDraft(form dtos.JobForm) (*models.JobPosting, error) {
	if o.user.ID == 0 {
		return nil, common.NewAppError(common.KindAuth, "du skal være logget ind", common.ErrUnauthorized)
	}
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Company) == "" {
		return nil, common.NewAppError(common.KindValidation, "titel og virksomhed skal udfyldes", common.ErrInvalidInput)
	}
	job, err := o.jobs.SaveDraft(o.life.Context(), o.user.ID, form)
	if err != nil {
		o.logger.Error("job.draft_save_failed", "user_id", o.user.ID, "error", err)
		return nil, err
	}
	o.apply(func() { o.selectedJob = job })
	o.logger.Info("job.draft_saved", "user_id", o.user.ID, "job_id", job.ID)
	return job, nil
}

// CancelGeneration aborts an in-flight AI call, if any. The failing
// continuation then resolves the sequence back to idle.
func (o *Orchestrator) CancelGeneration() {
	o.mu.Lock()
	cancel := o.cancelGen
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// State returns the current loading state.
func (o *Orchestrator) State() LoadingState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Status assembles the poll snapshot and drains pending toasts.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	st := Status{
		State:           o.state,
		Step:            o.step,
		Error:           o.lastErr,
		SelectedJob:     o.selectedJob,
		GeneratedLetter: o.generatedLetter,
	}
	o.mu.Unlock()
	st.Progress = o.progress.Current()
	st.Toasts = o.toasts.Drain()
	return st
}

// abandoned resolves a sequence whose session died mid-flight. Nothing is
// mutated and nothing is reported: the UI the outcome was meant for is gone.
func (o *Orchestrator) abandoned() error {
	o.logger.Info("generation.abandoned", "user_id", o.user.ID)
	return common.Classify(context.Canceled)
}

// apply routes a state mutation through the lifecycle guard.
func (o *Orchestrator) apply(fn func()) bool {
	return o.life.Do(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		fn()
	})
}

// setProgress and resetProgress route progress mutations through the same
// guard: a torn-down session's progress is as dead as the rest of its state.
func (o *Orchestrator) setProgress(phase Phase, percent int, message string) {
	o.life.Do(func() { o.progress.Update(phase, percent, message) })
}

func (o *Orchestrator) resetProgress() {
	o.life.Do(o.progress.Reset)
}

// fail resolves the sequence after a stage error: classify, record, toast,
// and return to idle. After teardown everything is suppressed - the one
// intentional swallow.
func (o *Orchestrator) fail(phase Phase, err error) error {
	classified := common.Classify(err)
	o.logger.Error("generation.failed", "user_id", o.user.ID, "phase", string(phase), "kind", string(classified.Kind), "error", err)

	applied := o.apply(func() {
		o.setErrorLocked(phase, classified)
		o.state = StateIdle
	})
	if applied {
		o.showError(phase)
	}
	return classified
}

// report surfaces an error without touching the loading state (reads,
// auth preconditions).
func (o *Orchestrator) report(phase Phase, classified *common.AppError) {
	if o.apply(func() { o.setErrorLocked(phase, classified) }) {
		o.showError(phase)
	}
}

// setErrorLocked must run under o.mu (via apply).
func (o *Orchestrator) setErrorLocked(phase Phase, classified *common.AppError) {
	msg := notify.TextFor(string(phase))
	o.lastErr = &ErrorView{
		Kind:      classified.Kind,
		Message:   classified.Message,
		Retryable: classified.Retryable,
		Attempts:  classified.Attempts,
		Help:      msg.Help,
		RetryText: msg.RetryLabel,
	}
}

func (o *Orchestrator) showError(phase Phase) {
	msg := notify.TextFor(string(phase))
	o.notifier.Show(notify.Toast{
		Title:       msg.Title,
		Description: msg.Help,
		Variant:     notify.VariantDestructive,
		RetryLabel:  msg.RetryLabel,
	})
}
