package form

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/opinions/pkg/action"
)

// Phase is a Submission's position in the submit state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseRejected
	PhasePending
	PhaseCommitted
	PhaseFailed
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseRejected:
		return "rejected"
	case PhasePending:
		return "pending"
	case PhaseCommitted:
		return "committed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validate returns one message per violated rule, or none.
type Validate[T any] func(T) []string

// Commit performs the remote create. A nil Commit commits locally.
type Commit[T any] func(ctx context.Context, v T) error

// DefaultFailureMessage is reported when Commit fails and no message was
// configured.
const DefaultFailureMessage = "Something went wrong, please try again."

type submissionConfig[T any] struct {
	failureMessage string
	logger         *slog.Logger
	onCommitted    func(T)
	runnerOpts     []action.Option
}

// SubmissionOption configures a Submission.
type SubmissionOption[T any] func(*submissionConfig[T])

// WithFailureMessage sets the message reported when Commit fails.
func WithFailureMessage[T any](msg string) SubmissionOption[T] {
	return func(c *submissionConfig[T]) {
		if msg != "" {
			c.failureMessage = msg
		}
	}
}

// WithSubmissionLogger sets the logger.
func WithSubmissionLogger[T any](l *slog.Logger) SubmissionOption[T] {
	return func(c *submissionConfig[T]) {
		if l != nil {
			c.logger = l
		}
	}
}

// OnCommitted registers a callback that runs on the loop after a successful
// commit, typically to clear transient form input.
func OnCommitted[T any](fn func(T)) SubmissionOption[T] {
	return func(c *submissionConfig[T]) {
		c.onCommitted = fn
	}
}

// WithRunnerOptions passes options to the underlying action.Runner.
func WithRunnerOptions[T any](opts ...action.Option) SubmissionOption[T] {
	return func(c *submissionConfig[T]) {
		c.runnerOpts = append(c.runnerOpts, opts...)
	}
}

// Submission is a validated create-and-repopulate controller.
type Submission[T any] struct {
	validate Validate[T]
	commit   Commit[T]
	runner   *action.Runner[T]

	failureMessage string
	onCommitted    func(T)
	logger         *slog.Logger

	mu    sync.Mutex
	phase Phase
}

// NewSubmission creates a submission controller.
func NewSubmission[T any](validate Validate[T], commit Commit[T], opts ...SubmissionOption[T]) *Submission[T] {
	cfg := submissionConfig[T]{
		failureMessage: DefaultFailureMessage,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Submission[T]{
		validate:       validate,
		commit:         commit,
		failureMessage: cfg.failureMessage,
		onCommitted:    cfg.onCommitted,
		logger:         cfg.logger,
	}
	runnerOpts := append([]action.Option{action.WithLogger(cfg.logger)}, cfg.runnerOpts...)
	s.runner = action.NewRunner(s.run, runnerOpts...)
	return s
}

func (s *Submission[T]) run(ctx context.Context, _ action.Result[T], v T) action.Result[T] {
	if s.commit == nil {
		return action.Success[T]()
	}
	if err := s.commit(ctx, v); err != nil {
		return action.Failure(v, s.failureMessage)
	}
	return action.Success[T]()
}

// Submit validates raw and, if valid, commits it.
// Returns false if a previous commit is still pending.
func (s *Submission[T]) Submit(raw T) bool {
	if s.runner.Pending() {
		s.logger.Debug("submit dropped while pending", "action", s.runner.Name())
		return false
	}

	s.setPhase(PhaseValidating)
	var errs []string
	if s.validate != nil {
		errs = s.validate(raw)
	}
	if len(errs) > 0 {
		s.setPhase(PhaseRejected)
		s.runner.Complete(action.Failure(raw, errs...))
		return true
	}

	s.setPhase(PhasePending)
	return s.runner.TriggerThen(raw, func(res action.Result[T]) {
		if !res.OK() {
			s.setPhase(PhaseFailed)
			return
		}
		s.setPhase(PhaseCommitted)
		if s.onCommitted != nil {
			s.onCommitted(raw)
		}
	})
}

// Pending reports whether a commit is in flight.
func (s *Submission[T]) Pending() bool {
	return s.runner.Pending()
}

// Last returns the latest result. The bool is false before the first submit.
func (s *Submission[T]) Last() (action.Result[T], bool) {
	return s.runner.Last()
}

// Entered returns the values to repopulate the form with, if the last
// submit was rejected or failed.
func (s *Submission[T]) Entered() (T, bool) {
	res, _ := s.runner.Last()
	return res.Entered()
}

// Errors returns the messages of the last result.
func (s *Submission[T]) Errors() []string {
	res, _ := s.runner.Last()
	return res.Errors
}

// Phase returns the current phase.
func (s *Submission[T]) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Reset clears the last result and returns to idle. No effect while pending.
func (s *Submission[T]) Reset() {
	if s.runner.Pending() {
		return
	}
	s.setPhase(PhaseIdle)
	s.runner.Reset()
}

// Invocations returns how many commits have been started.
func (s *Submission[T]) Invocations() uint64 {
	return s.runner.Invocations()
}

// Subscribe registers fn to run after every pending or result change.
func (s *Submission[T]) Subscribe(fn func()) (unsubscribe func()) {
	return s.runner.Subscribe(fn)
}

func (s *Submission[T]) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}
