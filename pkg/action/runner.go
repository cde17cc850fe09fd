package action

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/opinions/pkg/reactive"
)

// State describes where a Runner is in its lifecycle.
type State int

const (
	// StateIdle is the initial state before any result was recorded.
	StateIdle State = iota

	// StatePending indicates an invocation is in flight.
	StatePending

	// StateSucceeded indicates the last result committed.
	StateSucceeded

	// StateFailed indicates the last result carried errors.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Func is the wrapped action. It receives the previous result and the
// trigger input, may block on one remote call, and must return a Result
// rather than panic.
type Func[T any] func(ctx context.Context, prev Result[T], input T) Result[T]

// Runner tracks the single in-flight invocation of one action func.
type Runner[T any] struct {
	do Func[T]

	name       string
	logger     *slog.Logger
	dispatcher reactive.Dispatcher
	ctx        context.Context
	observer   Observer

	// mu protects the fields below.
	mu          sync.Mutex
	pending     bool
	settled     bool
	last        Result[T]
	invocations uint64

	subs reactive.Subscribers
}

// NewRunner creates a runner for do.
func NewRunner[T any](do Func[T], opts ...Option) *Runner[T] {
	if do == nil {
		panic("action: NewRunner called with nil func")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner[T]{
		do:         do,
		name:       cfg.name,
		logger:     cfg.logger.With("action", cfg.name),
		dispatcher: cfg.dispatcher,
		ctx:        cfg.ctx,
		observer:   cfg.observer,
	}
}

// Trigger starts an invocation with input.
// Returns false, doing nothing else, if an invocation is already pending.
func (r *Runner[T]) Trigger(input T) bool {
	return r.TriggerThen(input, nil)
}

// TriggerThen is Trigger with a callback that runs on the same turn that
// writes the result back. The result is already visible through Last when
// then runs; pending clears after it returns, and subscribers are notified
// after that.
func (r *Runner[T]) TriggerThen(input T, then func(Result[T])) bool {
	return r.TriggerWith(input, nil, then)
}

// TriggerWith is TriggerThen with a start hook. start runs once pending
// has risen and before subscribers hear about the invocation, so any
// change it makes is observed together with Pending() == true. It is not
// called when the trigger is dropped.
func (r *Runner[T]) TriggerWith(input T, start func(), then func(Result[T])) bool {
	r.mu.Lock()
	if r.pending {
		r.mu.Unlock()
		r.logger.Debug("trigger dropped while pending")
		if r.observer != nil {
			r.observer.ActionDropped(r.name)
		}
		return false
	}
	r.pending = true
	r.invocations++
	prev := r.last
	r.mu.Unlock()

	if start != nil {
		start()
	}
	r.logger.Debug("action started")
	if r.observer != nil {
		r.observer.ActionStarted(r.name)
	}
	r.subs.Notify()

	go r.run(prev, input, then, time.Now())
	return true
}

func (r *Runner[T]) run(prev Result[T], input T, then func(Result[T]), started time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("action func panicked", "panic", rec)
			panic(rec)
		}
	}()

	res := r.do(r.ctx, prev, input)
	r.dispatcher.Dispatch(func() {
		r.settle(res, then, time.Since(started))
	})
}

func (r *Runner[T]) settle(res Result[T], then func(Result[T]), elapsed time.Duration) {
	r.mu.Lock()
	r.last = res
	r.settled = true
	r.mu.Unlock()

	if then != nil {
		then(res)
	}

	// Pending clears last so that observers on other goroutines that see
	// Pending() == false also see everything then did.
	r.mu.Lock()
	r.pending = false
	r.mu.Unlock()

	r.logger.Debug("action settled", "ok", res.OK(), "errors", len(res.Errors), "elapsed", elapsed)
	if r.observer != nil {
		r.observer.ActionSettled(r.name, res.OK(), elapsed)
	}
	r.subs.Notify()
}

// Complete records res as the latest result without invoking the func.
// This is the pure-validation path: pending never rises. Returns false and
// records nothing if an invocation is pending.
func (r *Runner[T]) Complete(res Result[T]) bool {
	r.mu.Lock()
	if r.pending {
		r.mu.Unlock()
		if r.observer != nil {
			r.observer.ActionDropped(r.name)
		}
		return false
	}
	r.last = res
	r.settled = true
	r.mu.Unlock()

	r.logger.Debug("action completed without invocation", "ok", res.OK())
	if r.observer != nil {
		r.observer.ActionCompleted(r.name, res.OK())
	}
	r.subs.Notify()
	return true
}

// Reset clears the recorded result. It has no effect while pending.
func (r *Runner[T]) Reset() {
	r.mu.Lock()
	if r.pending || !r.settled {
		r.mu.Unlock()
		return
	}
	r.last = Result[T]{}
	r.settled = false
	r.mu.Unlock()

	r.subs.Notify()
}

// Pending reports whether an invocation is in flight.
func (r *Runner[T]) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Last returns the latest result. The bool is false until the first result
// has been recorded.
func (r *Runner[T]) Last() (Result[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.settled
}

// State returns the current lifecycle state.
func (r *Runner[T]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.pending:
		return StatePending
	case !r.settled:
		return StateIdle
	case r.last.OK():
		return StateSucceeded
	default:
		return StateFailed
	}
}

// Invocations returns how many times the action func has been started.
func (r *Runner[T]) Invocations() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invocations
}

// Name returns the runner's name.
func (r *Runner[T]) Name() string {
	return r.name
}

// Subscribe registers fn to run after every pending or result change.
func (r *Runner[T]) Subscribe(fn func()) (unsubscribe func()) {
	return r.subs.Subscribe(fn)
}
