package reactive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLoopStopped is returned by Call when the loop is no longer running.
var ErrLoopStopped = errors.New("reactive: loop stopped")

// Dispatcher schedules a func to run as one turn of the event loop.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts an ordinary func to the Dispatcher interface.
type DispatchFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatchFunc) Dispatch(fn func()) { f(fn) }

// Inline runs every dispatched func immediately on the calling goroutine.
// Used by tests and by callers that do their own serialization.
var Inline Dispatcher = DispatchFunc(func(fn func()) { fn() })

// Loop runs dispatched funcs one at a time, in dispatch order, on the
// goroutine that called Run. The queue is unbounded so that a turn may
// dispatch further turns without deadlocking.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	stopOnce sync.Once
	logger   *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger used for dropped turns.
func WithLoopLogger(l *slog.Logger) LoopOption {
	return func(loop *Loop) {
		if l != nil {
			loop.logger = l
		}
	}
}

// NewLoop creates a loop. Call Run to start processing turns.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch enqueues fn. Turns dispatched after the loop stopped are dropped.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.logger.Debug("reactive: turn dropped after loop stop")
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call dispatches fn and blocks until it has run, the context is done, or
// the loop stops.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	l.Dispatch(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The turn may have been the last one processed.
		select {
		case <-ran:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Run processes turns until ctx is done or Stop is called.
// Turns still queued at that point are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.markStopped()

	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}

		select {
		case <-l.wake:
		case <-l.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends Run after the current turn.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) markStopped() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()
}
