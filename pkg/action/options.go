package action

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/opinions/pkg/reactive"
)

// Observer receives runner lifecycle events. Implementations must be safe
// for concurrent use; see the middleware package for Prometheus and
// OpenTelemetry implementations.
type Observer interface {
	// ActionStarted is called when an invocation starts.
	ActionStarted(name string)

	// ActionSettled is called when an invocation's result is written back.
	ActionSettled(name string, ok bool, elapsed time.Duration)

	// ActionDropped is called when a trigger hit the re-entrancy guard.
	ActionDropped(name string)

	// ActionCompleted is called when a result was recorded without an
	// invocation (local validation rejection).
	ActionCompleted(name string, ok bool)
}

type config struct {
	name       string
	logger     *slog.Logger
	dispatcher reactive.Dispatcher
	ctx        context.Context
	observer   Observer
}

func defaultConfig() config {
	return config{
		name:       "action",
		logger:     slog.Default(),
		dispatcher: reactive.Inline,
		ctx:        context.Background(),
	}
}

// Option configures a Runner.
type Option func(*config)

// WithName sets the name used in logs and observer callbacks.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDispatcher sets where results are written back. Defaults to
// reactive.Inline; controllers pass their event loop.
func WithDispatcher(d reactive.Dispatcher) Option {
	return func(c *config) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

// WithContext sets the base context handed to the action func.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
