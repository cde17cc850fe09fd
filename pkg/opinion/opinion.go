package opinion

import (
	"context"
	"log/slog"

	"github.com/vango-dev/opinions/pkg/action"
	"github.com/vango-dev/opinions/pkg/reactive"
)

// Opinion is a shared opinion. Owned by the store; controllers only read
// Votes and propose deltas.
type Opinion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	UserName string `json:"userName"`
	Votes    int    `json:"votes"`
}

// Draft is the payload for creating an opinion.
type Draft struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	UserName string `json:"userName"`
}

// Store is the remote collaborator. Every method fails by returning an
// error; durability is the implementation's business.
type Store interface {
	AddOpinion(ctx context.Context, d Draft) error
	UpvoteOpinion(ctx context.Context, id string) error
	DownvoteOpinion(ctx context.Context, id string) error
}

// Lister reports the authoritative list of opinions.
type Lister interface {
	Opinions(ctx context.Context) ([]Opinion, error)
}

// EventType names a pushed change.
type EventType string

const (
	EventCreated EventType = "created"
	EventVoted   EventType = "voted"
)

// Event is a change pushed by the store, carrying the authoritative opinion.
type Event struct {
	Type    EventType `json:"type"`
	Opinion Opinion   `json:"opinion"`
}

type options struct {
	dispatcher reactive.Dispatcher
	logger     *slog.Logger
	observer   action.Observer
	ctx        context.Context
	onShared   func(Draft)
}

func defaultOptions() options {
	return options{
		dispatcher: reactive.Inline,
		logger:     slog.Default(),
		ctx:        context.Background(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) runnerOptions(name string) []action.Option {
	return []action.Option{
		action.WithName(name),
		action.WithDispatcher(o.dispatcher),
		action.WithLogger(o.logger),
		action.WithObserver(o.observer),
		action.WithContext(o.ctx),
	}
}

// Option configures controllers in this package.
type Option func(*options)

// WithDispatcher sets the event loop results are written back on.
func WithDispatcher(d reactive.Dispatcher) Option {
	return func(o *options) {
		if d != nil {
			o.dispatcher = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers an action lifecycle observer on every runner.
func WithObserver(obs action.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithContext sets the base context for remote calls.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithOnShared registers a callback that runs on the loop after an opinion
// was shared successfully.
func WithOnShared(fn func(Draft)) Option {
	return func(o *options) {
		o.onShared = fn
	}
}
