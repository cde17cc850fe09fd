// Package challenge implements the stop-the-timer game: start a countdown,
// stop it as close to zero as you dare, and get scored on what was left.
//
// A Challenge must be driven from the event loop. Expiry fires on a timer
// goroutine and is dispatched back onto the loop.
package challenge

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/vango-dev/opinions/pkg/features/modal"
	"github.com/vango-dev/opinions/pkg/reactive"
)

// Timer is the part of *time.Timer a Challenge needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn to run after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, fn func()) Timer

// Option configures a Challenge.
type Option func(*Challenge)

// WithDispatcher sets where expiry turns run. Defaults to reactive.Inline.
func WithDispatcher(d reactive.Dispatcher) Option {
	return func(c *Challenge) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

// WithClock replaces time.Now and time.AfterFunc.
func WithClock(now func() time.Time, after AfterFunc) Option {
	return func(c *Challenge) {
		if now != nil {
			c.now = now
		}
		if after != nil {
			c.after = after
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Challenge) {
		if l != nil {
			c.logger = l
		}
	}
}

// Challenge is one countdown with its result modal.
type Challenge struct {
	Title  string
	Target time.Duration

	dispatcher reactive.Dispatcher
	now        func() time.Time
	after      AfterFunc
	logger     *slog.Logger

	modal     *modal.Modal
	subs      reactive.Subscribers
	timer     Timer
	startedAt time.Time
	started   bool
	expired   bool
	remaining time.Duration

	// gen invalidates expiry turns from an earlier run.
	gen uint64
}

// New creates a challenge with the given target time.
func New(title string, target time.Duration, opts ...Option) *Challenge {
	c := &Challenge{
		Title:      title,
		Target:     target,
		dispatcher: reactive.Inline,
		now:        time.Now,
		after: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
		logger:    slog.Default(),
		modal:     modal.New(),
		remaining: target,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("challenge", title)
	return c
}

// Start begins the countdown. Starting a running challenge does nothing.
func (c *Challenge) Start() {
	if c.started {
		return
	}
	c.gen++
	gen := c.gen
	c.started = true
	c.expired = false
	c.startedAt = c.now()
	c.remaining = c.Target
	c.timer = c.after(c.Target, func() {
		c.dispatcher.Dispatch(func() { c.expire(gen) })
	})
	c.logger.Debug("challenge started", "target", c.Target)
	c.subs.Notify()
}

// Stop halts the countdown, records the time left and opens the result
// modal. Stopping after the target elapsed counts as expiry. Stopping an
// idle challenge does nothing.
func (c *Challenge) Stop() {
	if !c.started {
		return
	}
	c.timer.Stop()
	c.gen++
	c.started = false
	c.remaining = c.Target - c.now().Sub(c.startedAt)
	if c.remaining <= 0 {
		// The expiry turn has not run yet; the time is up all the same.
		c.remaining = 0
		c.expired = true
	}
	c.logger.Debug("challenge stopped", "remaining", c.remaining)
	c.modal.Open()
	c.subs.Notify()
}

func (c *Challenge) expire(gen uint64) {
	if gen != c.gen || !c.started {
		return
	}
	c.started = false
	c.expired = true
	c.remaining = 0
	c.logger.Debug("challenge expired")
	c.modal.Open()
	c.subs.Notify()
}

// Reset closes the result modal and restores the full target time.
func (c *Challenge) Reset() {
	if c.started {
		c.timer.Stop()
		c.gen++
		c.started = false
	}
	c.expired = false
	c.remaining = c.Target
	c.modal.Close()
	c.subs.Notify()
}

// Started reports whether the countdown is running.
func (c *Challenge) Started() bool { return c.started }

// Expired reports whether the countdown ran out before Stop.
func (c *Challenge) Expired() bool { return c.expired }

// Remaining is the time left. While running it is computed from the clock.
func (c *Challenge) Remaining() time.Duration {
	if c.started {
		return c.Target - c.now().Sub(c.startedAt)
	}
	return c.remaining
}

// Modal returns the result modal.
func (c *Challenge) Modal() *modal.Modal { return c.modal }

// Subscribe registers fn to run after every state change.
func (c *Challenge) Subscribe(fn func()) (unsubscribe func()) {
	return c.subs.Subscribe(fn)
}

// Result is what the result modal shows.
type Result struct {
	Target    time.Duration
	Remaining time.Duration

	// Lost is set when no time was left.
	Lost bool

	// Score is 0..100, higher for stopping closer to zero.
	Score int
}

// Result reports the outcome of the last run.
func (c *Challenge) Result() Result {
	return NewResult(c.Target, c.Remaining())
}

// NewResult scores remaining against target.
func NewResult(target, remaining time.Duration) Result {
	r := Result{
		Target:    target,
		Remaining: remaining,
		Lost:      remaining <= 0,
	}
	if target > 0 {
		r.Score = int(math.Round((1 - float64(remaining)/float64(target)) * 100))
	}
	return r
}

// FormattedRemaining is the time left in seconds with two decimals.
func (r Result) FormattedRemaining() string {
	return fmt.Sprintf("%.2f", r.Remaining.Seconds())
}

// Headline is "You lost!" or "You won!".
func (r Result) Headline() string {
	if r.Lost {
		return "You lost!"
	}
	return "You won!"
}
