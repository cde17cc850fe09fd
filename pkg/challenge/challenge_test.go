package challenge

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/opinions/pkg/vtest"
)

// fakeClock is a manual clock. Timers fire only from Advance.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			t.fn()
		}
	}
}

func newChallenge(clock *fakeClock, target time.Duration) *Challenge {
	return New("Easy", target, WithClock(clock.Now, clock.AfterFunc))
}

func TestStopBeforeExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newChallenge(clock, 5*time.Second)

	c.Start()
	if !c.Started() {
		t.Fatal("Started() = false after Start")
	}
	clock.Advance(4 * time.Second)
	if got := c.Remaining(); got != time.Second {
		t.Errorf("Remaining() while running = %v, want 1s", got)
	}

	clock.Advance(500 * time.Millisecond)
	c.Stop()

	if c.Started() || c.Expired() {
		t.Errorf("Started=%v Expired=%v after Stop, want both false", c.Started(), c.Expired())
	}
	if !c.Modal().IsOpen() {
		t.Error("result modal not open after Stop")
	}

	r := c.Result()
	want := Result{Target: 5 * time.Second, Remaining: 500 * time.Millisecond, Score: 90}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("Result mismatch (-want +got):\n%s", diff)
	}
	if r.FormattedRemaining() != "0.50" {
		t.Errorf("FormattedRemaining() = %q, want 0.50", r.FormattedRemaining())
	}
	if r.Headline() != "You won!" {
		t.Errorf("Headline() = %q", r.Headline())
	}

	// A stopped timer must not expire later.
	clock.Advance(10 * time.Second)
	if c.Expired() {
		t.Error("Expired() = true after Stop")
	}
}

func TestExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newChallenge(clock, time.Second)

	notified := 0
	c.Subscribe(func() { notified++ })

	c.Start()
	clock.Advance(time.Second)

	if !c.Expired() || c.Started() {
		t.Fatalf("Expired=%v Started=%v, want expired and stopped", c.Expired(), c.Started())
	}
	if !c.Modal().IsOpen() {
		t.Error("result modal not open after expiry")
	}
	r := c.Result()
	if !r.Lost || r.Headline() != "You lost!" {
		t.Errorf("Result = %+v, want lost", r)
	}
	if r.FormattedRemaining() != "0.00" {
		t.Errorf("FormattedRemaining() = %q", r.FormattedRemaining())
	}
	if notified != 2 {
		t.Errorf("notified = %d, want 2", notified)
	}

	// Stop after expiry is a no-op.
	c.Stop()
	if !c.Expired() {
		t.Error("Stop cleared Expired")
	}
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	c := newChallenge(clock, 10*time.Second)

	c.Start()
	clock.Advance(3 * time.Second)
	c.Stop()
	c.Reset()

	if c.Modal().IsOpen() {
		t.Error("modal open after Reset")
	}
	if c.Remaining() != 10*time.Second {
		t.Errorf("Remaining() = %v, want target", c.Remaining())
	}

	// Reset while running cancels the old timer.
	c.Start()
	c.Reset()
	clock.Advance(time.Minute)
	if c.Expired() || c.Modal().IsOpen() {
		t.Error("timer from a reset run expired the challenge")
	}
}

func TestRestartIgnoresStaleExpiry(t *testing.T) {
	clock := newFakeClock()
	var queued []func()
	c := New("Medium", time.Second,
		WithClock(clock.Now, clock.AfterFunc),
		WithDispatcher(dispatchFunc(func(fn func()) { queued = append(queued, fn) })),
	)

	c.Start()
	clock.Advance(time.Second) // expiry queued, not yet run
	c.Stop()
	c.Reset()
	c.Start()

	for _, fn := range queued {
		fn()
	}
	if c.Expired() || !c.Started() {
		t.Errorf("stale expiry applied to the new run: Expired=%v Started=%v", c.Expired(), c.Started())
	}
}

func TestStopAfterTargetBeforeExpiryTurn(t *testing.T) {
	clock := newFakeClock()
	var queued []func()
	c := New("Easy", time.Second,
		WithClock(clock.Now, clock.AfterFunc),
		WithDispatcher(dispatchFunc(func(fn func()) { queued = append(queued, fn) })),
	)

	c.Start()
	clock.Advance(1010 * time.Millisecond) // expiry queued, not yet run
	c.Stop()

	if !c.Expired() {
		t.Error("Expired() = false after stopping past the target")
	}
	r := c.Result()
	if r.Remaining != 0 || !r.Lost || r.Score != 100 || r.FormattedRemaining() != "0.00" {
		t.Errorf("Result = %+v %q, want lost with 0.00 left and score 100", r, r.FormattedRemaining())
	}

	for _, fn := range queued {
		fn()
	}
	if !c.Expired() || c.Remaining() != 0 {
		t.Errorf("late expiry turn changed state: Expired=%v Remaining=%v", c.Expired(), c.Remaining())
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		lost      bool
		score     int
		formatted string
	}{
		{15 * time.Second, false, 0, "15.00"},
		{7500 * time.Millisecond, false, 50, "7.50"},
		{1234 * time.Millisecond, false, 92, "1.23"},
		{0, true, 100, "0.00"},
		{-20 * time.Millisecond, true, 100, "-0.02"},
	}
	for _, tt := range tests {
		r := NewResult(15*time.Second, tt.remaining)
		if r.Lost != tt.lost || r.Score != tt.score || r.FormattedRemaining() != tt.formatted {
			t.Errorf("NewResult(15s, %v) = lost %v score %d %q, want %v %d %q",
				tt.remaining, r.Lost, r.Score, r.FormattedRemaining(), tt.lost, tt.score, tt.formatted)
		}
	}
}

func TestExpiryOnLoop(t *testing.T) {
	loop := vtest.StartLoop(t)
	var c *Challenge
	vtest.OnLoop(t, loop, func() {
		c = New("Hard", 10*time.Millisecond, WithDispatcher(loop))
		c.Start()
	})
	vtest.EventuallyOnLoop(t, loop, func() bool { return c.Expired() })
	vtest.OnLoop(t, loop, func() {
		if !c.Modal().IsOpen() {
			t.Error("modal not open after real expiry")
		}
	})
}

type dispatchFunc func(fn func())

func (f dispatchFunc) Dispatch(fn func()) { f(fn) }
