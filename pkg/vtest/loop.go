package vtest

import (
	"context"
	"testing"
	"time"

	"github.com/vango-dev/opinions/pkg/reactive"
)

// Timeout bounds every wait in this package.
const Timeout = 2 * time.Second

// StartLoop runs a loop until the test ends.
func StartLoop(t testing.TB) *reactive.Loop {
	t.Helper()
	loop := reactive.NewLoop()
	go loop.Run(context.Background())
	t.Cleanup(func() {
		loop.Stop()
		<-loop.Done()
	})
	return loop
}

// OnLoop runs fn as one turn of loop and waits for it.
func OnLoop(t testing.TB, loop *reactive.Loop, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	if err := loop.Call(ctx, fn); err != nil {
		t.Fatalf("loop turn did not run: %v", err)
	}
}

// Eventually polls cond until it returns true.
func Eventually(t testing.TB, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(Timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", Timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// EventuallyOnLoop polls cond, evaluating it as a loop turn each time.
func EventuallyOnLoop(t testing.TB, loop *reactive.Loop, cond func() bool) {
	t.Helper()
	Eventually(t, func() bool {
		var ok bool
		OnLoop(t, loop, func() { ok = cond() })
		return ok
	})
}
