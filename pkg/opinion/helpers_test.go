package opinion_test

import (
	"testing"

	"github.com/vango-dev/opinions/pkg/reactive"
	"github.com/vango-dev/opinions/pkg/vtest"
)

type loopRunner struct {
	t    *testing.T
	loop *reactive.Loop
}

func (r loopRunner) turn(fn func()) {
	r.t.Helper()
	vtest.OnLoop(r.t, r.loop, fn)
}

func (r loopRunner) eventually(cond func() bool) {
	r.t.Helper()
	vtest.EventuallyOnLoop(r.t, r.loop, cond)
}
