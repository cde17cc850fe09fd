package optimistic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func add(v, delta int) int { return v + delta }

func TestApplyShowsBeforeSettle(t *testing.T) {
	p := New(10, add)

	h := p.Apply(+1)
	if got := p.Display(); got != 11 {
		t.Errorf("Display() after Apply(+1) = %d, want 11", got)
	}
	if got := p.Baseline(); got != 10 {
		t.Errorf("Baseline() = %d, want 10", got)
	}

	p.Settle(h)
	if got := p.Display(); got != 10 {
		t.Errorf("Display() after Settle = %d, want 10", got)
	}
	if got := p.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0", got)
	}
}

func TestRapidAppliesCompose(t *testing.T) {
	p := New(10, add)

	h1 := p.Apply(+1)
	h2 := p.Apply(+1)
	if h1 == h2 {
		t.Fatal("Apply returned the same handle twice")
	}
	if got := p.Display(); got != 12 {
		t.Errorf("Display() after two applies = %d, want 12", got)
	}

	// Settlement order does not have to match apply order.
	p.Settle(h2)
	if got := p.Display(); got != 11 {
		t.Errorf("Display() after settling second = %d, want 11", got)
	}
	p.Settle(h1)
	if got := p.Display(); got != 10 {
		t.Errorf("Display() after settling both = %d, want 10", got)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	p := New(0, add)
	h := p.Apply(+1)
	other := p.Apply(+5)

	notified := 0
	p.Subscribe(func() { notified++ })

	p.Settle(h)
	p.Settle(h)
	p.Settle(Handle(999))

	if got := p.Display(); got != 5 {
		t.Errorf("Display() = %d, want 5", got)
	}
	if notified != 1 {
		t.Errorf("notified %d times, want 1", notified)
	}
	p.Settle(other)
}

func TestSettleWithReplacesBaseline(t *testing.T) {
	p := New(10, add)
	h := p.Apply(+1)
	p.Apply(-1)

	p.SettleWith(h, 42)
	if got := p.Display(); got != 41 {
		t.Errorf("Display() = %d, want 41", got)
	}
	if got := p.Epoch(); got != 1 {
		t.Errorf("Epoch() = %d, want 1", got)
	}

	// Baseline is replaced even for a handle that is already gone.
	p.SettleWith(h, 7)
	if got := p.Baseline(); got != 7 {
		t.Errorf("Baseline() = %d, want 7", got)
	}
}

func TestCommitTrustsMutation(t *testing.T) {
	p := New(10, add)
	h := p.Apply(+1)

	p.Commit(h)
	if got := p.Display(); got != 11 {
		t.Errorf("Display() after Commit = %d, want 11", got)
	}
	if got := p.Baseline(); got != 11 {
		t.Errorf("Baseline() after Commit = %d, want 11", got)
	}
	if got := p.Epoch(); got != 0 {
		t.Errorf("Epoch() after Commit = %d, want 0", got)
	}

	p.Commit(h)
	if got := p.Baseline(); got != 11 {
		t.Errorf("second Commit changed baseline to %d", got)
	}
}

func TestSetBaselineKeepsPending(t *testing.T) {
	p := New(10, add)
	p.Apply(+1)

	p.SetBaseline(20)
	if got := p.Display(); got != 21 {
		t.Errorf("Display() = %d, want 21", got)
	}
}

func TestFoldOrderIsFIFO(t *testing.T) {
	p := New([]string(nil), func(v []string, m string) []string {
		return append(append([]string(nil), v...), m)
	})
	p.Apply("a")
	hb := p.Apply("b")
	p.Apply("c")
	p.Settle(hb)
	p.Apply("d")

	if diff := cmp.Diff([]string{"a", "c", "d"}, p.Display()); diff != "" {
		t.Errorf("Display() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewNilReducerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(nil reducer) did not panic")
		}
	}()
	New[int, int](0, nil)
}
