package opinion_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/vtest"
)

func newVotes(t *testing.T, votes int) (*opinion.VoteController, *vtest.FakeStore, loopRunner) {
	t.Helper()
	loop := vtest.StartLoop(t)
	op := opinion.Opinion{ID: "op-1", Title: "Tabs", Body: "Tabs are better than spaces.", UserName: "ada", Votes: votes}
	store := vtest.NewFakeStore(op)
	vc := opinion.NewVoteController(op, store, opinion.WithDispatcher(loop))
	return vc, store, loopRunner{t: t, loop: loop}
}

func TestUpvoteShowsImmediatelyAndKeepsAfterResolve(t *testing.T) {
	vc, store, on := newVotes(t, 10)
	release := store.Hold()

	var accepted bool
	var shown int
	on.turn(func() {
		accepted = vc.Upvote()
		shown = vc.Display()
	})
	if !accepted {
		t.Fatal("first upvote should be accepted")
	}
	if shown != 11 {
		t.Fatalf("display on click turn = %d, want 11", shown)
	}
	on.turn(func() {
		if !vc.UpPending() {
			t.Error("upvote should be pending")
		}
		if vc.DownPending() {
			t.Error("downvote should not be pending")
		}
	})

	release()
	on.eventually(func() bool { return !vc.UpPending() })

	on.turn(func() {
		if got := vc.Display(); got != 11 {
			t.Errorf("display after resolve = %d, want 11", got)
		}
		if got := vc.Baseline(); got != 11 {
			t.Errorf("baseline after resolve = %d, want 11", got)
		}
	})
	if n := store.Calls(vtest.MethodUpvote); n != 1 {
		t.Errorf("UpvoteOpinion calls = %d, want 1", n)
	}
}

func TestSecondClickWhilePendingIsDropped(t *testing.T) {
	vc, store, on := newVotes(t, 10)
	release := store.Hold()

	on.turn(func() { vc.Upvote() })
	vtest.Eventually(t, func() bool { return store.Calls(vtest.MethodUpvote) == 1 })

	var second bool
	var shown int
	on.turn(func() {
		second = vc.Upvote()
		shown = vc.Display()
	})
	if second {
		t.Error("second upvote while pending should be dropped")
	}
	if shown != 11 {
		t.Errorf("display after dropped click = %d, want 11", shown)
	}

	release()
	on.eventually(func() bool { return !vc.UpPending() })
	if n := store.Calls(vtest.MethodUpvote); n != 1 {
		t.Errorf("UpvoteOpinion calls = %d, want 1", n)
	}
}

func TestUpAndDownRunIndependently(t *testing.T) {
	vc, store, on := newVotes(t, 10)
	release := store.Hold()

	on.turn(func() {
		if !vc.Upvote() {
			t.Error("upvote rejected")
		}
		if !vc.Downvote() {
			t.Error("downvote rejected while only upvote pending")
		}
		if got := vc.Display(); got != 10 {
			t.Errorf("display = %d, want 10", got)
		}
	})

	release()
	on.eventually(func() bool { return !vc.UpPending() && !vc.DownPending() })
	on.turn(func() {
		if got := vc.Display(); got != 10 {
			t.Errorf("display after both resolve = %d, want 10", got)
		}
	})
}

func TestFailedVoteDropsDelta(t *testing.T) {
	vc, store, on := newVotes(t, 10)
	store.FailWith(vtest.MethodDownvote, errors.New("store offline"))

	on.turn(func() { vc.Downvote() })
	on.eventually(func() bool { return !vc.DownPending() })

	on.turn(func() {
		if got := vc.Display(); got != 10 {
			t.Errorf("display after failure = %d, want 10", got)
		}
		res, ok := vc.Last(opinion.Down)
		if !ok {
			t.Fatal("no result recorded")
		}
		if diff := cmp.Diff([]string{opinion.VoteFailureMessage}, res.Errors); diff != "" {
			t.Errorf("errors mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRefreshWhilePendingWins(t *testing.T) {
	vc, store, on := newVotes(t, 10)
	release := store.Hold()

	on.turn(func() { vc.Upvote() })
	// The pushed count already contains this vote.
	on.turn(func() {
		vc.Refresh(11)
		if got := vc.Display(); got != 12 {
			t.Errorf("display with pending delta over refreshed baseline = %d, want 12", got)
		}
	})

	release()
	on.eventually(func() bool { return !vc.UpPending() })
	on.turn(func() {
		if got := vc.Display(); got != 11 {
			t.Errorf("display = %d, want 11", got)
		}
	})
}

func TestVoteControllerNotifiesSubscribers(t *testing.T) {
	vc, _, on := newVotes(t, 3)

	var notified int
	on.turn(func() {
		vc.Subscribe(func() { notified++ })
		vc.Upvote()
	})
	on.eventually(func() bool { return !vc.UpPending() })
	on.turn(func() {
		if notified == 0 {
			t.Error("subscriber was not notified")
		}
		if got := vc.Opinion().Votes; got != 4 {
			t.Errorf("Opinion().Votes = %d, want 4", got)
		}
	})
}

func TestDirection(t *testing.T) {
	if opinion.Up.Delta() != 1 || opinion.Down.Delta() != -1 {
		t.Error("unexpected deltas")
	}
	if opinion.Up.String() != "up" || opinion.Down.String() != "down" {
		t.Error("unexpected names")
	}
}

func TestVoteNotificationsSeePending(t *testing.T) {
	vc, store, on := newVotes(t, 10)
	release := store.Hold()

	type seen struct {
		Display int
		Pending bool
	}
	var all []seen
	on.turn(func() {
		vc.Subscribe(func() { all = append(all, seen{vc.Display(), vc.UpPending()}) })
		vc.Upvote()
	})

	var onClick []seen
	on.turn(func() { onClick = append(onClick, all...) })
	if len(onClick) == 0 {
		t.Fatal("click did not notify subscribers")
	}
	for i, s := range onClick {
		if want := (seen{11, true}); s != want {
			t.Errorf("notification %d on click = %+v, want %+v", i, s, want)
		}
	}

	release()
	on.eventually(func() bool { return !vc.UpPending() })
	on.turn(func() {
		if last := all[len(all)-1]; last != (seen{11, false}) {
			t.Errorf("last notification = %+v, want {Display:11 Pending:false}", last)
		}
	})
}
