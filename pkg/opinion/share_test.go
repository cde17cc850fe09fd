package opinion_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/opinions/pkg/features/form"
	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/vtest"
)

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft opinion.Draft
		want  []string
	}{
		{
			name:  "all invalid",
			draft: opinion.Draft{Title: "Hi", Body: "too short", UserName: "  "},
			want:  []string{opinion.MsgTitleTooShort, opinion.MsgBodyTooShort, opinion.MsgNameMissing},
		},
		{
			name:  "padding does not count",
			draft: opinion.Draft{Title: "  abc  ", Body: "0123456789", UserName: "x"},
			want:  []string{opinion.MsgTitleTooShort},
		},
		{
			name:  "valid",
			draft: opinion.Draft{Title: "Tabs!", Body: "0123456789", UserName: "ada"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, opinion.ValidateDraft(tt.draft)); diff != "" {
				t.Errorf("ValidateDraft mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestShareRejectsAndEchoesInput(t *testing.T) {
	loop := vtest.StartLoop(t)
	store := vtest.NewFakeStore()
	share := opinion.NewShareForm(store, opinion.WithDispatcher(loop))

	raw := opinion.Draft{Title: "Hi", Body: "too short", UserName: "  "}
	vtest.OnLoop(t, loop, func() {
		share.Submit(raw)
		if share.Pending() {
			t.Error("rejected submit must not raise pending")
		}
	})

	if diff := cmp.Diff(3, len(share.Errors())); diff != "" {
		t.Errorf("error count mismatch (-want +got):\n%s", diff)
	}
	entered, ok := share.Entered()
	if !ok {
		t.Fatal("entered values missing")
	}
	if diff := cmp.Diff(raw, entered); diff != "" {
		t.Errorf("entered mismatch (-want +got):\n%s", diff)
	}
	if got := share.Phase(); got != form.PhaseRejected {
		t.Errorf("phase = %v, want rejected", got)
	}
	if n := store.Calls(vtest.MethodAdd); n != 0 {
		t.Errorf("AddOpinion calls = %d, want 0", n)
	}
}

func TestShareCommitsValidDraft(t *testing.T) {
	loop := vtest.StartLoop(t)
	store := vtest.NewFakeStore()

	var shared []opinion.Draft
	share := opinion.NewShareForm(store,
		opinion.WithDispatcher(loop),
		opinion.WithOnShared(func(d opinion.Draft) { shared = append(shared, d) }),
	)

	d := opinion.Draft{Title: "Go is fun", Body: "Goroutines are cheap enough.", UserName: "ada"}
	vtest.OnLoop(t, loop, func() { share.Submit(d) })
	vtest.EventuallyOnLoop(t, loop, func() bool { return !share.Pending() })

	vtest.OnLoop(t, loop, func() {
		if got := share.Phase(); got != form.PhaseCommitted {
			t.Errorf("phase = %v, want committed", got)
		}
		if diff := cmp.Diff([]opinion.Draft{d}, shared); diff != "" {
			t.Errorf("onShared mismatch (-want +got):\n%s", diff)
		}
	})
	calls := store.AllCalls()
	if len(calls) != 1 || calls[0].Method != vtest.MethodAdd {
		t.Fatalf("calls = %+v, want one AddOpinion", calls)
	}
	if diff := cmp.Diff(d, calls[0].Draft); diff != "" {
		t.Errorf("draft mismatch (-want +got):\n%s", diff)
	}
	if _, ok := share.Entered(); ok {
		t.Error("successful share should not echo entered values")
	}
}

func TestShareFailureEchoesDraft(t *testing.T) {
	loop := vtest.StartLoop(t)
	store := vtest.NewFakeStore()
	store.FailWith(vtest.MethodAdd, errors.New("disk full"))
	share := opinion.NewShareForm(store, opinion.WithDispatcher(loop))

	d := opinion.Draft{Title: "Go is fun", Body: "Goroutines are cheap enough.", UserName: "ada"}
	vtest.OnLoop(t, loop, func() { share.Submit(d) })
	vtest.EventuallyOnLoop(t, loop, func() bool { return !share.Pending() })

	if diff := cmp.Diff([]string{opinion.ShareFailureMessage}, share.Errors()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	entered, _ := share.Entered()
	if diff := cmp.Diff(d, entered); diff != "" {
		t.Errorf("entered mismatch (-want +got):\n%s", diff)
	}
	if got := share.Phase(); got != form.PhaseFailed {
		t.Errorf("phase = %v, want failed", got)
	}
}
