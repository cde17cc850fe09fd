package vtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

// Method names recorded by FakeStore.
const (
	MethodAdd      = "AddOpinion"
	MethodUpvote   = "UpvoteOpinion"
	MethodDownvote = "DownvoteOpinion"
	MethodList     = "Opinions"
	MethodRegister = "Register"
)

// Call is one recorded store call.
type Call struct {
	Method string
	ID     string
	Draft  opinion.Draft
	Signup signup.Input
}

// FakeStore is an in-memory spy store.
type FakeStore struct {
	mu       sync.Mutex
	opinions []opinion.Opinion
	calls    []Call
	gate     chan struct{}
	fail     map[string]error
	nextID   int
}

// NewFakeStore creates a store seeded with ops.
func NewFakeStore(ops ...opinion.Opinion) *FakeStore {
	return &FakeStore{
		opinions: append([]opinion.Opinion(nil), ops...),
		fail:     make(map[string]error),
	}
}

// Hold makes every call that starts from now on block until release is
// called. Calls are recorded before they block.
func (f *FakeStore) Hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// FailWith makes calls to method return err. A nil err clears the failure.
func (f *FakeStore) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

// Calls returns how many times method was called.
func (f *FakeStore) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// AllCalls returns every recorded call in order.
func (f *FakeStore) AllCalls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Votes returns the stored vote count of the opinion with id.
func (f *FakeStore) Votes(id string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range f.opinions {
		if op.ID == id {
			return op.Votes, true
		}
	}
	return 0, false
}

// enter records c and waits on the current gate. It returns the configured
// failure for the method, if any.
func (f *FakeStore) enter(ctx context.Context, c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	gate := f.gate
	err := f.fail[c.Method]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// AddOpinion implements opinion.Store.
func (f *FakeStore) AddOpinion(ctx context.Context, d opinion.Draft) error {
	if err := f.enter(ctx, Call{Method: MethodAdd, Draft: d}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.opinions = append(f.opinions, opinion.Opinion{
		ID:       "fake-" + strconv.Itoa(f.nextID),
		Title:    d.Title,
		Body:     d.Body,
		UserName: d.UserName,
	})
	return nil
}

// UpvoteOpinion implements opinion.Store.
func (f *FakeStore) UpvoteOpinion(ctx context.Context, id string) error {
	if err := f.enter(ctx, Call{Method: MethodUpvote, ID: id}); err != nil {
		return err
	}
	return f.vote(id, +1)
}

// DownvoteOpinion implements opinion.Store.
func (f *FakeStore) DownvoteOpinion(ctx context.Context, id string) error {
	if err := f.enter(ctx, Call{Method: MethodDownvote, ID: id}); err != nil {
		return err
	}
	return f.vote(id, -1)
}

func (f *FakeStore) vote(id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.opinions {
		if f.opinions[i].ID == id {
			f.opinions[i].Votes += delta
			return nil
		}
	}
	return fmt.Errorf("opinion %q not found", id)
}

// Opinions implements opinion.Lister.
func (f *FakeStore) Opinions(ctx context.Context) ([]opinion.Opinion, error) {
	if err := f.enter(ctx, Call{Method: MethodList}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]opinion.Opinion(nil), f.opinions...), nil
}

// Register implements signup.Registrar.
func (f *FakeStore) Register(ctx context.Context, in signup.Input) error {
	return f.enter(ctx, Call{Method: MethodRegister, Signup: in})
}

var (
	_ opinion.Store    = (*FakeStore)(nil)
	_ opinion.Lister   = (*FakeStore)(nil)
	_ signup.Registrar = (*FakeStore)(nil)
)
