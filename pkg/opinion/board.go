package opinion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/opinions/pkg/reactive"
)

// Board is the list of rendered opinions. It owns one VoteController per
// opinion plus the ShareForm, and reconciles them with authoritative data.
//
// Load may be called from any goroutine; Apply and the controllers' vote
// methods run on the event loop.
type Board struct {
	store  Store
	lister Lister
	opts   []Option
	disp   reactive.Dispatcher
	logger *slog.Logger

	share *ShareForm

	// mu protects votes and order.
	mu    sync.RWMutex
	votes map[string]*boardEntry
	order []string

	subs reactive.Subscribers
}

type boardEntry struct {
	votes *VoteController
	stop  func()
}

// NewBoard creates an empty board. Opinions arrive through Load and Apply.
func NewBoard(store Store, lister Lister, opts ...Option) *Board {
	o := buildOptions(opts)
	b := &Board{
		store:  store,
		lister: lister,
		opts:   opts,
		disp:   o.dispatcher,
		logger: o.logger,
		votes:  make(map[string]*boardEntry),
	}
	b.share = NewShareForm(store, opts...)
	b.share.Subscribe(b.subs.Notify)
	return b
}

// Load replaces the board contents with the lister's opinions. Existing
// controllers are kept and get their baselines refreshed, so unconfirmed
// votes survive a reload.
//
// Load waits for a loop turn, so it must not be called from one. It
// returns reactive.ErrLoopStopped if the loop stops first.
func (b *Board) Load(ctx context.Context) error {
	if b.lister == nil {
		return fmt.Errorf("opinion: board has no lister")
	}
	list, err := b.lister.Opinions(ctx)
	if err != nil {
		return fmt.Errorf("load opinions: %w", err)
	}

	// A stopped loop drops the turn; its Done channel ends the wait.
	var stopped <-chan struct{}
	if d, ok := b.disp.(interface{ Done() <-chan struct{} }); ok {
		stopped = d.Done()
	}

	done := make(chan struct{})
	b.disp.Dispatch(func() {
		defer close(done)
		b.sync(list)
	})
	select {
	case <-done:
		return nil
	case <-stopped:
		select {
		case <-done:
			return nil
		default:
		}
		return reactive.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Board) sync(list []Opinion) {
	b.mu.Lock()
	seen := make(map[string]bool, len(list))
	order := make([]string, 0, len(list))
	var refresh []func()
	for _, op := range list {
		if seen[op.ID] {
			continue
		}
		seen[op.ID] = true
		order = append(order, op.ID)
		if e, ok := b.votes[op.ID]; ok {
			votes := op.Votes
			refresh = append(refresh, func() { e.votes.Refresh(votes) })
			continue
		}
		b.votes[op.ID] = b.newEntry(op)
	}
	for id, e := range b.votes {
		if !seen[id] {
			e.stop()
			delete(b.votes, id)
		}
	}
	b.order = order
	b.mu.Unlock()

	// Refresh outside the lock: controllers notify board subscribers.
	for _, fn := range refresh {
		fn()
	}
	b.logger.Debug("board synced", "opinions", len(order))
	b.subs.Notify()
}

func (b *Board) newEntry(op Opinion) *boardEntry {
	vc := NewVoteController(op, b.store, b.opts...)
	return &boardEntry{votes: vc, stop: vc.Subscribe(b.subs.Notify)}
}

// Apply reconciles one pushed event.
func (b *Board) Apply(ev Event) {
	switch ev.Type {
	case EventCreated, EventVoted:
	default:
		b.logger.Debug("board ignoring event", "type", ev.Type)
		return
	}

	b.mu.Lock()
	e, ok := b.votes[ev.Opinion.ID]
	if !ok {
		b.votes[ev.Opinion.ID] = b.newEntry(ev.Opinion)
		b.order = append(b.order, ev.Opinion.ID)
	}
	b.mu.Unlock()

	if ok {
		e.votes.Refresh(ev.Opinion.Votes)
		return
	}
	b.subs.Notify()
}

// Votes returns the controller for the opinion with the given ID.
func (b *Board) Votes(id string) (*VoteController, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.votes[id]
	if !ok {
		return nil, false
	}
	return e.votes, true
}

// Opinions returns the opinions in list order with displayed vote counts.
func (b *Board) Opinions() []Opinion {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Opinion, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.votes[id].votes.Opinion())
	}
	return out
}

// Len returns the number of opinions on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Share returns the new-opinion form.
func (b *Board) Share() *ShareForm {
	return b.share
}

// Subscribe registers fn to run after any change on the board.
func (b *Board) Subscribe(fn func()) (unsubscribe func()) {
	return b.subs.Subscribe(fn)
}
