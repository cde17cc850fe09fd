package optimistic

import (
	"sync"

	"github.com/vango-dev/opinions/pkg/reactive"
)

// Handle identifies one applied mutation.
type Handle uint64

// Reducer applies one mutation to a value.
type Reducer[V, M any] func(value V, mutation M) V

type pendingMutation[M any] struct {
	handle   Handle
	mutation M
}

// Projector folds speculative mutations over a committed baseline.
// It is safe for concurrent use.
type Projector[V, M any] struct {
	reduce Reducer[V, M]

	// mu protects the fields below.
	mu       sync.RWMutex
	baseline V
	pending  []pendingMutation[M]
	next     Handle
	epoch    uint64

	subs reactive.Subscribers
}

// New creates a projector with the given baseline and reducer.
func New[V, M any](baseline V, reduce Reducer[V, M]) *Projector[V, M] {
	if reduce == nil {
		panic("optimistic: New called with nil reducer")
	}
	return &Projector[V, M]{
		reduce:   reduce,
		baseline: baseline,
	}
}

// Apply appends m to the pending mutations and returns its handle.
// Display reflects m immediately.
func (p *Projector[V, M]) Apply(m M) Handle {
	p.mu.Lock()
	p.next++
	h := p.next
	p.pending = append(p.pending, pendingMutation[M]{handle: h, mutation: m})
	p.mu.Unlock()

	p.subs.Notify()
	return h
}

// Settle removes the mutation identified by h. Settling an unknown or
// already settled handle is a no-op.
func (p *Projector[V, M]) Settle(h Handle) {
	p.mu.Lock()
	_, ok := p.removeLocked(h)
	p.mu.Unlock()

	if ok {
		p.subs.Notify()
	}
}

// SettleWith removes the mutation identified by h and replaces the baseline
// with an authoritative value. The baseline is replaced even if h was
// already settled.
func (p *Projector[V, M]) SettleWith(h Handle, baseline V) {
	p.mu.Lock()
	p.removeLocked(h)
	p.baseline = baseline
	p.epoch++
	p.mu.Unlock()

	p.subs.Notify()
}

// Commit folds the mutation identified by h into the baseline and removes
// it from the pending list. Unknown handles are ignored.
func (p *Projector[V, M]) Commit(h Handle) {
	p.mu.Lock()
	m, ok := p.removeLocked(h)
	if ok {
		p.baseline = p.reduce(p.baseline, m)
	}
	p.mu.Unlock()

	if ok {
		p.subs.Notify()
	}
}

// SetBaseline replaces the baseline with an authoritative value. Pending
// mutations stay pending.
func (p *Projector[V, M]) SetBaseline(v V) {
	p.mu.Lock()
	p.baseline = v
	p.epoch++
	p.mu.Unlock()

	p.subs.Notify()
}

// Display returns the baseline folded with every pending mutation in Apply
// order. It is recomputed on every call.
func (p *Projector[V, M]) Display() V {
	p.mu.RLock()
	defer p.mu.RUnlock()

	v := p.baseline
	for _, pm := range p.pending {
		v = p.reduce(v, pm.mutation)
	}
	return v
}

// Baseline returns the last acknowledged value.
func (p *Projector[V, M]) Baseline() V {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.baseline
}

// Pending returns the number of unsettled mutations.
func (p *Projector[V, M]) Pending() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pending)
}

// Epoch counts authoritative baseline replacements (SetBaseline and
// SettleWith). Commit does not advance it.
func (p *Projector[V, M]) Epoch() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.epoch
}

// Subscribe registers fn to run after every change to the displayed value's
// inputs.
func (p *Projector[V, M]) Subscribe(fn func()) (unsubscribe func()) {
	return p.subs.Subscribe(fn)
}

func (p *Projector[V, M]) removeLocked(h Handle) (M, bool) {
	for i, pm := range p.pending {
		if pm.handle == h {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return pm.mutation, true
		}
	}
	var zero M
	return zero, false
}
