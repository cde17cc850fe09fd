package store

import (
	"context"
	"sort"
	"sync"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

// MemoryStore is an in-memory Store.
// It's the default backend and suitable for single-server deployments.
type MemoryStore struct {
	cfg config

	mu       sync.RWMutex
	opinions []opinion.Opinion
	index    map[string]int
	accounts map[string]Account
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		cfg:      buildConfig(opts),
		index:    make(map[string]int),
		accounts: make(map[string]Account),
	}
}

// Seed adds opinions as they are, keeping their IDs and vote counts.
// Opinions whose ID already exists are replaced.
func (m *MemoryStore) Seed(ops ...opinion.Opinion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		if i, ok := m.index[op.ID]; ok {
			m.opinions[i] = op
			continue
		}
		m.index[op.ID] = len(m.opinions)
		m.opinions = append(m.opinions, op)
	}
}

// ListOpinions returns every opinion in creation order.
func (m *MemoryStore) ListOpinions(ctx context.Context) ([]opinion.Opinion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	return append([]opinion.Opinion(nil), m.opinions...), nil
}

// CreateOpinion stores d with zero votes.
func (m *MemoryStore) CreateOpinion(ctx context.Context, d opinion.Draft) (opinion.Opinion, error) {
	if err := ctx.Err(); err != nil {
		return opinion.Opinion{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return opinion.Opinion{}, ErrClosed
	}
	op := m.cfg.newOpinion(d)
	m.index[op.ID] = len(m.opinions)
	m.opinions = append(m.opinions, op)
	return op, nil
}

// Vote adds delta to the opinion's vote count.
func (m *MemoryStore) Vote(ctx context.Context, id string, delta int) (opinion.Opinion, error) {
	if err := ctx.Err(); err != nil {
		return opinion.Opinion{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return opinion.Opinion{}, ErrClosed
	}
	i, ok := m.index[id]
	if !ok {
		return opinion.Opinion{}, ErrNotFound
	}
	m.opinions[i].Votes += delta
	return m.opinions[i], nil
}

// CreateAccount stores a new account with a hashed password.
func (m *MemoryStore) CreateAccount(ctx context.Context, in signup.Input) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	// Hash outside the lock; bcrypt is slow on purpose.
	acct, err := m.cfg.newAccount(in)
	if err != nil {
		return Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Account{}, ErrClosed
	}
	if _, taken := m.accounts[acct.Email]; taken {
		return Account{}, ErrConflict
	}
	m.accounts[acct.Email] = acct
	return acct, nil
}

// Account returns the account registered under email.
func (m *MemoryStore) Account(email string) (Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[NormalizeEmail(email)]
	return acct, ok
}

// snapshot returns a copy of the full state.
func (m *MemoryStore) snapshot() snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := snapshot{
		Opinions: append([]opinion.Opinion(nil), m.opinions...),
		Accounts: make([]Account, 0, len(m.accounts)),
	}
	for _, acct := range m.accounts {
		snap.Accounts = append(snap.Accounts, acct)
	}
	sort.Slice(snap.Accounts, func(i, j int) bool {
		return snap.Accounts[i].Email < snap.Accounts[j].Email
	})
	return snap
}

// restore replaces the full state with snap.
func (m *MemoryStore) restore(snap snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opinions = append([]opinion.Opinion(nil), snap.Opinions...)
	m.index = make(map[string]int, len(snap.Opinions))
	for i, op := range m.opinions {
		m.index[op.ID] = i
	}
	m.accounts = make(map[string]Account, len(snap.Accounts))
	for _, acct := range snap.Accounts {
		m.accounts[acct.Email] = acct
	}
}

// Close marks the store as closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
