package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

// Store is the authoritative opinion and account storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// ListOpinions returns every opinion in creation order.
	ListOpinions(ctx context.Context) ([]opinion.Opinion, error)

	// CreateOpinion stores d with zero votes and a new ID.
	CreateOpinion(ctx context.Context, d opinion.Draft) (opinion.Opinion, error)

	// Vote adds delta to the opinion's vote count and returns the result.
	// Returns ErrNotFound for an unknown ID.
	Vote(ctx context.Context, id string, delta int) (opinion.Opinion, error)

	// CreateAccount stores a new account. Returns ErrConflict if the email
	// is already registered.
	CreateAccount(ctx context.Context, in signup.Input) (Account, error)

	// Close releases any resources held by the store.
	Close() error
}

var (
	// ErrNotFound is returned for an unknown opinion ID.
	ErrNotFound = errors.New("store: opinion not found")

	// ErrConflict is returned when an account email is already taken.
	ErrConflict = errors.New("store: email already registered")

	// ErrClosed is returned when operations are attempted on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Account is a registered user.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"passwordHash"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         string    `json:"role"`
	Acquisition  []string  `json:"acquisition"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CheckPassword reports whether password matches the stored hash.
func (a Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) == nil
}

// Option configures a backend.
type Option func(*config)

type config struct {
	bcryptCost int
	newID      func() string
	now        func() time.Time
}

func defaultConfig() config {
	return config{
		bcryptCost: bcrypt.DefaultCost,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithBcryptCost sets the cost passwords are hashed with.
// Default: bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(c *config) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			c.bcryptCost = cost
		}
	}
}

// WithIDGenerator sets the function opinion and account IDs come from.
// Default: random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithClock sets the time source for account creation times.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// NormalizeEmail is the form emails are compared and stored in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c config) newOpinion(d opinion.Draft) opinion.Opinion {
	return opinion.Opinion{
		ID:       c.newID(),
		Title:    strings.TrimSpace(d.Title),
		Body:     strings.TrimSpace(d.Body),
		UserName: strings.TrimSpace(d.UserName),
	}
}

func (c config) newAccount(in signup.Input) (Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), c.bcryptCost)
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:           c.newID(),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
		Acquisition:  append([]string(nil), in.Acquisition...),
		CreatedAt:    c.now().UTC(),
	}, nil
}
