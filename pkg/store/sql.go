package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

// schema is applied on open. Opinions are listed in rowid order, which is
// creation order.
const schema = `
CREATE TABLE IF NOT EXISTS opinions (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	body      TEXT NOT NULL,
	user_name TEXT NOT NULL,
	votes     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash BLOB NOT NULL,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	role          TEXT NOT NULL,
	acquisition   TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);
`

// SQLStore is a SQLite-backed Store.
type SQLStore struct {
	db  *sql.DB
	cfg config

	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens the SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s, err := NewSQLStore(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and applies the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLStore{db: db, cfg: buildConfig(opts)}, nil
}

func (s *SQLStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// ListOpinions returns every opinion in creation order.
func (s *SQLStore) ListOpinions(ctx context.Context) ([]opinion.Opinion, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, user_name, votes FROM opinions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list opinions: %w", err)
	}
	defer rows.Close()

	var out []opinion.Opinion
	for rows.Next() {
		var op opinion.Opinion
		if err := rows.Scan(&op.ID, &op.Title, &op.Body, &op.UserName, &op.Votes); err != nil {
			return nil, fmt.Errorf("scan opinion: %w", err)
		}
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list opinions: %w", err)
	}
	return out, nil
}

// CreateOpinion stores d with zero votes.
func (s *SQLStore) CreateOpinion(ctx context.Context, d opinion.Draft) (opinion.Opinion, error) {
	if err := s.check(ctx); err != nil {
		return opinion.Opinion{}, err
	}
	op := s.cfg.newOpinion(d)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO opinions (id, title, body, user_name, votes) VALUES (?, ?, ?, ?, 0)`,
		op.ID, op.Title, op.Body, op.UserName)
	if err != nil {
		return opinion.Opinion{}, fmt.Errorf("insert opinion: %w", err)
	}
	return op, nil
}

// Vote adds delta to the opinion's vote count.
func (s *SQLStore) Vote(ctx context.Context, id string, delta int) (opinion.Opinion, error) {
	if err := s.check(ctx); err != nil {
		return opinion.Opinion{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return opinion.Opinion{}, fmt.Errorf("begin vote: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE opinions SET votes = votes + ? WHERE id = ?`, delta, id)
	if err != nil {
		return opinion.Opinion{}, fmt.Errorf("update votes: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return opinion.Opinion{}, fmt.Errorf("update votes: %w", err)
	} else if n == 0 {
		return opinion.Opinion{}, ErrNotFound
	}

	var op opinion.Opinion
	err = tx.QueryRowContext(ctx,
		`SELECT id, title, body, user_name, votes FROM opinions WHERE id = ?`, id,
	).Scan(&op.ID, &op.Title, &op.Body, &op.UserName, &op.Votes)
	if err != nil {
		return opinion.Opinion{}, fmt.Errorf("read opinion: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return opinion.Opinion{}, fmt.Errorf("commit vote: %w", err)
	}
	return op, nil
}

// CreateAccount stores a new account with a hashed password.
func (s *SQLStore) CreateAccount(ctx context.Context, in signup.Input) (Account, error) {
	if err := s.check(ctx); err != nil {
		return Account{}, err
	}
	acct, err := s.cfg.newAccount(in)
	if err != nil {
		return Account{}, err
	}
	acquisition, err := json.Marshal(acct.Acquisition)
	if err != nil {
		return Account{}, fmt.Errorf("encode acquisition: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, first_name, last_name, role, acquisition, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Email, acct.PasswordHash, acct.FirstName, acct.LastName,
		acct.Role, string(acquisition), acct.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrConflict
		}
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return acct, nil
}

// Account returns the account registered under email.
func (s *SQLStore) Account(ctx context.Context, email string) (Account, bool, error) {
	if err := s.check(ctx); err != nil {
		return Account{}, false, err
	}
	var (
		acct        Account
		acquisition string
		createdAt   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, first_name, last_name, role, acquisition, created_at
		 FROM accounts WHERE email = ?`, NormalizeEmail(email),
	).Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.FirstName, &acct.LastName,
		&acct.Role, &acquisition, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, fmt.Errorf("read account: %w", err)
	}
	if err := json.Unmarshal([]byte(acquisition), &acct.Acquisition); err != nil {
		return Account{}, false, fmt.Errorf("decode acquisition: %w", err)
	}
	acct.CreatedAt = time.UnixMilli(createdAt).UTC()
	return acct, true, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLStore)(nil)
