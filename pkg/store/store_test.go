package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func testOptions() []Option {
	return []Option{sequentialIDs(), WithBcryptCost(bcrypt.MinCost)}
}

func validSignup() signup.Input {
	return signup.Input{
		Email:           " Ada@Example.com ",
		Password:        "abc123",
		ConfirmPassword: "abc123",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Role:            "founder",
		Acquisition:     []string{"google", "friend"},
		Terms:           true,
	}
}

// backends returns a constructor per backend so each subtest starts empty.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore(testOptions()...)
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), ":memory:", testOptions()...)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"s3": func(t *testing.T) Store {
			s, err := OpenS3(context.Background(), newFakeS3(), "bucket", "opinions.json", testOptions()...)
			if err != nil {
				t.Fatalf("OpenS3: %v", err)
			}
			return s
		},
	}
}

func TestStoreOpinions(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			a, err := s.CreateOpinion(ctx, opinion.Draft{Title: " Tabs ", Body: "Tabs are better.", UserName: "ada"})
			if err != nil {
				t.Fatalf("CreateOpinion: %v", err)
			}
			if _, err := s.CreateOpinion(ctx, opinion.Draft{Title: "Spaces", Body: "Spaces are better.", UserName: "bob"}); err != nil {
				t.Fatalf("CreateOpinion: %v", err)
			}
			if a.Title != "Tabs" || a.Votes != 0 || a.ID == "" {
				t.Errorf("created = %+v", a)
			}

			if _, err := s.Vote(ctx, a.ID, +1); err != nil {
				t.Fatalf("Vote: %v", err)
			}
			got, err := s.Vote(ctx, a.ID, +1)
			if err != nil {
				t.Fatalf("Vote: %v", err)
			}
			if got.Votes != 2 {
				t.Errorf("votes = %d, want 2", got.Votes)
			}

			list, err := s.ListOpinions(ctx)
			if err != nil {
				t.Fatalf("ListOpinions: %v", err)
			}
			want := []opinion.Opinion{
				{ID: "id-1", Title: "Tabs", Body: "Tabs are better.", UserName: "ada", Votes: 2},
				{ID: "id-2", Title: "Spaces", Body: "Spaces are better.", UserName: "bob"},
			}
			if diff := cmp.Diff(want, list); diff != "" {
				t.Errorf("list mismatch (-want +got):\n%s", diff)
			}

			if _, err := s.Vote(ctx, "missing", -1); !errors.Is(err, ErrNotFound) {
				t.Errorf("Vote on unknown ID: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreAccounts(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			acct, err := s.CreateAccount(ctx, validSignup())
			if err != nil {
				t.Fatalf("CreateAccount: %v", err)
			}
			if acct.Email != "ada@example.com" {
				t.Errorf("email = %q, want normalized", acct.Email)
			}
			if string(acct.PasswordHash) == "abc123" {
				t.Error("password stored in clear text")
			}
			if !acct.CheckPassword("abc123") || acct.CheckPassword("abc124") {
				t.Error("CheckPassword mismatch")
			}

			dup := validSignup()
			dup.Email = "ADA@example.com"
			if _, err := s.CreateAccount(ctx, dup); !errors.Is(err, ErrConflict) {
				t.Errorf("duplicate email: err = %v, want ErrConflict", err)
			}
		})
	}
}

func TestStoreClosed(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if _, err := s.ListOpinions(context.Background()); !errors.Is(err, ErrClosed) {
				t.Errorf("ListOpinions after Close: err = %v, want ErrClosed", err)
			}
		})
	}
}

func TestStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	if _, err := s.CreateOpinion(ctx, opinion.Draft{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSQLStoreAccountLookup(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:", testOptions()...)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if _, err := s.CreateAccount(ctx, validSignup()); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	acct, ok, err := s.Account(ctx, "ada@EXAMPLE.com")
	if err != nil || !ok {
		t.Fatalf("Account: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"google", "friend"}, acct.Acquisition); diff != "" {
		t.Errorf("acquisition mismatch (-want +got):\n%s", diff)
	}
	if _, ok, _ := s.Account(ctx, "nobody@example.com"); ok {
		t.Error("unknown email should not be found")
	}
}

func TestMemoryStoreSeed(t *testing.T) {
	s := NewMemoryStore()
	s.Seed(opinion.Opinion{ID: "x", Votes: 10}, opinion.Opinion{ID: "y"})
	s.Seed(opinion.Opinion{ID: "x", Votes: 11})

	list, _ := s.ListOpinions(context.Background())
	want := []opinion.Opinion{{ID: "x", Votes: 11}, {ID: "y"}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("seed mismatch (-want +got):\n%s", diff)
	}
}

func TestCollaborator(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore(testOptions()...)
	var events []opinion.Event
	c := Collaborator{Store: mem, OnChange: func(ev opinion.Event) { events = append(events, ev) }}

	if err := c.AddOpinion(ctx, opinion.Draft{Title: "Tabs!", Body: "Tabs are better.", UserName: "ada"}); err != nil {
		t.Fatalf("AddOpinion: %v", err)
	}
	if err := c.UpvoteOpinion(ctx, "id-1"); err != nil {
		t.Fatalf("UpvoteOpinion: %v", err)
	}
	if err := c.DownvoteOpinion(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DownvoteOpinion: err = %v, want ErrNotFound", err)
	}
	if err := c.Register(ctx, validSignup()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if len(events) != 2 || events[0].Type != opinion.EventCreated || events[1].Type != opinion.EventVoted {
		t.Fatalf("events = %+v", events)
	}
	if events[1].Opinion.Votes != 1 {
		t.Errorf("voted event votes = %d, want 1", events[1].Opinion.Votes)
	}
	list, _ := c.Opinions(ctx)
	if len(list) != 1 {
		t.Errorf("Opinions = %d, want 1", len(list))
	}
}
