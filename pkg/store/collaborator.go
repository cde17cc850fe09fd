package store

import (
	"context"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

// Collaborator adapts a Store to the interfaces the controllers use.
type Collaborator struct {
	Store Store

	// OnChange, if set, receives the authoritative opinion after every
	// successful create or vote.
	OnChange func(opinion.Event)
}

// AddOpinion implements opinion.Store.
func (c Collaborator) AddOpinion(ctx context.Context, d opinion.Draft) error {
	op, err := c.Store.CreateOpinion(ctx, d)
	if err != nil {
		return err
	}
	c.changed(opinion.EventCreated, op)
	return nil
}

// UpvoteOpinion implements opinion.Store.
func (c Collaborator) UpvoteOpinion(ctx context.Context, id string) error {
	return c.vote(ctx, id, +1)
}

// DownvoteOpinion implements opinion.Store.
func (c Collaborator) DownvoteOpinion(ctx context.Context, id string) error {
	return c.vote(ctx, id, -1)
}

func (c Collaborator) vote(ctx context.Context, id string, delta int) error {
	op, err := c.Store.Vote(ctx, id, delta)
	if err != nil {
		return err
	}
	c.changed(opinion.EventVoted, op)
	return nil
}

func (c Collaborator) changed(t opinion.EventType, op opinion.Opinion) {
	if c.OnChange != nil {
		c.OnChange(opinion.Event{Type: t, Opinion: op})
	}
}

// Opinions implements opinion.Lister.
func (c Collaborator) Opinions(ctx context.Context) ([]opinion.Opinion, error) {
	return c.Store.ListOpinions(ctx)
}

// Register implements signup.Registrar.
func (c Collaborator) Register(ctx context.Context, in signup.Input) error {
	_, err := c.Store.CreateAccount(ctx, in)
	return err
}

var (
	_ opinion.Store    = Collaborator{}
	_ opinion.Lister   = Collaborator{}
	_ signup.Registrar = Collaborator{}
)
