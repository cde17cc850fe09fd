package opinion

import (
	"context"
	"log/slog"

	"github.com/vango-dev/opinions/pkg/action"
	"github.com/vango-dev/opinions/pkg/features/optimistic"
)

// VoteFailureMessage is reported when the store rejects a vote.
const VoteFailureMessage = "Could not register your vote, please try again."

// Direction is a vote direction.
type Direction int

const (
	Up Direction = iota
	Down
)

// Delta returns the vote count change for the direction.
func (d Direction) Delta() int {
	if d == Up {
		return +1
	}
	return -1
}

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

type voteInput = struct{}

// VoteController drives the vote buttons of one opinion.
// Upvote and Downvote must be called on the event loop.
type VoteController struct {
	op       Opinion
	store    Store
	logger   *slog.Logger
	observer action.Observer

	votes *optimistic.Projector[int, int]
	up    *action.Runner[voteInput]
	down  *action.Runner[voteInput]
}

// NewVoteController creates the controller for op using op.Votes as the
// initial baseline.
func NewVoteController(op Opinion, store Store, opts ...Option) *VoteController {
	o := buildOptions(opts)
	c := &VoteController{
		op:       op,
		store:    store,
		logger:   o.logger.With("opinion", op.ID),
		observer: o.observer,
		votes: optimistic.New(op.Votes, func(v, delta int) int {
			return v + delta
		}),
	}
	c.up = action.NewRunner(c.remote(Up), o.runnerOptions("opinion:upvote")...)
	c.down = action.NewRunner(c.remote(Down), o.runnerOptions("opinion:downvote")...)
	return c
}

func (c *VoteController) remote(dir Direction) action.Func[voteInput] {
	return func(ctx context.Context, _ action.Result[voteInput], _ voteInput) action.Result[voteInput] {
		var err error
		if dir == Up {
			err = c.store.UpvoteOpinion(ctx, c.op.ID)
		} else {
			err = c.store.DownvoteOpinion(ctx, c.op.ID)
		}
		if err != nil {
			return action.Fail[voteInput](VoteFailureMessage)
		}
		return action.Success[voteInput]()
	}
}

// Upvote applies +1 immediately and sends the upvote.
// Returns false if an upvote is still pending.
func (c *VoteController) Upvote() bool {
	return c.vote(Up)
}

// Downvote applies -1 immediately and sends the downvote.
// Returns false if a downvote is still pending.
func (c *VoteController) Downvote() bool {
	return c.vote(Down)
}

func (c *VoteController) vote(dir Direction) bool {
	r := c.runner(dir)
	if r.Pending() {
		// The click is dropped before any delta is applied: one click, at
		// most one vote, however the projector would have folded it.
		c.logger.Debug("vote dropped while pending", "direction", dir.String())
		if c.observer != nil {
			c.observer.ActionDropped(r.Name())
		}
		return false
	}

	// The delta is applied after pending rises, so no subscriber sees the
	// optimistic count next to an idle button.
	epoch := c.votes.Epoch()
	var h optimistic.Handle
	apply := func() { h = c.votes.Apply(dir.Delta()) }
	ok := r.TriggerWith(voteInput{}, apply, func(res action.Result[voteInput]) {
		switch {
		case res.OK() && c.votes.Epoch() == epoch:
			// Nothing authoritative arrived meanwhile; trust the commit.
			c.votes.Commit(h)
		case res.OK():
			// A newer baseline already reflects the store.
			c.votes.Settle(h)
		default:
			c.logger.Debug("vote failed, dropping optimistic delta", "direction", dir.String())
			c.votes.Settle(h)
		}
	})
	return ok
}

func (c *VoteController) runner(dir Direction) *action.Runner[voteInput] {
	if dir == Up {
		return c.up
	}
	return c.down
}

// Refresh replaces the baseline with an authoritative vote count.
func (c *VoteController) Refresh(votes int) {
	c.votes.SetBaseline(votes)
}

// ID returns the opinion's ID.
func (c *VoteController) ID() string {
	return c.op.ID
}

// Display returns the vote count to show, including unconfirmed votes.
func (c *VoteController) Display() int {
	return c.votes.Display()
}

// Baseline returns the last acknowledged vote count.
func (c *VoteController) Baseline() int {
	return c.votes.Baseline()
}

// Opinion returns a snapshot of the opinion with the displayed vote count.
func (c *VoteController) Opinion() Opinion {
	op := c.op
	op.Votes = c.Display()
	return op
}

// UpPending reports whether an upvote is in flight.
func (c *VoteController) UpPending() bool { return c.up.Pending() }

// DownPending reports whether a downvote is in flight.
func (c *VoteController) DownPending() bool { return c.down.Pending() }

// Pending reports whether a vote in dir is in flight.
func (c *VoteController) Pending(dir Direction) bool {
	return c.runner(dir).Pending()
}

// Last returns the latest result of the vote in dir.
func (c *VoteController) Last(dir Direction) (action.Result[struct{}], bool) {
	return c.runner(dir).Last()
}

// Subscribe registers fn to run after any change to the displayed count or
// either button's pending state.
func (c *VoteController) Subscribe(fn func()) (unsubscribe func()) {
	stops := []func(){
		c.votes.Subscribe(fn),
		c.up.Subscribe(fn),
		c.down.Subscribe(fn),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
