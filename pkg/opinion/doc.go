// Package opinion implements opinion voting and sharing on top of the
// action and optimistic packages.
//
// The remote collaborator is a Store, injected through constructors:
//
//	votes := opinion.NewVoteController(op, store, opinion.WithDispatcher(loop))
//	loop.Dispatch(func() { votes.Upvote() }) // Display() is op.Votes+1 on this turn
//
// Each rendered opinion owns one VoteController with one runner per vote
// direction. A second click in the same direction while the first is still
// pending is dropped outright: no delta, no remote call. Clicks in the other
// direction are independent.
//
// Board keeps a VoteController per opinion in sync with a Lister and with
// pushed Events, and owns the ShareForm used to create new opinions.
package opinion
