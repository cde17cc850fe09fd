// Package optimistic provides instant local feedback for mutations that
// a remote collaborator has not confirmed yet.
//
// A Projector holds the last value the collaborator acknowledged (the
// baseline) and an ordered list of speculative mutations. The value shown to
// the user is the baseline folded with every pending mutation:
//
//	votes := optimistic.New(10, func(v, delta int) int { return v + delta })
//
//	h := votes.Apply(+1) // Display() == 11 on this turn
//	// ... remote call ...
//	votes.Settle(h)      // Display() == 10 until the next baseline arrives
//
// # Settling
//
// Every mutation is removed exactly once, when the action that produced it
// settles, whether it succeeded or failed:
//
//   - Settle drops the mutation and keeps the baseline.
//   - SettleWith drops the mutation and replaces the baseline with an
//     authoritative value.
//   - Commit folds the mutation into the baseline, trusting that the
//     collaborator applied it.
//
// A failed remote call is never rolled back visually; dropping the delta and
// waiting for the next authoritative baseline is the whole reconciliation.
//
// # Ordering
//
// Pending mutations are folded in Apply order. Settlement order is free,
// which is only correct when mutations commute (as integer deltas do). A
// mutation such as "set to exact value" does not commute and would need a
// stricter pipeline than this one.
package optimistic
