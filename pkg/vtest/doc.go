// Package vtest provides test doubles and loop helpers shared by the
// package tests.
//
// # Spy Store
//
// FakeStore implements opinion.Store, opinion.Lister and signup.Registrar,
// counts every call, and can hold calls in flight or fail them:
//
//	store := vtest.NewFakeStore(opinion.Opinion{ID: "1", Votes: 10})
//	release := store.Hold()
//	vtest.OnLoop(t, loop, func() { votes.Upvote() })
//	// votes is pending here; the store has seen exactly one call
//	release()
//
// # Loop Helpers
//
// StartLoop runs a reactive.Loop for the duration of a test. OnLoop runs a
// func as one loop turn and waits for it; Eventually and EventuallyOnLoop
// poll a condition until it holds.
package vtest
