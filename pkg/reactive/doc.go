// Package reactive provides the small reactive core the controllers are
// built on: change notification, value signals, and the event loop.
//
// # Event Loop
//
// All controller state is mutated on a single logical thread. A Loop runs
// turns (plain funcs) one at a time on one goroutine. Work that blocks, such
// as a call to a remote store, runs on its own goroutine and posts its result
// back as a new turn with Dispatch:
//
//	loop := reactive.NewLoop()
//	go loop.Run(ctx)
//
//	loop.Dispatch(func() {
//	    votes.Upvote() // the displayed count changes on this turn
//	})
//
// # Signals
//
// A Signal holds a value and notifies subscribers when it changes. The
// presentation layer subscribes and re-reads on notification; nothing in this
// package knows how rendering happens.
//
//	open := reactive.NewSignal(false)
//	stop := open.Subscribe(func() { redraw() })
//	defer stop()
//	open.Set(true)
package reactive
