// Package action runs user-triggered mutations against a remote
// collaborator and tracks their in-flight state.
//
// A Runner wraps one action func. Trigger marks the runner pending on the
// calling turn, runs the func off the event loop, and writes the Result back
// as a single loop turn:
//
//	save := action.NewRunner(func(ctx context.Context, prev action.Result[Draft], d Draft) action.Result[Draft] {
//	    if err := store.AddOpinion(ctx, d); err != nil {
//	        return action.Failure(d, "Could not save opinion, please try again.")
//	    }
//	    return action.Success[Draft]()
//	}, action.WithDispatcher(loop), action.WithName("opinion:add"))
//
//	save.Trigger(draft) // false if a previous save is still pending
//
// Only one invocation is in flight per runner. A Trigger while pending is
// dropped, not queued and not reported as an error; callers that disable a
// button on Pending() get the same effect.
//
// Action funcs must convert remote faults into a Result with Errors. A panic
// escaping the func is treated as a program defect and re-raised.
package action
