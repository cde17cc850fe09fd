// Package form provides validation predicates and the validated
// create-and-repopulate submission flow.
//
// # Validation
//
// Rules pair a predicate with the message shown when it is violated. Check
// runs every rule and collects every violated message; it never stops at the
// first failure, so a user sees all problems at once:
//
//	rules := form.Rules[Draft]{
//	    {Field: "title", Message: "Title must be at least 5 characters long.",
//	        Valid: func(d Draft) bool { return form.HasMinLength(strings.TrimSpace(d.Title), 5) }},
//	    {Field: "userName", Message: "Please provide your name.",
//	        Valid: func(d Draft) bool { return form.IsNotEmpty(d.UserName) }},
//	}
//	errs := rules.Check(draft)
//
// # Submission
//
// Submission runs the rules synchronously before anything leaves the
// process. Invalid input is rejected on the same turn with the entered values
// echoed back, and the remote commit is never attempted. Valid input goes to
// the commit func through an action.Runner, so re-entrancy and pending
// tracking behave like every other action:
//
//	Idle -> Validating -> Rejected
//	                   -> Pending -> Committed
//	                              -> Failed
//
// Rejected and Failed results carry EnteredValues; Committed results do
// not, which is the caller's cue to clear its transient input.
package form
