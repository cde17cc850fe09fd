package opinion

import (
	"context"
	"strings"

	"github.com/vango-dev/opinions/pkg/features/form"
)

// ShareFailureMessage is reported when the store rejects a new opinion.
const ShareFailureMessage = "Could not save opinion, please try again."

// Validation messages for drafts.
const (
	MsgTitleTooShort = "Title must be at least 5 characters long."
	MsgBodyTooShort  = "Opinion body must be at least 10 characters long."
	MsgNameMissing   = "Please provide your name."
)

// DraftRules are the rules a Draft must pass before it is sent.
var DraftRules = form.Rules[Draft]{
	{
		Field:   "title",
		Message: MsgTitleTooShort,
		Valid:   func(d Draft) bool { return form.HasMinLength(strings.TrimSpace(d.Title), 5) },
	},
	{
		Field:   "body",
		Message: MsgBodyTooShort,
		Valid:   func(d Draft) bool { return form.HasMinLength(strings.TrimSpace(d.Body), 10) },
	},
	{
		Field:   "userName",
		Message: MsgNameMissing,
		Valid:   func(d Draft) bool { return form.IsNotEmpty(d.UserName) },
	},
}

// ValidateDraft returns every rule d violates.
func ValidateDraft(d Draft) []string {
	return DraftRules.Check(d)
}

// ShareForm is the new-opinion form controller.
type ShareForm struct {
	*form.Submission[Draft]
}

// NewShareForm creates the form controller; valid drafts go to
// store.AddOpinion.
func NewShareForm(store Store, opts ...Option) *ShareForm {
	o := buildOptions(opts)

	subOpts := []form.SubmissionOption[Draft]{
		form.WithFailureMessage[Draft](ShareFailureMessage),
		form.WithSubmissionLogger[Draft](o.logger),
		form.WithRunnerOptions[Draft](o.runnerOptions("opinion:share")...),
	}
	if o.onShared != nil {
		subOpts = append(subOpts, form.OnCommitted(o.onShared))
	}

	commit := func(ctx context.Context, d Draft) error {
		return store.AddOpinion(ctx, d)
	}
	return &ShareForm{
		Submission: form.NewSubmission(ValidateDraft, commit, subOpts...),
	}
}
