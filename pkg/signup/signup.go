// Package signup implements the account signup form: seven rules checked
// together, entered values echoed back on rejection.
package signup

import (
	"context"

	"github.com/vango-dev/opinions/pkg/action"
	"github.com/vango-dev/opinions/pkg/features/form"
)

// Input is the raw signup form.
type Input struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirmPassword"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Role            string   `json:"role"`
	Acquisition     []string `json:"acquisition"`
	Terms           bool     `json:"terms"`
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Validation messages.
const (
	MsgInvalidEmail     = "Please enter a valid email address."
	MsgInvalidPassword  = "Please enter a valid password (at least 6 characters)."
	MsgPasswordMismatch = "Passwords do not match."
	MsgNameMissing      = "Please enter your first and last name."
	MsgRoleMissing      = "Please select your role."
	MsgTermsRequired    = "You must agree to the terms and conditions."
	MsgChannelMissing   = "Please let us know how you found us."
)

// FailureMessage is reported when registration fails remotely.
const FailureMessage = "Could not complete signup, please try again."

// Roles lists the selectable roles.
var Roles = []string{"student", "teacher", "employee", "founder", "other"}

// Channels lists the selectable acquisition channels.
var Channels = []string{"google", "friend", "other"}

// Rules are checked in order; every violation is reported.
var Rules = form.Rules[Input]{
	{Field: "email", Message: MsgInvalidEmail, Valid: func(in Input) bool {
		return form.IsEmail(in.Email)
	}},
	{Field: "password", Message: MsgInvalidPassword, Valid: func(in Input) bool {
		return form.IsNotEmpty(in.Password) && form.HasMinLength(in.Password, MinPasswordLength)
	}},
	{Field: "confirmPassword", Message: MsgPasswordMismatch, Valid: func(in Input) bool {
		return form.IsEqualToOtherValue(in.Password, in.ConfirmPassword)
	}},
	{Field: "name", Message: MsgNameMissing, Valid: func(in Input) bool {
		return form.IsNotEmpty(in.FirstName) && form.IsNotEmpty(in.LastName)
	}},
	{Field: "role", Message: MsgRoleMissing, Valid: func(in Input) bool {
		return form.IsNotEmpty(in.Role)
	}},
	{Field: "terms", Message: MsgTermsRequired, Valid: func(in Input) bool {
		return in.Terms
	}},
	{Field: "acquisition", Message: MsgChannelMissing, Valid: func(in Input) bool {
		return len(in.Acquisition) > 0
	}},
}

// Validate returns every rule in violates.
func Validate(in Input) []string {
	return Rules.Check(in)
}

// Registrar creates accounts remotely.
type Registrar interface {
	Register(ctx context.Context, in Input) error
}

// Form is the signup form controller.
type Form struct {
	*form.Submission[Input]
}

// NewForm creates the controller. With a nil Registrar valid input commits
// locally without any remote call.
func NewForm(reg Registrar, opts ...form.SubmissionOption[Input]) *Form {
	var commit form.Commit[Input]
	if reg != nil {
		commit = reg.Register
	}
	opts = append([]form.SubmissionOption[Input]{
		form.WithFailureMessage[Input](FailureMessage),
		form.WithRunnerOptions[Input](action.WithName("signup")),
	}, opts...)
	return &Form{Submission: form.NewSubmission(Validate, commit, opts...)}
}
