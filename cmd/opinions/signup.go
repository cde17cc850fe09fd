package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/vango-dev/opinions/pkg/action"
	"github.com/vango-dev/opinions/pkg/features/form"
	"github.com/vango-dev/opinions/pkg/signup"
)

func signupCmd(g *globals) *cobra.Command {
	var (
		in    signup.Input
		local bool
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account on the server.

Every rule is checked before anything is sent, and all problems are
reported at once.

Examples:
  opinions signup --email ada@example.com --password secret1 --confirm secret1 \
    --first Ada --last Lovelace --role student --channel friend --terms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reg signup.Registrar
				rec *registrarRecorder
			)
			if !local {
				c, err := g.dial(cmd)
				if err != nil {
					return err
				}
				rec = &registrarRecorder{Registrar: c}
				reg = rec
			}

			inst := g.instruments()
			defer inst.report(cmd.OutOrStdout())

			loop, stop := startLoop()
			defer stop()

			f := signup.NewForm(reg, form.WithRunnerOptions[signup.Input](
				action.WithDispatcher(loop),
				action.WithObserver(inst.metrics)))
			if err := submit(cmd.Context(), loop, f.Submission, in); err != nil {
				if rec != nil {
					return submitError(err, rec.Err())
				}
				return err
			}
			success(cmd.OutOrStdout(), "Signed up as %s", in.Email)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Email, "email", "", "Email address")
	flags.StringVar(&in.Password, "password", "", "Password (at least 6 characters)")
	flags.StringVar(&in.ConfirmPassword, "confirm", "", "Password again")
	flags.StringVar(&in.FirstName, "first", "", "First name")
	flags.StringVar(&in.LastName, "last", "", "Last name")
	flags.StringVar(&in.Role, "role", "", "Your role")
	flags.StringSliceVar(&in.Acquisition, "channel", nil, "How you found us (repeatable)")
	flags.BoolVar(&in.Terms, "terms", false, "Agree to the terms and conditions")
	flags.BoolVar(&local, "local", false, "Only validate, do not contact the server")

	return cmd
}

type registrarRecorder struct {
	signup.Registrar

	mu  sync.Mutex
	err error
}

func (r *registrarRecorder) Register(ctx context.Context, in signup.Input) error {
	err := r.Registrar.Register(ctx, in)
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	return err
}

func (r *registrarRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
