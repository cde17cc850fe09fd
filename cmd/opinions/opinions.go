package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/vango-dev/opinions/internal/errors"
	"github.com/vango-dev/opinions/pkg/features/form"
	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/reactive"
)

func listCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shared opinions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			list, err := c.ListOpinions(cmd.Context())
			if err != nil {
				return remoteError(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				info(out, "No opinions yet. Share one with \"opinions share\".")
				return nil
			}
			for _, op := range list {
				printOpinion(out, op)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func printOpinion(w io.Writer, op opinion.Opinion) {
	fmt.Fprintf(w, "%+4d  %s  %s\n", op.Votes, op.Title, faint("by "+op.UserName))
	fmt.Fprintf(w, "      %s\n", op.Body)
	fmt.Fprintf(w, "      %s\n", faint(op.ID))
}

func shareCmd(g *globals) *cobra.Command {
	var d opinion.Draft

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share a new opinion",
		Long: `Share a new opinion.

The title needs at least 5 characters, the body at least 10, and a name
is required. Nothing is sent until all three are valid.

Examples:
  opinions share --title "Tabs" --body "Tabs are better than spaces" --name ada`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			rec := &recorder{Store: c}
			inst := g.instruments()
			defer inst.report(cmd.OutOrStdout())

			loop, stop := startLoop()
			defer stop()

			share := opinion.NewShareForm(inst.store(rec),
				opinion.WithDispatcher(loop),
				opinion.WithObserver(inst.metrics))
			if err := submit(cmd.Context(), loop, share.Submission, d); err != nil {
				return submitError(err, rec.Err())
			}
			success(cmd.OutOrStdout(), "Shared %q", strings.TrimSpace(d.Title))
			return nil
		},
	}

	cmd.Flags().StringVarP(&d.Title, "title", "t", "", "Opinion title")
	cmd.Flags().StringVarP(&d.Body, "body", "b", "", "Opinion body")
	cmd.Flags().StringVarP(&d.UserName, "name", "n", "", "Your name")

	return cmd
}

func voteCmd(g *globals, use string) *cobra.Command {
	dir := opinion.Up
	if use == "downvote" {
		dir = opinion.Down
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: "Vote an opinion " + dir.String(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			rec := &recorder{Store: c}
			inst := g.instruments()
			defer inst.report(cmd.OutOrStdout())
			ctx := cmd.Context()

			loop, stop := startLoop()
			defer stop()

			board := opinion.NewBoard(inst.store(rec), c,
				opinion.WithDispatcher(loop),
				opinion.WithObserver(inst.metrics))
			if err := board.Load(ctx); err != nil {
				return remoteError(err)
			}
			vc, ok := board.Votes(args[0])
			if !ok {
				return errors.New("E201").WithDetail("No opinion has ID " + args[0] + ".")
			}

			var (
				clicked, accepted bool
				shown             int
				failed            []string
			)
			err = await(ctx, loop, vc.Subscribe,
				func() {
					if dir == opinion.Up {
						accepted = vc.Upvote()
					} else {
						accepted = vc.Downvote()
					}
					clicked = true
					shown = vc.Display()
				},
				func() bool {
					// Notifications raised inside the click come first.
					if !clicked {
						return false
					}
					if !accepted {
						return true
					}
					if vc.Pending(dir) {
						return false
					}
					if res, ok := vc.Last(dir); ok && !res.OK() {
						failed = res.Errors
					}
					return true
				})
			if err != nil {
				return err
			}
			if !accepted {
				return errors.New("E301").WithDetail("A " + dir.String() + "vote for this opinion is already in flight.")
			}
			if len(failed) > 0 {
				return submitError(errors.New("E301").WithMessages(failed...), rec.Err())
			}

			var op opinion.Opinion
			if err := loop.Call(ctx, func() { op = vc.Opinion() }); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%svoted %q: %d votes (showed %d right away)", dir.String(), op.Title, op.Votes, shown)
			return nil
		},
	}
}

// submit runs one form submission on loop and waits for it to settle.
// A rejected or failed submission is returned as an *errors.Error.
func submit[T any](ctx context.Context, loop *reactive.Loop, s *form.Submission[T], v T) error {
	var (
		phase form.Phase
		msgs  []string
	)
	finished := func() bool {
		phase = s.Phase()
		if s.Pending() {
			return false
		}
		switch phase {
		case form.PhaseRejected, form.PhaseCommitted, form.PhaseFailed:
			msgs = s.Errors()
			return true
		}
		return false
	}
	err := await(ctx, loop, s.Subscribe, func() { s.Submit(v) }, finished)
	if err != nil {
		return err
	}
	switch phase {
	case form.PhaseRejected:
		return errors.New("E400").WithMessages(msgs...)
	case form.PhaseFailed:
		return errors.New("E301").WithMessages(msgs...)
	}
	return nil
}

// submitError attaches the store's own error, if any, as the cause.
func submitError(err, cause error) error {
	var e *errors.Error
	if cause == nil || !asError(err, &e) || e.Wrapped != nil {
		return err
	}
	if re := remoteError(cause); re != nil {
		e.Wrap(re)
	}
	return e
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}

// recorder remembers the last error its Store returned, so commands can
// show why a remote call failed next to the form's own message.
type recorder struct {
	opinion.Store

	mu  sync.Mutex
	err error
}

func (r *recorder) record(err error) error {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	return err
}

// Err returns the last error.
func (r *recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *recorder) AddOpinion(ctx context.Context, d opinion.Draft) error {
	return r.record(r.Store.AddOpinion(ctx, d))
}

func (r *recorder) UpvoteOpinion(ctx context.Context, id string) error {
	return r.record(r.Store.UpvoteOpinion(ctx, id))
}

func (r *recorder) DownvoteOpinion(ctx context.Context, id string) error {
	return r.record(r.Store.DownvoteOpinion(ctx, id))
}
