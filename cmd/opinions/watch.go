package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/opinions/pkg/opinion"
)

func watchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print opinions as they are shared and voted on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			loop, stop := startLoop()
			defer stop()

			board := opinion.NewBoard(c, c, opinion.WithDispatcher(loop))
			if err := board.Load(ctx); err != nil {
				return remoteError(err)
			}
			info(out, "Watching %d opinions (Ctrl-C to stop)", board.Len())

			err = c.Watch(ctx, func(ev opinion.Event) {
				loop.Dispatch(func() {
					board.Apply(ev)
					switch ev.Type {
					case opinion.EventCreated:
						fmt.Fprintf(out, "%s %s\n", green("+"), ev.Opinion.Title)
					case opinion.EventVoted:
						fmt.Fprintf(out, "%+4d  %s\n", ev.Opinion.Votes, ev.Opinion.Title)
					}
				})
			})
			return remoteError(err)
		},
	}
}
