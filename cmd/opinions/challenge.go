package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/opinions/internal/errors"
	"github.com/vango-dev/opinions/pkg/challenge"
)

func challengeCmd(g *globals) *cobra.Command {
	var (
		title  string
		target time.Duration
	)

	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Stop the timer before it runs out",
		Long: `Start a countdown and press Enter to stop it. The closer to zero you
stop, the higher the score. Let it run out and you lose.

Examples:
  opinions challenge
  opinions challenge --title Hard --target 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target <= 0 {
				return errors.New("E500").WithDetail("--target must be positive")
			}
			res, err := playChallenge(cmd.Context(), title, target, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "Easy", "Challenge name")
	cmd.Flags().DurationVar(&target, "target", time.Second, "Target time")

	return cmd
}

// playChallenge runs one round: the first line read from in stops the
// timer.
func playChallenge(ctx context.Context, title string, target time.Duration, in io.Reader, out io.Writer) (challenge.Result, error) {
	loop, stop := startLoop()
	defer stop()

	var c *challenge.Challenge
	if err := loop.Call(ctx, func() {
		c = challenge.New(title, target, challenge.WithDispatcher(loop))
	}); err != nil {
		return challenge.Result{}, err
	}

	fmt.Fprintf(out, "%s: stop the timer within %s. Press Enter to stop.\n", title, target)

	start := func() {
		c.Start()
		go func() {
			if _, err := bufio.NewReader(in).ReadString('\n'); err == nil || err == io.EOF {
				loop.Dispatch(c.Stop)
			}
		}()
	}
	err := await(ctx, loop, c.Modal().Subscribe, start, c.Modal().IsOpen)
	if err != nil {
		return challenge.Result{}, err
	}

	var res challenge.Result
	err = loop.Call(ctx, func() { res = c.Result() })
	return res, err
}

func printResult(w io.Writer, r challenge.Result) {
	fmt.Fprintln(w, r.Headline())
	if !r.Lost {
		fmt.Fprintf(w, "Your score is %d points!\n", r.Score)
	}
	fmt.Fprintf(w, "The target time was %s.\n", r.Target)
	fmt.Fprintf(w, "You stopped the timer with %s seconds left.\n", r.FormattedRemaining())
}
