// Command opinions runs the opinions server and talks to it.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/opinions/internal/config"
	"github.com/vango-dev/opinions/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configDir string
	remote    string
	logLevel  string
	noColor   bool
	stats     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		errors.PrintError(stderr, err)
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "opinions",
		Short: "Share opinions and vote on them",
		Long: `Opinions is a small voting board.

Run a server with "opinions serve", then share, list and vote from any
terminal. Votes show up immediately and are reconciled with the server
when it answers.

Examples:
  opinions serve
  opinions share --title "Tabs" --body "Tabs are better than spaces" --name ada
  opinions upvote 3f1c...
  opinions watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				errors.DisableColors()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configDir, "config-dir", "C", ".", "Directory containing opinions.json or opinions.yaml")
	cmd.PersistentFlags().StringVarP(&g.remote, "remote", "r", "", "Server URL (default from config)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&g.stats, "stats", false, "Print action counters after the command")

	cmd.AddCommand(
		serveCmd(g),
		listCmd(g),
		shareCmd(g),
		voteCmd(g, "upvote"),
		voteCmd(g, "downvote"),
		signupCmd(g),
		watchCmd(g),
		challengeCmd(g),
		initCmd(g),
		versionCmd(),
	)
	return cmd
}

// load reads the configuration and applies flag overrides.
func (g *globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.configDir)
	if err != nil {
		return nil, err
	}
	if g.remote != "" {
		cfg.Remote = g.remote
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger for cfg, writing to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}
