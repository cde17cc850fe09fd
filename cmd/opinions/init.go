package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/opinions/internal/config"
	"github.com/vango-dev/opinions/internal/errors"
)

func initCmd(g *globals) *cobra.Command {
	var (
		asYAML bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := config.ConfigFileName
			if asYAML {
				name = config.YAMLFileName
			}
			path := filepath.Join(g.configDir, name)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("E500").
					WithDetail(path + " already exists").
					WithSuggestion("Use --force to overwrite it")
			}

			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Write opinions.yaml instead of opinions.json")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
