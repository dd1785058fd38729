package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the gibberish command tree.
func NewRootCmd() *cobra.Command {
	defaults := DefaultConfig()
	var configFile, envFile string

	cmd := &cobra.Command{
		Use:   "gibberish",
		Short: "Learn token transitions from text and print plausible gibberish",
		Long: `gibberish reads text from standard input, counts which token follows which,
and walks the resulting chain to print text that resembles the input.`,
		Args: func(c *cobra.Command, args []string) error {
			if err := cobra.NoArgs(c, args); err != nil {
				return usageError(c, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := Load(LoadOptions{
				Flags:      c.Flags(),
				ConfigFile: configFile,
				EnvFile:    envFile,
				Defaults:   defaults,
			})
			if err != nil {
				return usageError(c, err)
			}
			s, err := cfg.parse()
			if err != nil {
				return usageError(c, err)
			}

			logger := newLogger(c.ErrOrStderr(), s.level)
			return run(c.Context(), cfg, s, c.InOrStdin(), c.OutOrStdout(), logger)
		},
	}

	RegisterFlags(cmd.Flags(), defaults)
	cmd.Flags().StringVar(&configFile, "config", "", "Config file (default: ./gibberish.{yaml,json,toml} if present)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file to load before reading GIBBERISH_* variables (default: ./.env if present)")
	cmd.SetFlagErrorFunc(usageError)

	cmd.AddCommand(newConfigCmd(), newVersionCmd())
	return cmd
}

// usageError attaches the command's usage text to err.
func usageError(c *cobra.Command, err error) error {
	return fmt.Errorf("%w\n\n%s", err, strings.TrimRight(c.UsageString(), "\n"))
}
