package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/pitwall/pkg/logger"
)

func newRootCommand() *cobra.Command {
	var (
		rosterFlag  string
		serverFlag  string
		verboseFlag bool
	)

	ctx := newCommandContext(&rosterFlag, &serverFlag)

	rootCmd := &cobra.Command{
		Use:           "pitwallctl",
		Short:         "Reconcile race results, predictions and driver portraits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitWriter(cmd.ErrOrStderr(), "text"); err != nil {
				return err
			}
			level := "warn"
			if verboseFlag {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&rosterFlag, "roster", "", "Roster YAML file (default: embedded roster)")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", defaultServerURL, "Base URL of a running pitwall server")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newNormalizeCommand(ctx))
	rootCmd.AddCommand(newPortraitCommand(ctx))
	rootCmd.AddCommand(newRosterCommand(ctx))
	rootCmd.AddCommand(newFeedCommand(ctx))
	rootCmd.AddCommand(newRefreshCommand(ctx))

	return rootCmd
}
