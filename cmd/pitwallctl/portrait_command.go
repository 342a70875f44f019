package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/pitwall/internal/config"
	"github.com/okian/pitwall/internal/domain/portrait"
)

func newPortraitCommand(ctx *commandContext) *cobra.Command {
	var (
		failures     int
		staticPrefix string
		remoteBase   string
		jsonOutput   bool
	)

	defaults := config.New()

	cmd := &cobra.Command{
		Use:   "portrait ID",
		Short: "Show the portrait cascade of a driver",
		Long: `Show the candidate URLs tried for a driver portrait. --fail N reports the
first N handed-out URLs as failed, the way a client that cannot load them
would, and prints where the cascade ends up.

Examples:
  pitwallctl portrait VER
  pitwallctl portrait PER --fail 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.ensureRoster()
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}
			if failures < 0 {
				return fmt.Errorf("--fail must not be negative")
			}

			res := portrait.New(
				portrait.WithStaticPrefix(staticPrefix),
				portrait.WithRemoteBase(remoteBase),
				portrait.WithCurrentGrid(r.CurrentGrid()),
				portrait.WithCacheBusting(false),
			)
			id := args[0]
			current := res.NextCandidate(id)
			for i := 0; i < failures && !res.IsPlaceholder(current); i++ {
				current = res.ReportFailure(id, current)
			}

			state, _ := res.State(id)
			if jsonOutput {
				return writeJSON(cmd, state)
			}

			exhausted := make(map[string]bool, len(state.Exhausted))
			for _, u := range state.Exhausted {
				exhausted[u] = true
			}
			rows := make([][]string, 0, len(state.Candidates))
			for i, u := range state.Candidates {
				status := "pending"
				switch {
				case exhausted[u]:
					status = "failed"
				case u == state.Active:
					status = "active"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), u, status})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Candidate", "Status"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			if state.Placeholder || res.IsPlaceholder(current) {
				fmt.Fprintln(out, "All candidates failed; showing the placeholder.")
			} else {
				fmt.Fprintf(out, "Next: %s\n", current)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&failures, "fail", 0, "Number of consecutive load failures to simulate")
	cmd.Flags().StringVar(&staticPrefix, "static-prefix", defaults.StaticPortraitPrefix, "Path of pre-provisioned portraits")
	cmd.Flags().StringVar(&remoteBase, "remote-base", defaults.RemotePortraitBase, "Base URL of remote portraits")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
