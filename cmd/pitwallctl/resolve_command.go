package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/pitwall/internal/domain/identity"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var (
		upstreamID string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve NAME",
		Short: "Resolve a driver name to a roster identity",
		Long: `Resolve a driver name the way upstream records are resolved: exact full
name, then last name, then last name ignoring case and accents. When the name
matches nothing, --upstream-id is looked up in the roster or kept as a
synthetic identity.

Examples:
  pitwallctl resolve "Max Verstappen"
  pitwallctl resolve "Sergio Perez"
  pitwallctl resolve "Rookie Driver" --upstream-id NEW`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.ensureRoster()
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}
			name := strings.TrimSpace(args[0])
			d, strategy := identity.NewResolver(r).ResolveOrUpstreamIDWithStrategy(name, upstreamID)
			if !strategy.Resolved() {
				return fmt.Errorf("no identity for %q", name)
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{"driver": d, "strategy": strategy})
			}
			number := ""
			if d.Number > 0 {
				number = strconv.Itoa(d.Number)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Team", "Number", "Strategy"},
				[][]string{{d.ID, d.FullName, d.Team, number, string(strategy)}},
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&upstreamID, "upstream-id", "", "Upstream short code used when the name does not resolve")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
