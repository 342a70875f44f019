package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRosterCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List the reference roster in resolution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.ensureRoster()
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, map[string]any{"version": r.Version(), "drivers": r.Drivers()})
			}

			rows := make([][]string, 0, r.Len())
			for _, d := range r.Drivers() {
				current := ""
				if d.CurrentGrid {
					current = "yes"
				}
				rows = append(rows, []string{d.ID, d.FullName, d.Team, strconv.Itoa(d.Number), current})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Roster %s (%d drivers)\n", r.Version(), r.Len())
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Team", "Number", "Current"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
