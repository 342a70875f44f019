package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/pitwall/internal/domain/identity"
	"github.com/okian/pitwall/internal/domain/normalize"
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	var (
		sortMode   string
		unknown    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Normalize an upstream results or predictions payload",
		Long: `Normalize a results or predictions payload into canonical entries. FILE
may be "-" to read standard input. Entries keep their input order unless
--sort display is given.

Examples:
  pitwallctl normalize results.json
  curl -s $UPSTREAM/predictions/monaco | pitwallctl normalize - --sort display`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.ensureRoster()
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}
			policy, err := normalize.ParsePolicy(unknown)
			if err != nil {
				return err
			}
			switch sortMode {
			case "", "input", "display":
			default:
				return fmt.Errorf("unknown sort mode %q (want input or display)", sortMode)
			}

			payload, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			entries, report, err := normalize.New(identity.NewResolver(r)).NormalizePayload(payload)
			if err != nil {
				return err
			}
			if sortMode == "display" {
				entries = normalize.SortForDisplay(entries, policy)
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{"entries": entries, "report": report})
			}
			out := cmd.OutOrStdout()
			renderEntries(out, entries)
			renderReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortMode, "sort", "input", "Entry order: input or display")
	cmd.Flags().StringVar(&unknown, "unknown", string(normalize.UnknownLast), "Where display order puts unknown positions: first or last")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func readPayload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}
