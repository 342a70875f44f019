package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/model"
)

const feedArgsHelp = `FEED is "results SEASON ROUND" or "predictions CIRCUIT".`

// parseFeedKey reads a feed key from positional arguments.
func parseFeedKey(args []string) (model.FeedKey, error) {
	if len(args) == 0 {
		return model.FeedKey{}, fmt.Errorf("missing feed kind")
	}
	var key model.FeedKey
	switch model.FeedKind(args[0]) {
	case model.FeedResults:
		if len(args) != 3 {
			return model.FeedKey{}, fmt.Errorf("results needs SEASON and ROUND")
		}
		season, err := strconv.Atoi(args[1])
		if err != nil {
			return model.FeedKey{}, fmt.Errorf("invalid season %q", args[1])
		}
		round, err := strconv.Atoi(args[2])
		if err != nil {
			return model.FeedKey{}, fmt.Errorf("invalid round %q", args[2])
		}
		key = model.ResultsKey(season, round)
	case model.FeedPredictions:
		if len(args) != 2 {
			return model.FeedKey{}, fmt.Errorf("predictions needs CIRCUIT")
		}
		key = model.PredictionsKey(args[1])
	default:
		return model.FeedKey{}, fmt.Errorf("unknown feed kind %q (want results or predictions)", args[0])
	}
	if err := key.Validate(); err != nil {
		return model.FeedKey{}, err
	}
	return key, nil
}

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var (
		display    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "feed FEED",
		Short: "Show the canonical list a server stored for a feed",
		Long: "Show the canonical list a running server stored for a feed. " + feedArgsHelp + `

Examples:
  pitwallctl feed results 2024 5 --display
  pitwallctl feed predictions monaco --server http://pitwall:9080`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseFeedKey(args)
			if err != nil {
				return err
			}
			path := "/" + key.String()
			if display {
				path += "?sort=display"
			}

			var snap repository.Snapshot
			if err := ctx.client().get(cmd.Context(), path, &snap); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, snap)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s version %d, stored %s\n", snap.Key, snap.Version, snap.Stored.Format(time.RFC3339))
			renderEntries(out, snap.Entries)
			renderReport(out, snap.Report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&display, "display", false, "Sort entries for display")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

type refreshAck struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh FEED",
		Short: "Ask a server to refetch a feed",
		Long: "Ask a running server to refetch, normalize and store a feed. " + feedArgsHelp + `

Examples:
  pitwallctl refresh results 2024 5
  pitwallctl refresh predictions monaco`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseFeedKey(args)
			if err != nil {
				return err
			}
			var ack refreshAck
			if err := ctx.client().post(cmd.Context(), "/refresh", key, &ack); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (job %s)\n", key, ack.Status, ack.JobID)
			return nil
		},
	}
	return cmd
}
