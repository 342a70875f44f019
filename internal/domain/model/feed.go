package model

import (
	"fmt"
	"strings"
	"time"
)

// FeedKind names an upstream endpoint.
type FeedKind string

// Upstream feeds.
const (
	FeedResults     FeedKind = "results"
	FeedPredictions FeedKind = "predictions"
)

// FeedKey identifies one upstream list: results by season and round,
// predictions by circuit.
type FeedKey struct {
	Kind    FeedKind `json:"kind"`
	Season  int      `json:"season,omitempty"`
	Round   int      `json:"round,omitempty"`
	Circuit string   `json:"circuit,omitempty"`
}

// ResultsKey builds the key of a results list.
func ResultsKey(season, round int) FeedKey {
	return FeedKey{Kind: FeedResults, Season: season, Round: round}
}

// PredictionsKey builds the key of a predictions list.
func PredictionsKey(circuit string) FeedKey {
	return FeedKey{Kind: FeedPredictions, Circuit: strings.ToLower(strings.TrimSpace(circuit))}
}

// Validate checks that the key addresses exactly one list.
func (k FeedKey) Validate() error {
	switch k.Kind {
	case FeedResults:
		if k.Season <= 0 || k.Round <= 0 {
			return fmt.Errorf("results key needs positive season and round, got %d/%d", k.Season, k.Round)
		}
	case FeedPredictions:
		if strings.TrimSpace(k.Circuit) == "" {
			return fmt.Errorf("predictions key needs a circuit")
		}
	default:
		return fmt.Errorf("unknown feed kind %q", k.Kind)
	}
	return nil
}

// String renders the key as a path, e.g. "results/2024/5" or "predictions/monaco".
func (k FeedKey) String() string {
	if k.Kind == FeedResults {
		return fmt.Sprintf("%s/%d/%d", k.Kind, k.Season, k.Round)
	}
	return fmt.Sprintf("%s/%s", k.Kind, k.Circuit)
}

// RefreshJob asks for one feed to be fetched, normalized and stored.
type RefreshJob struct {
	ID       string    `json:"id"`
	Key      FeedKey   `json:"key"`
	Enqueued time.Time `json:"enqueued_at"`
}
