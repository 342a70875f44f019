// Package normalize reconciles upstream race results and predictions into
// canonical entries.
//
// Normalization is a single pass over the input: one entry per recognized
// record, in input order. Records of an unrecognized shape are skipped and
// counted, never fatal. Unparseable positions become model.UnknownPosition
// and stay where they were; SortForDisplay is the only place that orders by
// rank.
package normalize

import (
	"strings"

	"github.com/okian/pitwall/internal/domain/forecast"
	"github.com/okian/pitwall/internal/domain/identity"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/roster"
)

// Report summarizes one normalization pass.
type Report struct {
	Results            int `json:"results"`
	Predictions        int `json:"predictions"`
	Skipped            int `json:"skipped"`
	Unresolved         int `json:"unresolved"`
	MalformedPositions int `json:"malformed_positions"`
	DuplicatePositions int `json:"duplicate_positions"`
	// Strategies counts identity resolutions by the rule that matched.
	Strategies map[identity.Strategy]int `json:"strategies,omitempty"`
}

// Normalized returns the number of entries produced.
func (r Report) Normalized() int { return r.Results + r.Predictions }

// Normalizer turns tagged upstream records into canonical entries. It holds
// no mutable state and is safe for concurrent use.
type Normalizer struct {
	resolver *identity.Resolver
}

// New creates a Normalizer resolving identities with resolver.
func New(resolver *identity.Resolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Normalize returns one entry per recognized record, preserving input order.
func (n *Normalizer) Normalize(records []model.RawRecord) []model.Entry {
	entries, _ := n.NormalizeWithReport(records)
	return entries
}

// NormalizeWithReport is Normalize that also reports what it saw.
func (n *Normalizer) NormalizeWithReport(records []model.RawRecord) ([]model.Entry, Report) {
	report := Report{Strategies: make(map[identity.Strategy]int)}
	entries := make([]model.Entry, 0, len(records))
	positions := make(map[int]struct{}, len(records))

	for _, rec := range records {
		var (
			e  model.Entry
			ok bool
		)
		switch rec.Shape {
		case model.ShapeResult:
			if rec.Result != nil {
				e, ok = n.fromResult(*rec.Result, &report), true
				report.Results++
			}
		case model.ShapePrediction:
			if rec.Prediction != nil {
				e, ok = n.fromPrediction(*rec.Prediction, &report), true
				report.Predictions++
			}
		}
		if !ok {
			report.Skipped++
			continue
		}

		if e.HasKnownPosition() {
			if _, dup := positions[e.Position]; dup {
				report.DuplicatePositions++
			}
			positions[e.Position] = struct{}{}
		} else {
			report.MalformedPositions++
		}
		if !e.Resolved() {
			report.Unresolved++
		}
		entries = append(entries, e)
	}
	return entries, report
}

// NormalizePayload decodes an upstream payload of either layout and
// normalizes it.
func (n *Normalizer) NormalizePayload(data []byte) ([]model.Entry, Report, error) {
	records, err := Decode(data)
	if err != nil {
		return nil, Report{}, err
	}
	entries, report := n.NormalizeWithReport(records)
	return entries, report, nil
}

func (n *Normalizer) fromResult(r model.ResultRecord, report *Report) model.Entry {
	e := model.Entry{
		Position:   position(r.Position),
		DriverName: r.DriverName,
		UpstreamID: r.UpstreamID,
		Team:       team(r.Team),
		Points:     clone(r.Points),
		Wins:       clone(r.Wins),
		Status:     resultStatus(r.Status),
		Narrative:  r.Narrative,
	}
	e.Driver = n.resolve(r.DriverName, r.UpstreamID, report)
	return e
}

func (n *Normalizer) fromPrediction(p model.PredictionRecord, report *Report) model.Entry {
	pos := position(p.Position)
	probs := forecast.Derive(pos, p.WinProbability, p.PodiumProbability, p.PointsProbability)
	e := model.Entry{
		Position:      pos,
		DriverName:    p.DriverName,
		UpstreamID:    p.UpstreamID,
		Team:          team(p.Team),
		Probabilities: &probs,
		Status:        model.StatusPredicted,
		Narrative:     p.Narrative,
	}
	if !p.Reasons.Empty() {
		e.Reasons = &model.Reasons{
			Positive: append([]string(nil), p.Reasons.Positive...),
			Negative: append([]string(nil), p.Reasons.Negative...),
		}
	}
	e.Driver = n.resolve(p.DriverName, p.UpstreamID, report)
	return e
}

func (n *Normalizer) resolve(name, upstreamID string, report *Report) *roster.Driver {
	d, strategy := n.resolver.ResolveOrUpstreamIDWithStrategy(name, upstreamID)
	report.Strategies[strategy]++
	if !strategy.Resolved() {
		return nil
	}
	return &d
}

func position(p *int) int {
	if p == nil || *p < 1 {
		return model.UnknownPosition
	}
	return *p
}

func team(t string) string {
	if t = strings.TrimSpace(t); t == "" {
		return model.UnknownTeam
	}
	return t
}

func resultStatus(s string) model.Status {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(model.StatusChampion)):
		return model.StatusChampion
	case strings.EqualFold(strings.TrimSpace(s), string(model.StatusActive)):
		return model.StatusActive
	default:
		return model.StatusFinished
	}
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
