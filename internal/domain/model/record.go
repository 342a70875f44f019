// Package model contains the records passed between the upstream boundary,
// the normalizer and the presentation layer.
package model

import "encoding/json"

// Shape discriminates the upstream record variants.
type Shape int

// Known upstream shapes.
const (
	ShapeUnrecognized Shape = iota
	ShapeResult
	ShapePrediction
)

func (s Shape) String() string {
	switch s {
	case ShapeResult:
		return "result"
	case ShapePrediction:
		return "prediction"
	default:
		return "unrecognized"
	}
}

// RawRecord is one upstream object after boundary validation. Exactly one of
// Result and Prediction is set for the matching Shape; both are nil for
// ShapeUnrecognized.
type RawRecord struct {
	Shape      Shape
	Result     *ResultRecord
	Prediction *PredictionRecord
	// Source keeps the original JSON for diagnostics.
	Source json.RawMessage
}

// ResultRecord is the historical-results shape.
type ResultRecord struct {
	// Position is nil when missing or unparseable.
	Position   *int
	DriverName string
	UpstreamID string
	Team       string
	Points     *float64
	Wins       *float64
	Status     string
	Narrative  string
}

// PredictionRecord is the predictions-feed shape.
type PredictionRecord struct {
	// Position is nil when missing or unparseable.
	Position       *int
	DriverName     string
	UpstreamID     string
	Team           string
	WinProbability float64
	// PodiumProbability and PointsProbability are set only when upstream
	// supplied them; they are percentages.
	PodiumProbability *float64
	PointsProbability *float64
	Reasons           Reasons
	Narrative         string
}

// Reasons are the model's arguments for and against a prediction.
type Reasons struct {
	Positive []string `json:"positive,omitempty"`
	Negative []string `json:"negative,omitempty"`
}

// Empty reports whether no reasons were given.
func (r Reasons) Empty() bool { return len(r.Positive) == 0 && len(r.Negative) == 0 }

// NewResult wraps a result-shape record.
func NewResult(r ResultRecord) RawRecord {
	return RawRecord{Shape: ShapeResult, Result: &r}
}

// NewPrediction wraps a prediction-shape record.
func NewPrediction(p PredictionRecord) RawRecord {
	return RawRecord{Shape: ShapePrediction, Prediction: &p}
}

// Unrecognized wraps an upstream value matching neither shape.
func Unrecognized(src json.RawMessage) RawRecord {
	return RawRecord{Shape: ShapeUnrecognized, Source: src}
}
