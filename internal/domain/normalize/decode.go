package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/pitwall/internal/domain/model"
)

// Envelope keys wrapping a record array.
const (
	resultsKey     = "results"
	predictionsKey = "predictions"
)

// DecodeResults decodes a results payload: a top-level array, or an object
// with a "results" array.
func DecodeResults(data []byte) ([]model.RawRecord, error) {
	return decode(data, resultsKey)
}

// DecodePredictions decodes a predictions payload: an object with a
// "predictions" array, or a bare array.
func DecodePredictions(data []byte) ([]model.RawRecord, error) {
	return decode(data, predictionsKey)
}

// Decode accepts either payload layout.
func Decode(data []byte) ([]model.RawRecord, error) {
	return decode(data, predictionsKey, resultsKey)
}

func decode(data []byte, envelopes ...string) ([]model.RawRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	var items []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		found := false
		for _, key := range envelopes {
			raw, ok := env[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("%w: %q is not an array: %w", ErrMalformedPayload, key, err)
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("%w: object has none of %v", ErrMalformedPayload, envelopes)
		}
	default:
		return nil, fmt.Errorf("%w: expected array or object", ErrMalformedPayload)
	}

	out := make([]model.RawRecord, 0, len(items))
	for _, item := range items {
		out = append(out, Classify(item))
	}
	return out, nil
}

// Classify turns one upstream value into a tagged record. A probability field
// marks the prediction shape. Values that are not objects, or objects with
// neither a position nor a driver name, are unrecognized.
func Classify(raw json.RawMessage) model.RawRecord {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil || o == nil {
		return model.Unrecognized(raw)
	}
	if !o.has(FieldPosition) && !o.has(FieldDriverName) {
		return model.Unrecognized(raw)
	}

	if o.has(FieldProbability) {
		rec := model.NewPrediction(readPrediction(o))
		rec.Source = raw
		return rec
	}
	rec := model.NewResult(readResult(o))
	rec.Source = raw
	return rec
}

func readResult(o object) model.ResultRecord {
	r := model.ResultRecord{}
	if p, ok := firstPresent(o, FieldPosition, parsePosition); ok {
		r.Position = &p
	}
	r.DriverName, _ = first(o, FieldDriverName, parseText)
	r.UpstreamID, _ = first(o, FieldUpstreamID, parseText)
	r.Team, _ = first(o, FieldTeam, parseText)
	if v, ok := first(o, FieldPoints, parseNumber); ok {
		r.Points = &v
	}
	if v, ok := first(o, FieldWins, parseNumber); ok {
		r.Wins = &v
	}
	r.Status, _ = first(o, FieldStatus, parseText)
	r.Narrative, _ = first(o, FieldNarrative, parseText)
	return r
}

func readPrediction(o object) model.PredictionRecord {
	p := model.PredictionRecord{}
	if pos, ok := firstPresent(o, FieldPosition, parsePosition); ok {
		p.Position = &pos
	}
	p.DriverName, _ = first(o, FieldDriverName, parseText)
	p.UpstreamID, _ = first(o, FieldUpstreamID, parseText)
	p.Team, _ = first(o, FieldTeam, parseText)
	p.WinProbability, _ = first(o, FieldProbability, parseNumber)
	if v, ok := first(o, FieldPodiumProb, parseNumber); ok {
		p.PodiumProbability = &v
	}
	if v, ok := first(o, FieldPointsProb, parseNumber); ok {
		p.PointsProbability = &v
	}
	if r, ok := first(o, FieldReasons, parseReasons); ok {
		p.Reasons = model.Reasons{Positive: r.Positive, Negative: r.Negative}
	}
	p.Narrative, _ = first(o, FieldNarrative, parseText)
	return p
}
