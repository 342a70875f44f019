package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Field is a canonical field name.
type Field string

// Canonical fields read from upstream records.
const (
	FieldPosition    Field = "position"
	FieldDriverName  Field = "driver_name"
	FieldTeam        Field = "team"
	FieldPoints      Field = "points"
	FieldWins        Field = "wins"
	FieldStatus      Field = "status"
	FieldProbability Field = "probability"
	FieldPodiumProb  Field = "podium_probability"
	FieldPointsProb  Field = "points_probability"
	FieldUpstreamID  Field = "upstream_id"
	FieldNarrative   Field = "narrative"
	FieldReasons     Field = "reasons"
)

// Aliases maps each canonical field to the upstream keys accepted for it, in
// lookup order. A dotted key descends into a nested object. The first alias
// holding a usable value wins; a key holding a value of the wrong kind (for
// example "driver" holding an object) falls through to the next alias.
// Position is the exception: only the first present alias is parsed.
var Aliases = map[Field][]string{
	FieldPosition:    {"position", "pos", "Position", "rank", "grid_position"},
	FieldDriverName:  {"driver", "driver_name", "driverName", "name", "Driver", "full_name", "fullName", "driver.name", "driver.full_name"},
	FieldTeam:        {"team", "team_name", "teamName", "constructor", "Team", "driver.team"},
	FieldPoints:      {"points", "pts", "Points"},
	FieldWins:        {"wins", "Wins", "victories"},
	FieldStatus:      {"status", "Status"},
	FieldProbability: {"probability", "win_probability", "winProbability", "win_prob"},
	FieldPodiumProb:  {"stats.podium_prob", "stats.podium_probability"},
	FieldPointsProb:  {"stats.points_prob", "stats.points_probability"},
	FieldUpstreamID:  {"driver_id", "driverId", "code", "abbreviation", "driver.code", "driver.id"},
	FieldNarrative:   {"narrative", "analysis", "summary"},
	FieldReasons:     {"reasons"},
}

// object is one decoded upstream JSON object.
type object map[string]json.RawMessage

// path resolves a possibly dotted key. JSON null counts as absent.
func (o object) path(key string) (json.RawMessage, bool) {
	head, rest, nested := strings.Cut(key, ".")
	raw, ok := o[head]
	if !ok || isNull(raw) {
		return nil, false
	}
	if !nested {
		return raw, true
	}
	var child object
	if err := json.Unmarshal(raw, &child); err != nil || child == nil {
		return nil, false
	}
	return child.path(rest)
}

// has reports whether any alias of f is present, usable or not.
func (o object) has(f Field) bool {
	for _, key := range Aliases[f] {
		if _, ok := o.path(key); ok {
			return true
		}
	}
	return false
}

// first returns the first alias value of f accepted by parse.
func first[T any](o object, f Field, parse func(json.RawMessage) (T, bool)) (T, bool) {
	for _, key := range Aliases[f] {
		raw, ok := o.path(key)
		if !ok {
			continue
		}
		if v, ok := parse(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// firstPresent parses only the first present alias of f. A present but
// unparseable value does not fall through to later aliases.
func firstPresent[T any](o object, f Field, parse func(json.RawMessage) (T, bool)) (T, bool) {
	for _, key := range Aliases[f] {
		if raw, ok := o.path(key); ok {
			return parse(raw)
		}
	}
	var zero T
	return zero, false
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// parseText accepts a non-blank JSON string or a JSON number.
func parseText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// parseNumber accepts a JSON number or a numeric string, optionally with a
// trailing percent sign.
func parseNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parsePosition reads a rank the way a lenient integer parse does: optional
// "P" prefix, then leading digits ("P3", "3rd", 3.0). Ranks must be positive.
func parsePosition(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "P"), "p")
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end >= 0 {
		s = s[:end]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func parseReasons(raw json.RawMessage) (reasons, bool) {
	var r reasons
	if err := json.Unmarshal(raw, &r); err != nil {
		return reasons{}, false
	}
	return r, true
}

type reasons struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}
