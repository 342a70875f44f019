package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/pitwall/internal/domain/model"
)

// UnknownPolicy places entries whose position is model.UnknownPosition.
type UnknownPolicy string

// Placement policies for unknown positions.
const (
	UnknownLast  UnknownPolicy = "last"
	UnknownFirst UnknownPolicy = "first"
)

// ParsePolicy reads a policy name, ignoring case. Empty means UnknownLast.
func ParsePolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnknownLast:
		return UnknownLast, nil
	case UnknownFirst:
		return UnknownFirst, nil
	default:
		return "", fmt.Errorf("unknown position policy %q", s)
	}
}

// SortForDisplay returns a copy of entries ordered by position. The sort is
// stable, so entries sharing a position keep their encounter order, and
// entries with an unknown position are grouped at the end (UnknownLast) or
// the start (UnknownFirst) in input order. The input is not modified.
func SortForDisplay(entries []model.Entry, policy UnknownPolicy) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)

	rank := func(e model.Entry) int {
		if e.HasKnownPosition() {
			return e.Position
		}
		if policy == UnknownFirst {
			return math.MinInt
		}
		return math.MaxInt
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

// FormatPercent renders a percentage rounded to one decimal, e.g. "80.0%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64) + "%"
}
