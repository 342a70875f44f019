// Package identity maps upstream driver names and short codes onto roster
// identities.
//
// Resolution order, first match wins:
//  1. exact, case-sensitive full-name match;
//  2. the first roster driver (roster order) whose last name is a substring
//     of the supplied name;
//  3. the same substring test on case- and diacritic-folded forms;
//  4. no match.
//
// Step 3 is case-insensitive as well as accent-insensitive, so
// "lewis hamilton" and "Sergio Perez" both resolve. Steps 1 and 2 stay
// case-sensitive.
//
// A miss is not an error. Callers show the raw upstream name instead.
package identity

import (
	"strings"

	"github.com/okian/pitwall/internal/domain/roster"
)

// Strategy names the rule that produced a resolution.
type Strategy string

// Resolution strategies.
const (
	StrategyExact      Strategy = "exact"
	StrategyLastName   Strategy = "last_name"
	StrategyFolded     Strategy = "folded"
	StrategyUpstreamID Strategy = "upstream_id"
	StrategySynthetic  Strategy = "synthetic"
	StrategyNone       Strategy = "none"
)

// Resolved reports whether s produced an identity.
func (s Strategy) Resolved() bool { return s != StrategyNone && s != "" }

type foldedDriver struct {
	lastName string
	driver   roster.Driver
}

// Resolver resolves names against one roster. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	roster     *roster.Roster
	byFullName map[string]roster.Driver
	ordered    []roster.Driver
	folded     []foldedDriver
}

// NewResolver indexes r for resolution.
func NewResolver(r *roster.Roster) *Resolver {
	res := &Resolver{
		roster:     r,
		byFullName: make(map[string]roster.Driver, r.Len()),
		ordered:    r.Drivers(),
	}
	for _, d := range res.ordered {
		if _, ok := res.byFullName[d.FullName]; !ok {
			res.byFullName[d.FullName] = d
		}
		res.folded = append(res.folded, foldedDriver{lastName: fold(d.LastName), driver: d})
	}
	return res
}

// Roster returns the roster backing the resolver.
func (r *Resolver) Roster() *roster.Roster { return r.roster }

// Resolve returns the identity for fullName, or false when none matches.
func (r *Resolver) Resolve(fullName string) (roster.Driver, bool) {
	d, s := r.ResolveWithStrategy(fullName)
	return d, s.Resolved()
}

// ResolveWithStrategy is Resolve that also reports which rule matched.
func (r *Resolver) ResolveWithStrategy(fullName string) (roster.Driver, Strategy) {
	if strings.TrimSpace(fullName) == "" {
		return roster.Driver{}, StrategyNone
	}
	if d, ok := r.byFullName[fullName]; ok {
		return d, StrategyExact
	}
	for _, d := range r.ordered {
		if strings.Contains(fullName, d.LastName) {
			return d, StrategyLastName
		}
	}
	folded := fold(fullName)
	for _, fd := range r.folded {
		if strings.Contains(folded, fd.lastName) {
			return fd.driver, StrategyFolded
		}
	}
	return roster.Driver{}, StrategyNone
}

// ResolveOrUpstreamID prefers local resolution of fullName. Only when that
// fails is the upstream short code trusted: a roster driver with that id is
// returned, or a synthetic identity carrying the code verbatim.
func (r *Resolver) ResolveOrUpstreamID(fullName, upstreamID string) (roster.Driver, bool) {
	d, s := r.ResolveOrUpstreamIDWithStrategy(fullName, upstreamID)
	return d, s.Resolved()
}

// ResolveOrUpstreamIDWithStrategy is ResolveOrUpstreamID that also reports
// which rule matched.
func (r *Resolver) ResolveOrUpstreamIDWithStrategy(fullName, upstreamID string) (roster.Driver, Strategy) {
	if d, s := r.ResolveWithStrategy(fullName); s.Resolved() {
		return d, s
	}
	id := strings.TrimSpace(upstreamID)
	if id == "" {
		return roster.Driver{}, StrategyNone
	}
	if d, ok := r.roster.ByID(id); ok {
		return d, StrategyUpstreamID
	}
	name := strings.TrimSpace(fullName)
	last := name
	if fields := strings.Fields(name); len(fields) > 0 {
		last = fields[len(fields)-1]
	}
	return roster.Driver{
		ID:        id,
		FullName:  name,
		LastName:  last,
		Synthetic: true,
	}, StrategySynthetic
}
