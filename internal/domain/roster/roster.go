// Package roster holds the reference driver table every upstream name is
// reconciled against.
//
// Iteration order is part of the contract: identity resolution returns the
// first driver whose last name matches, so the table lists the active grid
// first and retired drivers after it.
package roster

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roster.yaml
var defaultRosterYAML []byte

// Driver is the canonical identity of one driver. Values are copied out of
// the roster and never mutated.
type Driver struct {
	ID          string `json:"id" yaml:"id"`
	FullName    string `json:"full_name" yaml:"full_name"`
	LastName    string `json:"last_name" yaml:"last_name"`
	Team        string `json:"team" yaml:"team"`
	TeamColor   string `json:"team_color" yaml:"team_color"`
	Number      int    `json:"number" yaml:"number"`
	CurrentGrid bool   `json:"current_grid" yaml:"current_grid"`
	// Synthetic marks an identity built from an upstream short code that the
	// roster does not know.
	Synthetic bool `json:"synthetic,omitempty" yaml:"-"`
}

// Roster is an ordered, read-only table of drivers.
type Roster struct {
	version string
	drivers []Driver
	byID    map[string]int
}

type document struct {
	Version string   `yaml:"version"`
	Drivers []Driver `yaml:"drivers"`
}

// New validates drivers and builds a roster preserving their order.
func New(version string, drivers []Driver) (*Roster, error) {
	if len(drivers) == 0 {
		return nil, fmt.Errorf("%w: no drivers", ErrInvalidRoster)
	}
	r := &Roster{
		version: version,
		drivers: make([]Driver, 0, len(drivers)),
		byID:    make(map[string]int, len(drivers)),
	}
	for i, d := range drivers {
		d.ID = strings.TrimSpace(d.ID)
		d.FullName = strings.TrimSpace(d.FullName)
		d.LastName = strings.TrimSpace(d.LastName)
		d.Synthetic = false
		switch {
		case d.ID == "":
			return nil, fmt.Errorf("%w: driver #%d has no id", ErrInvalidRoster, i+1)
		case d.FullName == "":
			return nil, fmt.Errorf("%w: driver %s has no full name", ErrInvalidRoster, d.ID)
		case d.LastName == "":
			// An empty last name would be a substring of every name.
			return nil, fmt.Errorf("%w: driver %s has no last name", ErrInvalidRoster, d.ID)
		}
		key := strings.ToUpper(d.ID)
		if _, dup := r.byID[key]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidRoster, d.ID)
		}
		r.byID[key] = len(r.drivers)
		r.drivers = append(r.drivers, d)
	}
	return r, nil
}

// Load decodes a YAML roster document.
func Load(rd io.Reader) (*Roster, error) {
	var doc document
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	return New(doc.Version, doc.Drivers)
}

// LoadFile decodes the YAML roster at path.
func LoadFile(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded reference roster.
func Default() *Roster {
	r, err := Load(bytes.NewReader(defaultRosterYAML))
	if err != nil {
		panic("embedded roster is invalid: " + err.Error())
	}
	return r
}

// Version reports the roster document version.
func (r *Roster) Version() string { return r.version }

// Len returns the number of drivers.
func (r *Roster) Len() int { return len(r.drivers) }

// Drivers returns a copy of the drivers in roster order.
func (r *Roster) Drivers() []Driver {
	out := make([]Driver, len(r.drivers))
	copy(out, r.drivers)
	return out
}

// Each calls fn for every driver in roster order until fn returns false.
func (r *Roster) Each(fn func(Driver) bool) {
	for _, d := range r.drivers {
		if !fn(d) {
			return
		}
	}
}

// ByID looks a driver up by short code, ignoring case.
func (r *Roster) ByID(id string) (Driver, bool) {
	i, ok := r.byID[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Driver{}, false
	}
	return r.drivers[i], true
}

// CurrentGrid returns the short codes flagged as current grid, in roster order.
func (r *Roster) CurrentGrid() []string {
	var ids []string
	for _, d := range r.drivers {
		if d.CurrentGrid {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
