package model

import (
	"github.com/okian/pitwall/internal/domain/roster"
)

// UnknownPosition is the sentinel position of a record whose rank could not
// be parsed.
const UnknownPosition = 0

// UnknownTeam is used when upstream omits the team.
const UnknownTeam = "Unknown"

// Status is the lifecycle state of a canonical entry.
type Status string

// Entry statuses.
const (
	StatusFinished  Status = "Finished"
	StatusPredicted Status = "Predicted"
	StatusChampion  Status = "Champion"
	StatusActive    Status = "Active"
)

// Probabilities are percentages in [0,100]. They exist for predictions only,
// always as a complete set.
type Probabilities struct {
	Win    float64 `json:"win"`
	Podium float64 `json:"podium"`
	Points float64 `json:"points"`
}

// Entry is the canonical record of one grid position, independent of the
// upstream shape it came from. Entries are not modified after construction.
type Entry struct {
	// Position is the 1-based rank, or UnknownPosition.
	Position int `json:"position"`
	// Driver is nil when the upstream name matched no identity.
	Driver *roster.Driver `json:"driver"`
	// DriverName is the name as upstream sent it.
	DriverName    string         `json:"driver_name"`
	UpstreamID    string         `json:"upstream_id,omitempty"`
	Team          string         `json:"team"`
	Points        *float64       `json:"points,omitempty"`
	Wins          *float64       `json:"wins,omitempty"`
	Probabilities *Probabilities `json:"probabilities,omitempty"`
	Status        Status         `json:"status"`
	Narrative     string         `json:"narrative,omitempty"`
	Reasons       *Reasons       `json:"reasons,omitempty"`
}

// Resolved reports whether the entry carries a roster identity.
func (e Entry) Resolved() bool { return e.Driver != nil }

// DisplayName is the identity's full name, or the raw upstream name.
func (e Entry) DisplayName() string {
	if e.Driver != nil {
		return e.Driver.FullName
	}
	return e.DriverName
}

// HasKnownPosition reports whether the position parsed.
func (e Entry) HasKnownPosition() bool { return e.Position != UnknownPosition }
