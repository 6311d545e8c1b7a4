// Package trace provides decision-trace recording for placement and
// migration analysis. It has no dependency on core or internal/harness — it
// stores pure data types, so either side can import it without a cycle.
package trace

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelDecisions captures every placement and migration decision.
	LevelDecisions Level = "decisions"
)

var validLevels = map[Level]bool{
	LevelNone:      true,
	LevelDecisions: true,
	"":             true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Config controls trace collection behavior.
type Config struct {
	Level Level
}

// PlacementRecord captures a single Placement Engine decision.
type PlacementRecord struct {
	Task      string
	Clock     int64
	Placed    bool
	Machine   string
	Strategy  string
	Candidates int
}

// MigrationRecord captures a single Migration Engine decision (SLA-driven or
// opportunistic consolidation).
type MigrationRecord struct {
	VM          string
	Clock       int64
	Source      string
	Destination string
	Migrated    bool
	Reason      string
}

// Run collects decision records across a simulation run.
type Run struct {
	Config     Config
	Placements []PlacementRecord
	Migrations []MigrationRecord
}

// NewRun creates a Run ready for recording.
func NewRun(cfg Config) *Run {
	return &Run{
		Config:     cfg,
		Placements: make([]PlacementRecord, 0),
		Migrations: make([]MigrationRecord, 0),
	}
}

// RecordPlacement appends a placement decision record. A nil Run is a valid
// no-op receiver, so callers can hold an optionally-nil *Run without a
// branch at every call site.
func (r *Run) RecordPlacement(rec PlacementRecord) {
	if r == nil || r.Config.Level != LevelDecisions {
		return
	}
	r.Placements = append(r.Placements, rec)
}

// RecordMigration appends a migration decision record.
func (r *Run) RecordMigration(rec MigrationRecord) {
	if r == nil || r.Config.Level != LevelDecisions {
		return
	}
	r.Migrations = append(r.Migrations, rec)
}
