package trace

import "testing"

func TestRun_RecordPlacement_AppendsRecord(t *testing.T) {
	// GIVEN a run configured for decisions
	r := NewRun(Config{Level: LevelDecisions})

	// WHEN a placement record is recorded
	r.RecordPlacement(PlacementRecord{Task: "t0", Clock: 1000, Placed: true, Machine: "m0", Strategy: "greedy", Candidates: 2})

	// THEN the run contains one placement record with correct data
	if len(r.Placements) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(r.Placements))
	}
	if r.Placements[0].Machine != "m0" {
		t.Errorf("expected machine m0, got %s", r.Placements[0].Machine)
	}
}

func TestRun_RecordMigration_AppendsRecord(t *testing.T) {
	// GIVEN a run configured for decisions
	r := NewRun(Config{Level: LevelDecisions})

	// WHEN a migration record is recorded
	r.RecordMigration(MigrationRecord{VM: "v0", Clock: 2000, Source: "m0", Destination: "m1", Migrated: true, Reason: "sla warning"})

	// THEN the run contains one migration record with correct data
	if len(r.Migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(r.Migrations))
	}
	if r.Migrations[0].Destination != "m1" {
		t.Errorf("expected destination m1, got %s", r.Migrations[0].Destination)
	}
}

func TestRun_LevelNone_RecordsNothing(t *testing.T) {
	// GIVEN a run configured for no tracing
	r := NewRun(Config{Level: LevelNone})

	// WHEN records are attempted
	r.RecordPlacement(PlacementRecord{Task: "t0", Placed: true})
	r.RecordMigration(MigrationRecord{VM: "v0", Migrated: true})

	// THEN nothing is stored
	if len(r.Placements) != 0 || len(r.Migrations) != 0 {
		t.Error("expected no records at LevelNone")
	}
}

func TestRun_NilReceiver_IsANoOp(t *testing.T) {
	// GIVEN no run attached (nil)
	var r *Run

	// WHEN records are attempted
	r.RecordPlacement(PlacementRecord{Task: "t0"})
	r.RecordMigration(MigrationRecord{VM: "v0"})

	// THEN it does not panic (no further assertion needed)
}

func TestIsValidLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true}, // empty defaults to none
		{"detailed", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
