package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// placeManually wires a VM hosting a single dispatched task directly through
// the oracle and view, bypassing the Placement Engine so migration tests
// control exactly which machine a task starts on.
func placeManually(t *testing.T, oracle *testOracle, view *ClusterView, host MachineID, task TaskID) VMID {
	t.Helper()
	info := oracle.GetTaskInfo(task)
	vm := oracle.VMCreate(host, info.RequiredVMType, info.RequiredCPU)
	oracle.VMAttach(vm, host)
	priority := PriorityForSLA(info.SLA)
	oracle.VMAddTask(vm, task, priority)
	view.RegisterVM(vm, host)
	view.AttachVM(vm, host)
	view.RecordDispatch(task, vm)
	return vm
}

func TestMigrationEngine_OnSLAWarning_MigratesToFeasibleRunningMachine(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.addMachine("m1", X86, false, 1000, S0)
	oracle.addTask("t0", X86, VMLinux, 50, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")
	view.AddMachine("m1")
	vm := placeManually(t, oracle, view, "m0", "t0")

	cfg := DefaultConfig()
	me := NewMigrationEngine(oracle, view, cfg)

	migrated := me.OnSLAWarning("t0")
	require.True(t, migrated)
	require.True(t, view.IsMigrating(vm))
	require.True(t, view.HasInboundMigration("m1"))
	require.Len(t, oracle.migrations, 1)
	require.Equal(t, MachineID("m1"), oracle.migrations[0].Dest)

	me.OnMigrationDone(vm, "m1")
	require.False(t, view.IsMigrating(vm))
	require.False(t, view.HasInboundMigration("m1"))
	host, ok := view.HostOf(vm)
	require.True(t, ok)
	require.Equal(t, MachineID("m1"), host)
	require.EqualValues(t, cfg.MigrationCooldownTicks, view.Cooldown(vm))
}

func TestMigrationEngine_OnSLAWarning_NoOpDuringCooldown(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.addMachine("m1", X86, false, 1000, S0)
	oracle.addTask("t0", X86, VMLinux, 50, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")
	view.AddMachine("m1")
	vm := placeManually(t, oracle, view, "m0", "t0")

	me := NewMigrationEngine(oracle, view, DefaultConfig())
	require.True(t, me.OnSLAWarning("t0"))
	me.OnMigrationDone(vm, "m1")

	require.False(t, me.OnSLAWarning("t0"), "a second warning during cooldown must be absorbed, not retried")
}

func TestMigrationEngine_OnSLAWarning_NoFeasibleDestinationAbsorbed(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.addMachine("m1", ARM, false, 1000, S0)
	oracle.addTask("t0", X86, VMLinux, 50, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")
	view.AddMachine("m1")
	placeManually(t, oracle, view, "m0", "t0")

	me := NewMigrationEngine(oracle, view, DefaultConfig())
	require.False(t, me.OnSLAWarning("t0"), "architecture mismatch leaves no feasible destination")
	require.Empty(t, oracle.migrations)
}

func TestMigrationEngine_OnTaskComplete_ConsolidatesLeastLoadedMachine(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.addMachine("m1", X86, false, 1000, S0)
	oracle.addTask("small", X86, VMLinux, 10, false, SLA2)
	oracle.addTask("big", X86, VMLinux, 500, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")
	view.AddMachine("m1")
	placeManually(t, oracle, view, "m0", "small")
	placeManually(t, oracle, view, "m1", "big")

	cfg := DefaultConfig()
	me := NewMigrationEngine(oracle, view, cfg)
	migrated := me.OnTaskComplete()
	require.True(t, migrated, "the lightly loaded machine's remaining workload should consolidate onto the busier one")
	require.Len(t, oracle.migrations, 1)
	require.Equal(t, MachineID("m1"), oracle.migrations[0].Dest)
}

func TestMigrationEngine_OnTaskComplete_DisabledByConfig(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.addMachine("m1", X86, false, 1000, S0)
	oracle.addTask("small", X86, VMLinux, 10, false, SLA2)
	oracle.addTask("big", X86, VMLinux, 500, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")
	view.AddMachine("m1")
	placeManually(t, oracle, view, "m0", "small")
	placeManually(t, oracle, view, "m1", "big")

	cfg := DefaultConfig()
	cfg.ConsolidationEnabled = false
	me := NewMigrationEngine(oracle, view, cfg)
	require.False(t, me.OnTaskComplete())
	require.Empty(t, oracle.migrations)
}
