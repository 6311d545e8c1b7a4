package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGreedySelect_PrefersRunningAndFeasibleOverWaking(t *testing.T) {
	task := TaskInfo{RequiredCPU: X86, RequiredMemory: 10}
	candidates := []Candidate{
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, MemoryUsed: 0, SState: S5}},
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, MemoryUsed: 50, SState: S0}},
	}
	got := Greedy{}.Select(candidates, task, false)
	require.Equal(t, 1, got, "an already-running feasible machine beats a sleeping one")
}

func TestGreedySelect_GPUPreferenceWins(t *testing.T) {
	task := TaskInfo{RequiredCPU: X86, RequiredMemory: 10}
	candidates := []Candidate{
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, SState: S0, HasGPU: false}},
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, SState: S0, HasGPU: true}},
	}
	got := Greedy{}.Select(candidates, task, true)
	require.Equal(t, 1, got)
}

func TestBalancedSelect_TieBreaksOnFewestVMs(t *testing.T) {
	task := TaskInfo{RequiredCPU: X86, RequiredMemory: 10}
	candidates := []Candidate{
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, SState: S0}, VMCount: 3},
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, SState: S0}, VMCount: 1},
	}
	got := Balanced{}.Select(candidates, task, false)
	require.Equal(t, 1, got)
}

func TestPMapperSelect_PacksTightestFitAmongRunning(t *testing.T) {
	task := TaskInfo{RequiredCPU: X86, RequiredMemory: 10}
	candidates := []Candidate{
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, MemoryUsed: 10, SState: S0}}, // headroom 90
		{Info: MachineInfo{CPUType: X86, MemoryCapacity: 100, MemoryUsed: 80, SState: S0}}, // headroom 20
	}
	got := PMapper{}.Select(candidates, task, false)
	require.Equal(t, 1, got, "PMapper packs the machine with the least remaining headroom that still fits")
}

func TestNewPlacementStrategy(t *testing.T) {
	require.IsType(t, Greedy{}, NewPlacementStrategy(""))
	require.IsType(t, Greedy{}, NewPlacementStrategy("greedy"))
	require.IsType(t, Balanced{}, NewPlacementStrategy("balanced"))
	require.IsType(t, PMapper{}, NewPlacementStrategy("pmapper"))
	require.Panics(t, func() { NewPlacementStrategy("nonexistent") })
}

func TestPlacementEngine_Place_DispatchesOnRunningMachine(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.addTask("t0", X86, VMLinux, 50, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")

	pe := NewPlacementEngine(oracle, view, Greedy{}, DefaultConfig())
	placed := pe.Place(0, "t0")
	require.True(t, placed)

	vm, ok := view.VMForTask("t0")
	require.True(t, ok)
	info := oracle.VMGetInfo(vm)
	require.Contains(t, info.TaskIDs, TaskID("t0"))
	require.Equal(t, PriorityMid, oracle.tasks["t0"].priority)
}

func TestPlacementEngine_Place_WakesSleepingMachineAndQueuesArrival(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S5)
	oracle.addTask("t0", X86, VMLinux, 50, false, SLA3)

	view := NewClusterView()
	view.AddMachine("m0")

	pe := NewPlacementEngine(oracle, view, Greedy{}, DefaultConfig())
	placed := pe.Place(0, "t0")
	require.True(t, placed)

	require.Len(t, oracle.stateChanges, 1)
	require.Equal(t, S0, oracle.stateChanges[0].Target)
	require.True(t, view.IsStateChangeInFlight("m0"))

	// Task not yet dispatched: still pending on the new VM until wake completes.
	_, ok := view.VMForTask("t0")
	require.False(t, ok)
}

func TestPlacementEngine_Place_NoFeasibleMachineReturnsFalse(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", ARM, false, 1000, S0)
	oracle.addTask("t0", X86, VMLinux, 50, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")

	pe := NewPlacementEngine(oracle, view, Greedy{}, DefaultConfig())
	require.False(t, pe.Place(0, "t0"), "a CPU-architecture mismatch must refuse placement, never coerce")
}

func TestPlacementEngine_Place_ReusesVMUnderSoftCap(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.addTask("t0", X86, VMLinux, 10, false, SLA2)
	oracle.addTask("t1", X86, VMLinux, 10, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")

	cfg := DefaultConfig()
	pe := NewPlacementEngine(oracle, view, Greedy{}, cfg)
	require.True(t, pe.Place(0, "t0"))
	require.True(t, pe.Place(0, "t1"))

	vm0, _ := view.VMForTask("t0")
	vm1, _ := view.VMForTask("t1")
	require.Equal(t, vm0, vm1, "two same-type tasks under the soft cap share one VM")
}

func TestPlacementEngine_Place_CreatesNewVMPastSoftCap(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 100_000, S0)
	oracle.addTask("t0", X86, VMLinux, 1, false, SLA2)
	oracle.addTask("t1", X86, VMLinux, 1, false, SLA2)

	view := NewClusterView()
	view.AddMachine("m0")

	cfg := DefaultConfig()
	cfg.VMTaskSoftCap = 1
	pe := NewPlacementEngine(oracle, view, Greedy{}, cfg)
	require.True(t, pe.Place(0, "t0"))
	require.True(t, pe.Place(0, "t1"))

	vm0, _ := view.VMForTask("t0")
	vm1, _ := view.VMForTask("t1")
	require.NotEqual(t, vm0, vm1, "a VM at its soft cap forces a new VM rather than overloading it")
}
