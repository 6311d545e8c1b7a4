package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func attachVMWithTask(oracle *testOracle, view *ClusterView, host MachineID, vm VMID, task TaskID, mem int64) {
	oracle.vms[vm] = &testVM{vtype: VMLinux, cpu: X86, host: host, tasks: []TaskID{task}}
	oracle.tasks[task] = &testTask{cpu: X86, vtype: VMLinux, mem: mem, sla: SLA2}
	view.RegisterVM(vm, host)
	view.AttachVM(vm, host)
}

func TestPowerController_TwoSampleIdleStepsTowardS5(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	view := NewClusterView()
	view.AddMachine("m0")

	cfg := DefaultConfig()
	cfg.StateChangeThreshold = 1
	pc := NewPowerController(oracle, view, cfg)

	pc.tickMachine(1, "m0")
	require.Empty(t, oracle.stateChanges, "first idle sample alone must not step the state")

	pc.tickMachine(2, "m0")
	require.Len(t, oracle.stateChanges, 1)
	require.Equal(t, S1, oracle.stateChanges[0].Target, "two consecutive idle samples step one notch toward S5")
}

func TestPowerController_PendingWorkForcesS0RegardlessOfIdle(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S3)
	view := NewClusterView()
	view.AddMachine("m0")
	view.PushPendingArrival("m0", "vpending", true)

	cfg := DefaultConfig()
	cfg.StateChangeThreshold = 1
	pc := NewPowerController(oracle, view, cfg)

	pc.tickMachine(1, "m0")
	require.Len(t, oracle.stateChanges, 1)
	require.Equal(t, S0, oracle.stateChanges[0].Target, "a machine with queued work must be pushed toward S0")
}

func TestPowerController_NoOpWhenTargetEqualsCurrent(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	view := NewClusterView()
	view.AddMachine("m0")
	view.PushPendingArrival("m0", "vpending", true)

	cfg := DefaultConfig()
	cfg.StateChangeThreshold = 1
	pc := NewPowerController(oracle, view, cfg)

	pc.tickMachine(1, "m0")
	require.Empty(t, oracle.stateChanges, "already at the target state: no redundant MachineSetState call")
}

func TestPowerController_SkipsWhileStateChangeInFlight(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	view := NewClusterView()
	view.AddMachine("m0")
	view.SetStateChangeInFlight("m0", true)

	cfg := DefaultConfig()
	cfg.StateChangeThreshold = 1
	pc := NewPowerController(oracle, view, cfg)

	pc.tickMachine(1, "m0")
	pc.tickMachine(2, "m0")
	require.Empty(t, oracle.stateChanges, "a machine mid-transition is left alone until it completes")
}

func TestPowerController_GrowingMemoryStepsPStateTowardP0(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	oracle.machines["m0"].pstate = P3
	view := NewClusterView()
	view.AddMachine("m0")
	attachVMWithTask(oracle, view, "m0", "v0", "t0", 50)

	cfg := DefaultConfig()
	cfg.StateChangeThreshold = 1
	pc := NewPowerController(oracle, view, cfg)

	pc.tickMachine(1, "m0")
	require.Len(t, oracle.perfChanges, 1)
	require.Equal(t, P2, oracle.perfChanges[0].Target, "memory usage growing from the last sample steps one notch toward P0")
}

func TestPowerController_ShrinkingMemoryStepsPStateTowardP3(t *testing.T) {
	oracle := newTestOracle(8)
	oracle.addMachine("m0", X86, false, 1000, S0)
	view := NewClusterView()
	view.AddMachine("m0")
	attachVMWithTask(oracle, view, "m0", "v0", "t0", 50)
	view.RecordActivity("m0", 0, 500) // a higher last sample than the current 58 (50 task + 8 overhead)

	cfg := DefaultConfig()
	cfg.StateChangeThreshold = 1
	pc := NewPowerController(oracle, view, cfg)

	pc.tickMachine(1, "m0")
	require.Len(t, oracle.perfChanges, 1)
	require.Equal(t, P1, oracle.perfChanges[0].Target)
}
