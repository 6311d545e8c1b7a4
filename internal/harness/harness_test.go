package harness

import (
	"testing"

	"github.com/CinnamonNinian/cloudsim-eec/core"
	"github.com/stretchr/testify/require"
)

func TestHarness_AddMachine_AssignsSequentialIDs(t *testing.T) {
	h := New(DefaultConfig())
	m0 := h.AddMachine(MachineSpec{CPU: core.X86, Memory: 1000})
	m1 := h.AddMachine(MachineSpec{CPU: core.X86, Memory: 1000})
	require.Equal(t, core.MachineID("m0"), m0)
	require.Equal(t, core.MachineID("m1"), m1)
	require.Equal(t, core.MachineIDAt(0), m0)
}

func TestHarness_Run_DispatchesAndCompletesASingleTask(t *testing.T) {
	h := New(DefaultConfig())
	h.AddMachine(MachineSpec{CPU: core.X86, Memory: 1000})
	sched := core.NewScheduler(h, core.DefaultConfig())
	h.Attach(sched)

	h.ScheduleArrival(0, "t0", TaskSpec{
		RequiredCPU:    core.X86,
		RequiredVMType: core.VMLinux,
		RequiredMemory: 50,
		SLA:            core.SLA2,
		Duration:       100,
	})

	h.Run(1_000)

	require.True(t, h.IsTaskCompleted("t0"))
	report := h.GetSLAReport()
	require.Equal(t, 1, report.TotalTasks)
	require.Equal(t, 0, report.UnplacedTasks)
}
