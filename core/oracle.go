package core

// Oracle is everything the core queries and actuates in the host simulator.
// It is the single seam between the pure placement/migration/power state
// machine and the discrete-event simulator that owns the clock, the machine
// and VM catalogue, and the SLA/energy accounting ledger. The core treats it
// as a black box: it never assumes anything about the Oracle's internals
// beyond the contract documented on each method.
//
// Implementations are expected to be the host simulator itself in
// production, or internal/harness.Harness in tests and the demo CLI.
type Oracle interface {
	// MachineGetTotal returns the number of machines in the cluster.
	MachineGetTotal() int

	// MachineGetInfo returns a fresh snapshot of a machine's state. The core
	// never caches the result across events.
	MachineGetInfo(id MachineID) MachineInfo

	// MachineGetCPUType returns a machine's fixed CPU architecture.
	MachineGetCPUType(id MachineID) CPUType

	// MachineSetState requests an S-state transition. The transition is
	// asynchronous; completion is signalled by a later StateChangeComplete
	// callback. The core must not call this again for the same machine while
	// a transition is already in flight.
	MachineSetState(id MachineID, target SState)

	// MachineSetCorePerformance requests a P-state transition. Unlike
	// MachineSetState this is treated as synchronous by the core (the Power
	// Controller does not track an in-flight flag for it).
	MachineSetCorePerformance(id MachineID, target PState)

	// VMCreate allocates a new VM of the given type and CPU architecture on
	// the given machine and returns its identity. The VM is not yet attached;
	// the caller must still call VMAttach.
	VMCreate(host MachineID, vmType VMType, cpu CPUType) VMID

	// VMAttach attaches a previously created VM to its host machine. Must
	// only be called while the host is at S0 and not mid state-change.
	VMAttach(vm VMID, host MachineID)

	// VMAddTask dispatches a task onto an attached, non-migrating VM at the
	// given priority.
	VMAddTask(vm VMID, task TaskID, priority Priority)

	// VMMigrate begins migrating a VM to a new destination machine. The
	// migration is asynchronous; completion is signalled by a later
	// MigrationDone callback.
	VMMigrate(vm VMID, dest MachineID)

	// VMShutdown tears a VM down. Called only from SimulationComplete.
	VMShutdown(vm VMID)

	// VMGetInfo returns a fresh snapshot of a VM's state.
	VMGetInfo(vm VMID) VMInfo

	// GetTaskInfo returns a task's immutable requirements.
	GetTaskInfo(task TaskID) TaskInfo

	// RequiredSLA, RequiredCPUType, RequiredVMType, GetTaskMemory and
	// IsTaskGPUCapable are convenience projections of GetTaskInfo; the core
	// uses them interchangeably with GetTaskInfo depending on call site.
	RequiredSLA(task TaskID) SLAClass
	RequiredCPUType(task TaskID) CPUType
	RequiredVMType(task TaskID) VMType
	GetTaskMemory(task TaskID) int64
	IsTaskGPUCapable(task TaskID) bool

	// SetTaskPriority is the only task attribute the core is allowed to
	// mutate.
	SetTaskPriority(task TaskID, priority Priority)

	// GetSLAReport and MachineGetClusterEnergy are read at
	// SimulationComplete to produce the final report.
	GetSLAReport() SLAReport
	MachineGetClusterEnergy() float64

	// GetNumTasks and IsTaskCompleted let the adapter account for shutdown.
	GetNumTasks() int
	IsTaskCompleted(task TaskID) bool

	// VMMemoryOverhead is the fixed per-VM memory cost, published by the
	// oracle rather than a Go constant because it can vary by deployment.
	// Every per-VM memory tally in the Cluster View adds this.
	VMMemoryOverhead() int64
}

// SLAReport summarizes SLA compliance across the run, as produced by the
// oracle's ledger.
type SLAReport struct {
	TotalTasks      int
	SLAViolations   int
	UnplacedTasks   int
	MigrationsTotal int
}
