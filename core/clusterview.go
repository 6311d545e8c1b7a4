package core

import "sort"

// pendingArrival is a VM (optionally still needing VMAttach) queued for a
// machine that has not yet reached S0.
type pendingArrival struct {
	vm         VMID
	needAttach bool
}

// queuedMigration is a migration whose destination has not yet reached S0;
// it is started by StateChangeComplete once the destination wakes.
type queuedMigration struct {
	vm VMID
}

type machineState struct {
	vms                 []VMID
	stateChangeInFlight bool
	pendingArrivals     []pendingArrival
	inboundMigration    VMID // "" when no migration is inbound
	queuedMigration     *queuedMigration
	lastActivityTime    int64
	lastMemoryUsed      int64
	sawZeroMemoryOnce   bool // two-sample idle detection for the Power Controller
}

type vmState struct {
	host         MachineID // "" while detached mid-migration
	migrating    bool
	pendingTasks []TaskID
	cooldown     int64
}

// ClusterView is the single in-memory index of machine->VM list, task->VM,
// and every transient flag, pending queue, and cooldown the engines consult.
// It keeps no list of a VM's active tasks: those are read from the Oracle
// (VMGetInfo) when needed. It is the exclusive owner of every mutable map in the
// core: all other components observe it and mutate only through its
// exported operations (§3 Ownership).
//
// ClusterView itself holds no reference to an Oracle: operations that need
// live machine/VM/task facts (memory used, task memory, ...) take an Oracle
// argument so every observation is freshly read, never cached across events.
type ClusterView struct {
	order    []MachineID
	machines map[MachineID]*machineState
	vms      map[VMID]*vmState
	taskVM   map[TaskID]VMID
}

// NewClusterView creates an empty view. Call AddMachine for every machine in
// the cluster during InitScheduler.
func NewClusterView() *ClusterView {
	return &ClusterView{
		machines: make(map[MachineID]*machineState),
		vms:      make(map[VMID]*vmState),
		taskVM:   make(map[TaskID]VMID),
	}
}

// AddMachine registers a machine with the view. Idempotent.
func (cv *ClusterView) AddMachine(id MachineID) {
	if _, ok := cv.machines[id]; ok {
		return
	}
	cv.order = append(cv.order, id)
	cv.machines[id] = &machineState{}
}

// Machines returns every known machine ID in registration order.
func (cv *ClusterView) Machines() []MachineID {
	out := make([]MachineID, len(cv.order))
	copy(out, cv.order)
	return out
}

func (cv *ClusterView) mustMachine(id MachineID) *machineState {
	m, ok := cv.machines[id]
	if !ok {
		panic("clusterview: unknown machine " + string(id))
	}
	return m
}

// MachinesByMemoryUsed returns every machine sorted by ascending current
// memory used, ties broken by ID. This is the canonical decision-path
// ordering for both placement's feasibility scan and consolidation's
// load-sorted scan.
func (cv *ClusterView) MachinesByMemoryUsed(oracle Oracle) []MachineID {
	ids := cv.Machines()
	sort.SliceStable(ids, func(i, j int) bool {
		mi := oracle.MachineGetInfo(ids[i]).MemoryUsed
		mj := oracle.MachineGetInfo(ids[j]).MemoryUsed
		if mi != mj {
			return mi < mj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// MachinesByEnergy returns every machine sorted by ascending S/P-state index
// (S0/P0 first, S5 last), ties broken by ID. The index stands in for
// per-machine energy, since the Oracle exposes only a single cluster-wide
// energy counter; a lower index is a higher-power state, so the machines
// drawing the most power come first. Read-only: no placement or migration
// decision uses this order.
func (cv *ClusterView) MachinesByEnergy(oracle Oracle) []MachineID {
	ids := cv.Machines()
	weight := func(id MachineID) int {
		info := oracle.MachineGetInfo(id)
		return int(info.SState)*len(pStateOrder) + int(info.PState)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		wi, wj := weight(ids[i]), weight(ids[j])
		if wi != wj {
			return wi < wj
		}
		return ids[i] < ids[j]
	})
	return ids
}

var pStateOrder = [...]PState{P0, P1, P2, P3}

// VMsOnMachine returns the VMs currently attached to a machine.
func (cv *ClusterView) VMsOnMachine(m MachineID) []VMID {
	ms := cv.mustMachine(m)
	out := make([]VMID, len(ms.vms))
	copy(out, ms.vms)
	return out
}

// HostOf returns the VM's current host, or ok=false if it is detached
// (mid-migration) or unknown.
func (cv *ClusterView) HostOf(vm VMID) (MachineID, bool) {
	v, ok := cv.vms[vm]
	if !ok || v.host == "" {
		return "", false
	}
	return v.host, true
}

// VMForTask returns the VM hosting a dispatched task.
func (cv *ClusterView) VMForTask(task TaskID) (VMID, bool) {
	vm, ok := cv.taskVM[task]
	return vm, ok
}

// RegisterVM records a newly created VM, not yet attached to any machine's
// VM list (the caller must still call AttachVM once the host reaches S0).
func (cv *ClusterView) RegisterVM(vm VMID, host MachineID) {
	cv.vms[vm] = &vmState{host: host}
}

// AttachVM adds vm to host's list of attached VMs (Invariant 1).
func (cv *ClusterView) AttachVM(vm VMID, host MachineID) {
	v := cv.vmMustExist(vm)
	v.host = host
	ms := cv.mustMachine(host)
	for _, existing := range ms.vms {
		if existing == vm {
			return
		}
	}
	ms.vms = append(ms.vms, vm)
}

// DetachVM removes vm from its current host's VM list and clears its host,
// marking it detached. Used at the start of a migration so a subsequent
// memory query on the old host does not double-count the VM (§4.3 step 2).
func (cv *ClusterView) DetachVM(vm VMID) {
	v := cv.vmMustExist(vm)
	if v.host == "" {
		return
	}
	ms := cv.mustMachine(v.host)
	for i, existing := range ms.vms {
		if existing == vm {
			ms.vms = append(ms.vms[:i], ms.vms[i+1:]...)
			break
		}
	}
	v.host = ""
}

// RemoveVM drops all bookkeeping for a shut-down VM.
func (cv *ClusterView) RemoveVM(vm VMID) {
	if v, ok := cv.vms[vm]; ok && v.host != "" {
		cv.DetachVM(vm)
	}
	delete(cv.vms, vm)
}

// AllVMs returns every VM the view knows about, attached or mid-migration
// (detached, host==""). Used at shutdown so a VM with no current host still
// gets torn down.
func (cv *ClusterView) AllVMs() []VMID {
	out := make([]VMID, 0, len(cv.vms))
	for vm := range cv.vms {
		out = append(out, vm)
	}
	return out
}

func (cv *ClusterView) vmMustExist(vm VMID) *vmState {
	v, ok := cv.vms[vm]
	if !ok {
		panic("clusterview: unknown vm " + string(vm))
	}
	return v
}

// SetMigrating sets or clears vm's migrating flag (Invariant 3).
func (cv *ClusterView) SetMigrating(vm VMID, migrating bool) {
	cv.vmMustExist(vm).migrating = migrating
}

// IsMigrating reports whether vm has an in-flight migration.
func (cv *ClusterView) IsMigrating(vm VMID) bool {
	v, ok := cv.vms[vm]
	return ok && v.migrating
}

// SetInboundMigration marks dest as the target of an in-flight migration for
// vm. Enforces Invariant 6 (at most one migration in flight per
// destination): panics if dest already has one.
func (cv *ClusterView) SetInboundMigration(dest MachineID, vm VMID) {
	ms := cv.mustMachine(dest)
	if ms.inboundMigration != "" {
		panic("clusterview: destination " + string(dest) + " already has an inbound migration")
	}
	ms.inboundMigration = vm
}

// ClearInboundMigration clears dest's inbound-migration marker.
func (cv *ClusterView) ClearInboundMigration(dest MachineID) {
	cv.mustMachine(dest).inboundMigration = ""
}

// HasInboundMigration reports whether dest is currently the target of an
// in-flight migration.
func (cv *ClusterView) HasInboundMigration(dest MachineID) bool {
	return cv.mustMachine(dest).inboundMigration != ""
}

// SetStateChangeInFlight sets or clears a machine's state-change flag
// (Invariant 4).
func (cv *ClusterView) SetStateChangeInFlight(m MachineID, inFlight bool) {
	cv.mustMachine(m).stateChangeInFlight = inFlight
}

// IsStateChangeInFlight reports whether m has an in-flight S-state
// transition.
func (cv *ClusterView) IsStateChangeInFlight(m MachineID) bool {
	return cv.mustMachine(m).stateChangeInFlight
}

// PushPendingArrival queues vm (optionally still needing VMAttach) on
// machine m until m reaches S0.
func (cv *ClusterView) PushPendingArrival(m MachineID, vm VMID, needAttach bool) {
	ms := cv.mustMachine(m)
	ms.pendingArrivals = append(ms.pendingArrivals, pendingArrival{vm: vm, needAttach: needAttach})
}

// DrainPendingArrivals removes and returns every VM queued on m.
func (cv *ClusterView) DrainPendingArrivals(m MachineID) []pendingArrival {
	ms := cv.mustMachine(m)
	out := ms.pendingArrivals
	ms.pendingArrivals = nil
	return out
}

// PendingArrivals peeks at the VMs queued on m without draining them.
func (cv *ClusterView) PendingArrivals(m MachineID) []pendingArrival {
	ms := cv.mustMachine(m)
	out := make([]pendingArrival, len(ms.pendingArrivals))
	copy(out, ms.pendingArrivals)
	return out
}

// PushPendingTask queues a task on vm until vm finishes migrating or
// becomes attached.
func (cv *ClusterView) PushPendingTask(vm VMID, task TaskID) {
	v := cv.vmMustExist(vm)
	v.pendingTasks = append(v.pendingTasks, task)
}

// DrainPendingTasks removes and returns every task queued on vm.
func (cv *ClusterView) DrainPendingTasks(vm VMID) []TaskID {
	v := cv.vmMustExist(vm)
	out := v.pendingTasks
	v.pendingTasks = nil
	return out
}

// RecordDispatch records that task is now running on vm.
func (cv *ClusterView) RecordDispatch(task TaskID, vm VMID) {
	cv.taskVM[task] = vm
}

// ForgetTask removes a completed task's bookkeeping.
func (cv *ClusterView) ForgetTask(task TaskID) {
	delete(cv.taskVM, task)
}

// QueueMigration marks m as awaiting its own wake before a pending
// migration into it can be started (§4.3 step 3, else branch).
func (cv *ClusterView) QueueMigration(dest MachineID, vm VMID) {
	cv.mustMachine(dest).queuedMigration = &queuedMigration{vm: vm}
}

// TakeQueuedMigration removes and returns the migration queued on dest, if
// any.
func (cv *ClusterView) TakeQueuedMigration(dest MachineID) (VMID, bool) {
	ms := cv.mustMachine(dest)
	if ms.queuedMigration == nil {
		return "", false
	}
	vm := ms.queuedMigration.vm
	ms.queuedMigration = nil
	return vm, true
}

// PendingMemory computes the sum of (required_memory + VMMemoryOverhead)
// over every VM queued to land on m: VMs awaiting wake-then-attach (their
// memory need is the sum of their queued tasks' required memory) plus any
// migration queued to land on m once it wakes (that VM's current aggregate
// memory, read live through the oracle).
func (cv *ClusterView) PendingMemory(m MachineID, oracle Oracle) int64 {
	ms := cv.mustMachine(m)
	overhead := oracle.VMMemoryOverhead()
	var total int64
	for _, pa := range ms.pendingArrivals {
		total += overhead
		if v, ok := cv.vms[pa.vm]; ok {
			for _, t := range v.pendingTasks {
				total += oracle.GetTaskMemory(t)
			}
		}
	}
	if ms.queuedMigration != nil {
		total += overhead
		info := oracle.VMGetInfo(ms.queuedMigration.vm)
		for _, t := range info.TaskIDs {
			total += oracle.GetTaskMemory(t)
		}
	}
	return total
}

// Cooldown returns vm's remaining migration cooldown in ticks.
func (cv *ClusterView) Cooldown(vm VMID) int64 {
	v, ok := cv.vms[vm]
	if !ok {
		return 0
	}
	return v.cooldown
}

// StartCooldown sets vm's migration cooldown to the given number of ticks.
func (cv *ClusterView) StartCooldown(vm VMID, ticks int64) {
	cv.vmMustExist(vm).cooldown = ticks
}

// TickCooldowns decrements every VM's cooldown by delta, clamped at zero.
// Called once per SchedulerCheck tick (§4.4).
func (cv *ClusterView) TickCooldowns(delta int64) {
	for _, v := range cv.vms {
		v.cooldown -= delta
		if v.cooldown < 0 {
			v.cooldown = 0
		}
	}
}

// RecordActivity updates a machine's activity/memory sample, used by the
// Power Controller's idle detection.
func (cv *ClusterView) RecordActivity(m MachineID, now int64, memoryUsed int64) {
	ms := cv.mustMachine(m)
	ms.lastActivityTime = now
	ms.lastMemoryUsed = memoryUsed
}

// LastActivity returns the last recorded activity time and memory sample
// for a machine.
func (cv *ClusterView) LastActivity(m MachineID) (t int64, memoryUsed int64) {
	ms := cv.mustMachine(m)
	return ms.lastActivityTime, ms.lastMemoryUsed
}

// WasIdleLastSample reports whether m's memory usage was already observed
// at zero on the previous SchedulerCheck tick (the two-sample idle test
// §4.4 requires before stepping S-state toward S5).
func (cv *ClusterView) WasIdleLastSample(m MachineID) bool {
	return cv.mustMachine(m).sawZeroMemoryOnce
}

// SetIdleSample records whether m's memory usage was zero on this tick, for
// comparison on the next tick.
func (cv *ClusterView) SetIdleSample(m MachineID, idle bool) {
	cv.mustMachine(m).sawZeroMemoryOnce = idle
}

// HasPendingWork reports whether m has anything queued on it: pending
// arrivals or a queued inbound migration. The Power Controller always pushes
// such a machine to S0 regardless of its memory trend.
func (cv *ClusterView) HasPendingWork(m MachineID) bool {
	ms := cv.mustMachine(m)
	return len(ms.pendingArrivals) > 0 || ms.queuedMigration != nil
}
