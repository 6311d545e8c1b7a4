package core

import (
	"github.com/CinnamonNinian/cloudsim-eec/internal/trace"
	"github.com/sirupsen/logrus"
)

// MigrationEngine implements §4.3: choosing a migration destination on SLA
// warnings, and opportunistic consolidation on task completion.
type MigrationEngine struct {
	oracle Oracle
	view   *ClusterView
	cfg    Config
	trace  *trace.Run
}

// NewMigrationEngine constructs a MigrationEngine over a shared ClusterView.
func NewMigrationEngine(oracle Oracle, view *ClusterView, cfg Config) *MigrationEngine {
	return &MigrationEngine{oracle: oracle, view: view, cfg: cfg}
}

// SetTrace attaches a decision-trace recorder. Optional: a nil trace (the
// default) records nothing.
func (me *MigrationEngine) SetTrace(t *trace.Run) {
	me.trace = t
}

// vmAggregate computes a VM's aggregate memory demand: VMMemoryOverhead plus
// the sum of its active tasks' required memory.
func (me *MigrationEngine) vmAggregate(vm VMID) int64 {
	info := me.oracle.VMGetInfo(vm)
	total := me.oracle.VMMemoryOverhead()
	for _, t := range info.TaskIDs {
		total += me.oracle.GetTaskMemory(t)
	}
	return total
}

// vmGPUCapable reports whether any task currently hosted on vm is
// GPU-capable, which drives the destination's GPU preference.
func (me *MigrationEngine) vmGPUCapable(vm VMID) bool {
	info := me.oracle.VMGetInfo(vm)
	for _, t := range info.TaskIDs {
		if me.oracle.IsTaskGPUCapable(t) {
			return true
		}
	}
	return false
}

// pickDestination runs the second scoring pass keyed on a VM's aggregate
// memory and CPU type, excluding the VM's current host and any machine
// already experiencing an inbound migration. Among feasible hosts it
// prefers running over non-running, mirroring §4.2's dominance order with
// memory already guaranteed feasible.
func (me *MigrationEngine) pickDestination(vm VMID, exclude MachineID) (MachineID, bool) {
	cpu := me.oracle.VMGetInfo(vm).CPU
	need := me.vmAggregate(vm)
	gpuPreferred := me.vmGPUCapable(vm)

	var best MachineID
	found := false
	var bestInfo MachineInfo
	for _, id := range me.view.MachinesByMemoryUsed(me.oracle) {
		if id == exclude {
			continue
		}
		if me.view.HasInboundMigration(id) {
			continue
		}
		info := me.oracle.MachineGetInfo(id)
		if info.CPUType != cpu {
			continue
		}
		pending := me.view.PendingMemory(id, me.oracle)
		if info.MemoryCapacity-info.MemoryUsed-pending < need {
			continue
		}
		if !found {
			best, bestInfo, found = id, info, true
			continue
		}
		if better := migrationDominates(info, bestInfo, gpuPreferred); better {
			best, bestInfo = id, info
		}
	}
	return best, found
}

func migrationDominates(a, b MachineInfo, gpuPreferred bool) bool {
	if gpuPreferred && a.HasGPU != b.HasGPU {
		return a.HasGPU
	}
	aRunning, bRunning := a.SState == S0, b.SState == S0
	return aRunning && !bRunning
}

// OnSLAWarning implements §4.3's primary operation. No-op if the VM is
// already migrating or within cooldown; logs and absorbs the warning if no
// destination is feasible. Returns true if a migration was initiated.
func (me *MigrationEngine) OnSLAWarning(task TaskID) bool {
	vm, ok := me.view.VMForTask(task)
	if !ok {
		logrus.WithField("task", task).Debug("SLAWarning for task with no known VM, ignoring")
		return false
	}
	if me.view.IsMigrating(vm) {
		logrus.WithField("vm", vm).Debug("SLAWarning: vm already migrating, no-op")
		return false
	}
	if me.view.Cooldown(vm) > 0 {
		logrus.WithField("vm", vm).Debug("SLAWarning: vm within migration cooldown, no-op")
		return false
	}

	host, hasHost := me.view.HostOf(vm)
	if !hasHost {
		return false
	}

	dest, found := me.pickDestination(vm, host)
	if !found {
		logrus.WithFields(logrus.Fields{"vm": vm, "task": task}).Info("no migration target found, SLA warning absorbed")
		me.trace.RecordMigration(trace.MigrationRecord{VM: string(vm), Source: string(host), Migrated: false, Reason: "no feasible destination"})
		return false
	}

	me.view.SetMigrating(vm, true)
	me.view.SetInboundMigration(dest, vm)
	me.view.DetachVM(vm)

	destInfo := me.oracle.MachineGetInfo(dest)
	if destInfo.SState == S0 && !me.view.IsStateChangeInFlight(dest) {
		me.oracle.VMMigrate(vm, dest)
	} else {
		me.view.QueueMigration(dest, vm)
		if destInfo.SState != S0 && !me.view.IsStateChangeInFlight(dest) {
			me.oracle.MachineSetState(dest, S0)
			me.view.SetStateChangeInFlight(dest, true)
		}
	}
	logrus.WithFields(logrus.Fields{"vm": vm, "from": host, "to": dest}).Info("migration initiated")
	me.trace.RecordMigration(trace.MigrationRecord{VM: string(vm), Source: string(host), Destination: string(dest), Migrated: true, Reason: "sla warning"})
	return true
}

// OnMigrationDone implements §4.3's completion operation: clears the
// migrating/inbound flags, attaches the VM to its new host, drains its
// pending task list, and starts its cooldown.
func (me *MigrationEngine) OnMigrationDone(vm VMID, dest MachineID) {
	me.view.SetMigrating(vm, false)
	me.view.ClearInboundMigration(dest)
	me.oracle.VMAttach(vm, dest)
	me.view.AttachVM(vm, dest)

	for _, task := range me.view.DrainPendingTasks(vm) {
		priority := PriorityForSLA(me.oracle.RequiredSLA(task))
		me.oracle.VMAddTask(vm, task, priority)
		me.view.RecordDispatch(task, vm)
	}
	me.view.StartCooldown(vm, me.cfg.MigrationCooldownTicks)
}

// OnTaskComplete runs the opportunistic consolidation pass: from the
// least-loaded machine, pick the VM holding the task with the smallest
// memory footprint and try to migrate it to a machine in the upper half of
// the load-sorted list that still has room. Optional (Config.ConsolidationEnabled);
// skipped if the candidate is already migrating. Returns true if a
// migration was initiated.
func (me *MigrationEngine) OnTaskComplete() bool {
	if !me.cfg.ConsolidationEnabled {
		return false
	}
	ordered := me.view.MachinesByMemoryUsed(me.oracle)
	if len(ordered) < 2 {
		return false
	}
	source := ordered[0]
	vm, ok := me.smallestFootprintVM(source)
	if !ok {
		return false
	}
	if me.view.IsMigrating(vm) || me.view.Cooldown(vm) > 0 {
		return false
	}

	upperHalf := ordered[len(ordered)/2:]
	need := me.vmAggregate(vm)
	cpu := me.oracle.VMGetInfo(vm).CPU

	for _, dest := range upperHalf {
		if dest == source || me.view.HasInboundMigration(dest) {
			continue
		}
		info := me.oracle.MachineGetInfo(dest)
		if info.CPUType != cpu {
			continue
		}
		pending := me.view.PendingMemory(dest, me.oracle)
		if info.MemoryCapacity-info.MemoryUsed-pending < need {
			continue
		}

		me.view.SetMigrating(vm, true)
		me.view.SetInboundMigration(dest, vm)
		me.view.DetachVM(vm)
		if info.SState == S0 && !me.view.IsStateChangeInFlight(dest) {
			me.oracle.VMMigrate(vm, dest)
		} else {
			me.view.QueueMigration(dest, vm)
			if info.SState != S0 && !me.view.IsStateChangeInFlight(dest) {
				me.oracle.MachineSetState(dest, S0)
				me.view.SetStateChangeInFlight(dest, true)
			}
		}
		logrus.WithFields(logrus.Fields{"vm": vm, "from": source, "to": dest}).Info("opportunistic consolidation migration initiated")
		me.trace.RecordMigration(trace.MigrationRecord{VM: string(vm), Source: string(source), Destination: string(dest), Migrated: true, Reason: "consolidation"})
		return true
	}
	return false
}

// smallestFootprintVM picks the VM on m holding the task with the smallest
// memory footprint.
func (me *MigrationEngine) smallestFootprintVM(m MachineID) (VMID, bool) {
	var best VMID
	found := false
	var bestMem int64
	for _, vm := range me.view.VMsOnMachine(m) {
		info := me.oracle.VMGetInfo(vm)
		for _, t := range info.TaskIDs {
			mem := me.oracle.GetTaskMemory(t)
			if !found || mem < bestMem {
				best, bestMem, found = vm, mem, true
			}
		}
	}
	return best, found
}
