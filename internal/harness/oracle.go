package harness

import "github.com/CinnamonNinian/cloudsim-eec/core"

// The methods in this file implement core.Oracle. Together with events.go
// they make Harness a (small, test-only) complete stand-in for the
// production discrete-event simulator the real core plugs into.

var _ core.Oracle = (*Harness)(nil)

func (h *Harness) MachineGetTotal() int { return len(h.machines) }

func (h *Harness) MachineGetInfo(id core.MachineID) core.MachineInfo {
	m := h.machine[id]
	return core.MachineInfo{
		ID:             id,
		CPUType:        m.cpu,
		HasGPU:         m.hasGPU,
		MemoryCapacity: m.memCap,
		MemoryUsed:     h.memoryUsed(m),
		SState:         m.sstate,
		PState:         m.pstate,
	}
}

func (h *Harness) memoryUsed(m *machineRec) int64 {
	var total int64
	for vmID := range m.vms {
		v := h.vm[vmID]
		total += h.cfg.VMOverhead
		for taskID := range v.tasks {
			total += h.task[taskID].spec.RequiredMemory
		}
	}
	return total
}

func (h *Harness) MachineGetCPUType(id core.MachineID) core.CPUType {
	return h.machine[id].cpu
}

func (h *Harness) MachineSetState(id core.MachineID, target core.SState) {
	h.schedule(stateChangeCompleteEvent{
		time:    h.clock + h.cfg.StateChangeLatency,
		machine: id,
		target:  target,
	})
}

func (h *Harness) MachineSetCorePerformance(id core.MachineID, target core.PState) {
	h.machine[id].pstate = target
}

func (h *Harness) VMCreate(host core.MachineID, vmType core.VMType, cpu core.CPUType) core.VMID {
	id := newVMID()
	h.vm[id] = &vmRec{id: id, vtype: vmType, cpu: cpu, tasks: make(map[core.TaskID]bool)}
	return id
}

func (h *Harness) VMAttach(vm core.VMID, host core.MachineID) {
	v := h.vm[vm]
	v.host = host
	h.machine[host].vms[vm] = true
}

func (h *Harness) VMAddTask(vm core.VMID, task core.TaskID, priority core.Priority) {
	v := h.vm[vm]
	v.tasks[task] = true
	t := h.task[task]
	t.priority = priority
	h.schedule(completionEvent{time: h.clock + t.spec.Duration, task: task})
}

func (h *Harness) VMMigrate(vm core.VMID, dest core.MachineID) {
	v := h.vm[vm]
	if v.host != "" {
		delete(h.machine[v.host].vms, vm)
	}
	v.host = ""
	h.migrationsTotal++
	h.schedule(migrationDoneEvent{
		time: h.clock + h.cfg.MigrationLatency,
		vm:   vm,
		dest: dest,
	})
}

func (h *Harness) VMShutdown(vm core.VMID) {
	v, ok := h.vm[vm]
	if !ok {
		return
	}
	if v.host != "" {
		delete(h.machine[v.host].vms, vm)
	}
	delete(h.vm, vm)
}

func (h *Harness) VMGetInfo(vm core.VMID) core.VMInfo {
	v := h.vm[vm]
	ids := make([]core.TaskID, 0, len(v.tasks))
	for t := range v.tasks {
		ids = append(ids, t)
	}
	return core.VMInfo{ID: vm, Type: v.vtype, CPU: v.cpu, Host: v.host, TaskIDs: ids}
}

func (h *Harness) GetTaskInfo(task core.TaskID) core.TaskInfo {
	t := h.task[task]
	return core.TaskInfo{
		ID:               task,
		RequiredCPU:      t.spec.RequiredCPU,
		RequiredVMType:   t.spec.RequiredVMType,
		RequiredMemory:   t.spec.RequiredMemory,
		GPUCapable:       t.spec.GPUCapable,
		SLA:              t.spec.SLA,
		ArrivalTime:      t.arrival,
		TargetCompletion: t.arrival + t.spec.Duration,
	}
}

func (h *Harness) RequiredSLA(task core.TaskID) core.SLAClass    { return h.task[task].spec.SLA }
func (h *Harness) RequiredCPUType(task core.TaskID) core.CPUType { return h.task[task].spec.RequiredCPU }
func (h *Harness) RequiredVMType(task core.TaskID) core.VMType {
	return h.task[task].spec.RequiredVMType
}
func (h *Harness) GetTaskMemory(task core.TaskID) int64 { return h.task[task].spec.RequiredMemory }
func (h *Harness) IsTaskGPUCapable(task core.TaskID) bool {
	return h.task[task].spec.GPUCapable
}

func (h *Harness) SetTaskPriority(task core.TaskID, priority core.Priority) {
	h.task[task].priority = priority
}

// LastPriority exposes a dispatched task's priority for test assertions.
func (h *Harness) LastPriority(task core.TaskID) core.Priority {
	return h.task[task].priority
}

func (h *Harness) GetSLAReport() core.SLAReport {
	return core.SLAReport{
		TotalTasks:      len(h.task),
		SLAViolations:   h.slaViolations,
		UnplacedTasks:   h.unplacedTotal,
		MigrationsTotal: h.migrationsTotal,
	}
}

func (h *Harness) MachineGetClusterEnergy() float64 { return h.energy }

// sWattage and pFactor give each machine's instantaneous power draw: S1-S5
// are flat idle-power tiers (deeper sleep, less power), and P-state only
// matters while a machine is at S0.
var sWattage = map[core.SState]float64{
	core.S0: 100, core.S1: 60, core.S2: 40, core.S3: 20, core.S4: 8, core.S5: 0,
}

var pFactor = map[core.PState]float64{
	core.P0: 1.0, core.P1: 0.85, core.P2: 0.7, core.P3: 0.55,
}

func wattage(s core.SState, p core.PState) float64 {
	if s != core.S0 {
		return sWattage[s]
	}
	return sWattage[core.S0] * pFactor[p]
}

func (h *Harness) GetNumTasks() int { return len(h.task) }

func (h *Harness) IsTaskCompleted(task core.TaskID) bool {
	t, ok := h.task[task]
	return ok && t.completed
}

func (h *Harness) VMMemoryOverhead() int64 { return h.cfg.VMOverhead }
