package core

import "strconv"

// testOracle is a small synchronous Oracle fake for white-box unit tests of
// the three engines. Unlike the production harness (internal/harness), state
// changes and migrations apply immediately rather than after a latency —
// the engines never assume otherwise, since async completion is purely a
// host/oracle concern signalled back through StateChangeComplete/
// MigrationDone, not something the core reads synchronously.
type testOracle struct {
	order    []MachineID
	machines map[MachineID]*testMachine
	vms      map[VMID]*testVM
	tasks    map[TaskID]*testTask
	overhead int64
	vmSeq    int

	energy          float64
	migrationsTotal int
	slaViolations   int
	unplacedTotal   int

	stateChanges []stateChangeCall
	perfChanges  []perfChangeCall
	migrations   []migrateCall
}

type stateChangeCall struct {
	ID     MachineID
	Target SState
}

type perfChangeCall struct {
	ID     MachineID
	Target PState
}

type migrateCall struct {
	VM   VMID
	Dest MachineID
}

type testMachine struct {
	cpu    CPUType
	hasGPU bool
	memCap int64
	sstate SState
	pstate PState
}

type testVM struct {
	vtype VMType
	cpu   CPUType
	host  MachineID
	tasks []TaskID
}

type testTask struct {
	cpu        CPUType
	vtype      VMType
	mem        int64
	gpu        bool
	sla        SLAClass
	priority   Priority
	completed  bool
}

func newTestOracle(overhead int64) *testOracle {
	return &testOracle{
		machines: make(map[MachineID]*testMachine),
		vms:      make(map[VMID]*testVM),
		tasks:    make(map[TaskID]*testTask),
		overhead: overhead,
	}
}

func (o *testOracle) addMachine(id MachineID, cpu CPUType, hasGPU bool, memCap int64, sstate SState) {
	o.order = append(o.order, id)
	o.machines[id] = &testMachine{cpu: cpu, hasGPU: hasGPU, memCap: memCap, sstate: sstate, pstate: P0}
}

func (o *testOracle) addTask(id TaskID, cpu CPUType, vtype VMType, mem int64, gpu bool, sla SLAClass) {
	o.tasks[id] = &testTask{cpu: cpu, vtype: vtype, mem: mem, gpu: gpu, sla: sla}
}

func (o *testOracle) memoryUsed(id MachineID) int64 {
	var total int64
	for _, v := range o.vms {
		if v.host != id {
			continue
		}
		total += o.overhead
		for _, t := range v.tasks {
			total += o.tasks[t].mem
		}
	}
	return total
}

func (o *testOracle) MachineGetTotal() int { return len(o.order) }

func (o *testOracle) MachineGetInfo(id MachineID) MachineInfo {
	m := o.machines[id]
	return MachineInfo{
		ID:             id,
		CPUType:        m.cpu,
		HasGPU:         m.hasGPU,
		MemoryCapacity: m.memCap,
		MemoryUsed:     o.memoryUsed(id),
		SState:         m.sstate,
		PState:         m.pstate,
	}
}

func (o *testOracle) MachineGetCPUType(id MachineID) CPUType { return o.machines[id].cpu }

func (o *testOracle) MachineSetState(id MachineID, target SState) {
	o.stateChanges = append(o.stateChanges, stateChangeCall{ID: id, Target: target})
	o.machines[id].sstate = target
}

func (o *testOracle) MachineSetCorePerformance(id MachineID, target PState) {
	o.perfChanges = append(o.perfChanges, perfChangeCall{ID: id, Target: target})
	o.machines[id].pstate = target
}

func (o *testOracle) VMCreate(host MachineID, vmType VMType, cpu CPUType) VMID {
	o.vmSeq++
	id := VMID("v" + strconv.Itoa(o.vmSeq))
	o.vms[id] = &testVM{vtype: vmType, cpu: cpu}
	return id
}

func (o *testOracle) VMAttach(vm VMID, host MachineID) { o.vms[vm].host = host }

func (o *testOracle) VMAddTask(vm VMID, task TaskID, priority Priority) {
	v := o.vms[vm]
	v.tasks = append(v.tasks, task)
	o.tasks[task].priority = priority
}

func (o *testOracle) VMMigrate(vm VMID, dest MachineID) {
	o.migrations = append(o.migrations, migrateCall{VM: vm, Dest: dest})
	o.migrationsTotal++
	o.vms[vm].host = dest
}

func (o *testOracle) VMShutdown(vm VMID) { delete(o.vms, vm) }

func (o *testOracle) VMGetInfo(vm VMID) VMInfo {
	v := o.vms[vm]
	return VMInfo{ID: vm, Type: v.vtype, CPU: v.cpu, Host: v.host, TaskIDs: append([]TaskID(nil), v.tasks...)}
}

func (o *testOracle) GetTaskInfo(task TaskID) TaskInfo {
	t := o.tasks[task]
	return TaskInfo{ID: task, RequiredCPU: t.cpu, RequiredVMType: t.vtype, RequiredMemory: t.mem, GPUCapable: t.gpu, SLA: t.sla}
}

func (o *testOracle) RequiredSLA(task TaskID) SLAClass    { return o.tasks[task].sla }
func (o *testOracle) RequiredCPUType(task TaskID) CPUType { return o.tasks[task].cpu }
func (o *testOracle) RequiredVMType(task TaskID) VMType   { return o.tasks[task].vtype }
func (o *testOracle) GetTaskMemory(task TaskID) int64     { return o.tasks[task].mem }
func (o *testOracle) IsTaskGPUCapable(task TaskID) bool   { return o.tasks[task].gpu }

func (o *testOracle) SetTaskPriority(task TaskID, priority Priority) {
	o.tasks[task].priority = priority
}

func (o *testOracle) GetSLAReport() SLAReport {
	return SLAReport{
		TotalTasks:      len(o.tasks),
		SLAViolations:   o.slaViolations,
		UnplacedTasks:   o.unplacedTotal,
		MigrationsTotal: o.migrationsTotal,
	}
}

func (o *testOracle) MachineGetClusterEnergy() float64 { return o.energy }
func (o *testOracle) GetNumTasks() int                 { return len(o.tasks) }
func (o *testOracle) IsTaskCompleted(task TaskID) bool  { return o.tasks[task].completed }
func (o *testOracle) VMMemoryOverhead() int64           { return o.overhead }
