// Package harness is a minimal in-process stand-in for the discrete-event
// cluster simulator the core treats as an external oracle (spec §1, §6).
// It exists only for tests and the demo CLI: it is not part of the core and
// is deliberately much smaller than a production simulator, modelled on the
// teacher's sim.Simulator/sim.EventQueue event loop (sim/simulator.go,
// sim/event.go) but driving core.Scheduler's callback surface instead of a
// request batch loop.
package harness

import (
	"container/heap"
	"fmt"

	"github.com/CinnamonNinian/cloudsim-eec/core"
	"github.com/sirupsen/logrus"
	"github.com/google/uuid"
)

// MachineSpec describes a machine to add to the harness at construction.
type MachineSpec struct {
	CPU    core.CPUType
	HasGPU bool
	Memory int64
	// InitialSState seeds the machine's starting power state. Zero value is
	// S0 (fully on), matching every machine being awake by default.
	InitialSState core.SState
}

// TaskSpec describes a task's requirements for ScheduleArrival.
type TaskSpec struct {
	RequiredCPU    core.CPUType
	RequiredVMType core.VMType
	RequiredMemory int64
	GPUCapable     bool
	SLA            core.SLAClass
	Duration       int64 // ticks from dispatch to completion
}

type machineRec struct {
	id     core.MachineID
	cpu    core.CPUType
	hasGPU bool
	memCap int64
	sstate core.SState
	pstate core.PState
	vms    map[core.VMID]bool
}

type vmRec struct {
	id     core.VMID
	vtype  core.VMType
	cpu    core.CPUType
	host   core.MachineID
	tasks  map[core.TaskID]bool
}

type taskRec struct {
	id        core.TaskID
	spec      TaskSpec
	arrival   int64
	priority  core.Priority
	completed bool
}

// Config carries the harness's fixed-latency knobs: how long a requested
// S-state transition or VM migration takes to complete.
type Config struct {
	StateChangeLatency int64
	MigrationLatency   int64
	VMOverhead         int64
}

// DefaultConfig returns reasonable harness latencies for tests and demos.
func DefaultConfig() Config {
	return Config{
		StateChangeLatency: 2_000_000,
		MigrationLatency:   3_000_000,
		VMOverhead:         256,
	}
}

// Harness is a tiny discrete-event simulator: it owns the clock, the
// machine/VM/task catalogue, and implements core.Oracle so a core.Scheduler
// can be driven end-to-end without a production simulator attached.
type Harness struct {
	cfg   Config
	clock int64
	seq   int64
	queue eventQueue

	machines []core.MachineID
	machine  map[core.MachineID]*machineRec
	vm       map[core.VMID]*vmRec
	task     map[core.TaskID]*taskRec

	sched       *core.Scheduler
	initialized bool

	energy          float64
	lastEnergyTime  int64
	migrationsTotal int
	slaViolations   int
	unplacedTotal   int
}

// New creates an empty Harness. Call AddMachine for each machine, then
// Attach a core.Scheduler before scheduling events and calling Run.
func New(cfg Config) *Harness {
	return &Harness{
		cfg:     cfg,
		machine: make(map[core.MachineID]*machineRec),
		vm:      make(map[core.VMID]*vmRec),
		task:    make(map[core.TaskID]*taskRec),
	}
}

// Attach wires the harness to the scheduler it will drive. Must be called
// before Run.
func (h *Harness) Attach(s *core.Scheduler) {
	h.sched = s
}

// AddMachine registers a machine and returns its assigned ID. IDs are
// assigned in the same m0, m1, ... convention core.MachineIDAt uses, so a
// core.Scheduler built against MachineGetTotal()==len(machines) enumerates
// exactly these IDs during InitScheduler.
func (h *Harness) AddMachine(spec MachineSpec) core.MachineID {
	id := core.MachineIDAt(len(h.machines))
	h.machines = append(h.machines, id)
	h.machine[id] = &machineRec{
		id:     id,
		cpu:    spec.CPU,
		hasGPU: spec.HasGPU,
		memCap: spec.Memory,
		sstate: spec.InitialSState,
		pstate: core.P0,
		vms:    make(map[core.VMID]bool),
	}
	return id
}

// Clock returns the harness's current simulated time.
func (h *Harness) Clock() int64 { return h.clock }

func (h *Harness) nextSeq() int64 {
	h.seq++
	return h.seq
}

func (h *Harness) schedule(ev event) {
	heap.Push(&h.queue, queueEntry{ev: ev, seq: h.nextSeq()})
}

// ScheduleArrival schedules a task's arrival at the given time with an
// explicit, caller-chosen TaskID (determinism over uuid randomness in
// tests).
func (h *Harness) ScheduleArrival(at int64, id core.TaskID, spec TaskSpec) {
	h.task[id] = &taskRec{id: id, spec: spec, arrival: at}
	h.schedule(arrivalEvent{time: at, task: id})
}

// ScheduleSLAWarning schedules an SLAWarning callback for a task at a given
// time, standing in for the simulator's own SLA-jeopardy detection.
func (h *Harness) ScheduleSLAWarning(at int64, task core.TaskID) {
	h.schedule(slaWarningEvent{time: at, task: task})
}

// ScheduleTick schedules a SchedulerCheck callback at the given time.
func (h *Harness) ScheduleTick(at int64) {
	h.schedule(tickEvent{time: at})
}

// ScheduleMemoryWarning schedules a MemoryWarning callback for a machine.
func (h *Harness) ScheduleMemoryWarning(at int64, machine core.MachineID) {
	h.schedule(memoryWarningEvent{time: at, machine: machine})
}

// ScheduleTicksEvery schedules a SchedulerCheck callback every interval
// ticks across [interval, horizon], mirroring the teacher's fixed
// stepDuration simulation cadence (cmd/root.go's --step flag).
func (h *Harness) ScheduleTicksEvery(interval, horizon int64) {
	for at := interval; at <= horizon; at += interval {
		h.ScheduleTick(at)
	}
}

// Run drains the event queue up to and including horizon, then fires
// SimulationComplete. For one-shot batch runs (tests, the `run` CLI
// subcommand).
func (h *Harness) Run(horizon int64) {
	h.RunUntil(horizon)
	h.clock = horizon
	h.sched.SimulationComplete(h.clock)
}

// RunUntil drains the event queue up to and including horizon without
// finalizing the simulation, so the caller can schedule more events and keep
// advancing. Used by the dashboard's live step loop; Finish ends the run.
func (h *Harness) RunUntil(horizon int64) {
	h.ensureInit()
	for h.queue.Len() > 0 {
		entry := heap.Pop(&h.queue).(queueEntry)
		if entry.ev.Timestamp() > horizon {
			heap.Push(&h.queue, entry)
			break
		}
		h.accrueEnergy(entry.ev.Timestamp())
		h.clock = entry.ev.Timestamp()
		logrus.WithFields(logrus.Fields{"time": h.clock, "event": fmt.Sprintf("%T", entry.ev)}).Debug("harness: executing event")
		entry.ev.execute(h)
	}
	if h.clock < horizon {
		h.accrueEnergy(horizon)
		h.clock = horizon
	}
}

// Finish fires SimulationComplete. Call once, after the last RunUntil.
func (h *Harness) Finish() {
	h.accrueEnergy(h.clock)
	h.sched.SimulationComplete(h.clock)
}

// accrueEnergy integrates each machine's instantaneous power draw over the
// interval since the last accrual, in watt-ticks, and folds it into the
// cluster energy ledger MachineGetClusterEnergy reports.
func (h *Harness) accrueEnergy(until int64) {
	delta := until - h.lastEnergyTime
	if delta <= 0 {
		h.lastEnergyTime = until
		return
	}
	var watts float64
	for _, id := range h.machines {
		m := h.machine[id]
		watts += wattage(m.sstate, m.pstate)
	}
	h.energy += watts * float64(delta)
	h.lastEnergyTime = until
}

func (h *Harness) ensureInit() {
	if h.initialized {
		return
	}
	h.sched.InitScheduler()
	h.initialized = true
}

// newVMID generates a collision-free VM identity. The Oracle (not the core)
// owns identity assignment; here that is the harness.
func newVMID() core.VMID {
	return core.VMID(uuid.NewString())
}
