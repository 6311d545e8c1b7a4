package core

import "github.com/CinnamonNinian/cloudsim-eec/internal/trace"

// Candidate is a machine under consideration for placement, paired with the
// count of VMs currently attached to it (some strategies break ties on
// load spread rather than first-fit).
type Candidate struct {
	Info    MachineInfo
	VMCount int
}

// Feasible reports whether a candidate machine can take a task: matching
// CPU architecture and enough free capacity once pending reservations are
// subtracted.
func (c Candidate) Feasible(task TaskInfo, pendingMemory int64) bool {
	if c.Info.CPUType != task.RequiredCPU {
		return false
	}
	free := c.Info.MemoryCapacity - c.Info.MemoryUsed - pendingMemory
	return free >= task.RequiredMemory
}

// HasEnoughMemoryNow reports whether a candidate has room without counting
// any pending reservation (tier 3 of the Greedy dominance order).
func (c Candidate) HasEnoughMemoryNow(task TaskInfo) bool {
	return c.Info.MemoryCapacity-c.Info.MemoryUsed >= task.RequiredMemory
}

// PlacementStrategy picks the best feasible machine for a task. candidates
// is pre-filtered to feasible machines only, pre-sorted in ascending
// memory-used order (ClusterView.MachinesByMemoryUsed's canonical order).
// Implementations return an index into candidates.
type PlacementStrategy interface {
	Select(candidates []Candidate, task TaskInfo, gpuPreferred bool) int
}

// Greedy is spec.md's required algorithm: a lexicographic dominance order
// (GPU preference, then running over not-running, then enough-memory-now
// over not-yet), with early exit the moment a candidate satisfies all three.
// This is the default strategy.
type Greedy struct{}

func (Greedy) Select(candidates []Candidate, task TaskInfo, gpuPreferred bool) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if dominates(candidates[i], candidates[best], task, gpuPreferred) {
			best = i
		}
	}
	for i, c := range candidates {
		if isIdeal(c, task, gpuPreferred) {
			return i
		}
	}
	return best
}

// dominates reports whether a strictly dominates b under the lexicographic
// order: GPU preference (if requested), then running (S0), then
// enough-memory-now.
func dominates(a, b Candidate, task TaskInfo, gpuPreferred bool) bool {
	if gpuPreferred && a.Info.HasGPU != b.Info.HasGPU {
		return a.Info.HasGPU
	}
	aRunning, bRunning := a.Info.SState == S0, b.Info.SState == S0
	if aRunning != bRunning {
		return aRunning
	}
	aNow, bNow := a.HasEnoughMemoryNow(task), b.HasEnoughMemoryNow(task)
	if aNow != bNow {
		return aNow
	}
	return false
}

func isIdeal(c Candidate, task TaskInfo, gpuPreferred bool) bool {
	if gpuPreferred && !c.Info.HasGPU {
		return false
	}
	if c.Info.SState != S0 {
		return false
	}
	return c.HasEnoughMemoryNow(task)
}

// Balanced applies the same dominance tiers as Greedy but, instead of
// stopping at the first acceptable candidate, scans every feasible machine
// and on a tier tie prefers the one with fewer attached VMs — spreading load
// across the fleet rather than packing the first-fit host.
type Balanced struct{}

func (Balanced) Select(candidates []Candidate, task TaskInfo, gpuPreferred bool) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if betterBalanced(candidates[i], candidates[best], task, gpuPreferred) {
			best = i
		}
	}
	return best
}

func betterBalanced(a, b Candidate, task TaskInfo, gpuPreferred bool) bool {
	if gpuPreferred && a.Info.HasGPU != b.Info.HasGPU {
		return a.Info.HasGPU
	}
	aRunning, bRunning := a.Info.SState == S0, b.Info.SState == S0
	if aRunning != bRunning {
		return aRunning
	}
	aNow, bNow := a.HasEnoughMemoryNow(task), b.HasEnoughMemoryNow(task)
	if aNow != bNow {
		return aNow
	}
	if a.VMCount != b.VMCount {
		return a.VMCount < b.VMCount
	}
	return false
}

// PMapper is a power-aware strategy: it prefers an already-running machine
// over waking a new one even more strongly than Greedy does (running is
// checked before GPU preference), and among running+feasible candidates it
// packs tightly — picking the machine with the least remaining headroom
// that still fits the task — so that other machines accumulate the idle
// time the Power Controller needs to sleep them. Grounded in the original
// source's p-mapper-like consolidation variant (Design Notes §9).
type PMapper struct{}

func (PMapper) Select(candidates []Candidate, task TaskInfo, gpuPreferred bool) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if betterPMapper(candidates[i], candidates[best], task, gpuPreferred) {
			best = i
		}
	}
	return best
}

func betterPMapper(a, b Candidate, task TaskInfo, gpuPreferred bool) bool {
	aRunning, bRunning := a.Info.SState == S0, b.Info.SState == S0
	if aRunning != bRunning {
		return aRunning
	}
	if gpuPreferred && a.Info.HasGPU != b.Info.HasGPU {
		return a.Info.HasGPU
	}
	aNow, bNow := a.HasEnoughMemoryNow(task), b.HasEnoughMemoryNow(task)
	if aNow != bNow {
		return aNow
	}
	if !aNow {
		return false
	}
	aHeadroom := a.Info.MemoryCapacity - a.Info.MemoryUsed
	bHeadroom := b.Info.MemoryCapacity - b.Info.MemoryUsed
	return aHeadroom < bHeadroom
}

// NewPlacementStrategy creates a PlacementStrategy by name. Empty string
// defaults to Greedy. Panics on unrecognized names, mirroring the teacher's
// NewScheduler/NewRoutingPolicy factory idiom.
func NewPlacementStrategy(name string) PlacementStrategy {
	switch name {
	case "", "greedy":
		return Greedy{}
	case "balanced":
		return Balanced{}
	case "pmapper":
		return PMapper{}
	default:
		panic("core: unknown placement strategy " + name)
	}
}

// PlacementEngine implements §4.2: choosing a host machine and VM for an
// arriving task, and the dispatch decision that follows.
type PlacementEngine struct {
	oracle   Oracle
	view     *ClusterView
	strategy PlacementStrategy
	cfg      Config
	trace    *trace.Run
}

// NewPlacementEngine constructs a PlacementEngine over a shared ClusterView.
func NewPlacementEngine(oracle Oracle, view *ClusterView, strategy PlacementStrategy, cfg Config) *PlacementEngine {
	return &PlacementEngine{oracle: oracle, view: view, strategy: strategy, cfg: cfg}
}

// SetTrace attaches a decision-trace recorder. Optional: a nil trace (the
// default) records nothing.
func (pe *PlacementEngine) SetTrace(t *trace.Run) {
	pe.trace = t
}

// Place implements the full §4.2 algorithm for a single task: feasibility
// scan, strategy selection, VM reuse-or-create, and the dispatch decision.
// Returns false if no feasible machine exists (the task is dropped for this
// event, per §7).
func (pe *PlacementEngine) Place(now int64, task TaskID) bool {
	info := pe.oracle.GetTaskInfo(task)
	gpuPreferred := pe.oracle.IsTaskGPUCapable(task)

	ordered := pe.view.MachinesByMemoryUsed(pe.oracle)
	var candidates []Candidate
	var candidateIDs []MachineID
	for _, id := range ordered {
		mi := pe.oracle.MachineGetInfo(id)
		pending := pe.view.PendingMemory(id, pe.oracle)
		cand := Candidate{Info: mi, VMCount: len(pe.view.VMsOnMachine(id))}
		if cand.Feasible(info, pending) {
			candidates = append(candidates, cand)
			candidateIDs = append(candidateIDs, id)
		}
	}
	if len(candidates) == 0 {
		pe.trace.RecordPlacement(trace.PlacementRecord{Task: string(task), Clock: now, Placed: false, Strategy: pe.cfg.PlacementStrategy})
		return false
	}

	chosen := candidateIDs[pe.strategy.Select(candidates, info, gpuPreferred)]
	pe.trace.RecordPlacement(trace.PlacementRecord{
		Task: string(task), Clock: now, Placed: true, Machine: string(chosen),
		Strategy: pe.cfg.PlacementStrategy, Candidates: len(candidates),
	})
	priority := PriorityForSLA(info.SLA)
	pe.oracle.SetTaskPriority(task, priority)

	vm, needsCreate := pe.selectVM(chosen, info)
	if needsCreate {
		vm = pe.oracle.VMCreate(chosen, info.RequiredVMType, info.RequiredCPU)
		pe.view.RegisterVM(vm, chosen)
	}

	chosenInfo := pe.oracle.MachineGetInfo(chosen)
	switch {
	case chosenInfo.SState != S0:
		if !pe.view.IsStateChangeInFlight(chosen) {
			pe.oracle.MachineSetState(chosen, S0)
			pe.view.SetStateChangeInFlight(chosen, true)
		}
		pe.view.PushPendingArrival(chosen, vm, needsCreate)
		pe.view.PushPendingTask(vm, task)
	case needsCreate:
		if pe.view.IsStateChangeInFlight(chosen) {
			pe.view.PushPendingArrival(chosen, vm, true)
			pe.view.PushPendingTask(vm, task)
		} else {
			pe.oracle.VMAttach(vm, chosen)
			pe.view.AttachVM(vm, chosen)
			pe.dispatch(vm, task, priority)
		}
	case pe.view.IsMigrating(vm):
		pe.view.PushPendingTask(vm, task)
	default:
		pe.dispatch(vm, task, priority)
	}
	return true
}

func (pe *PlacementEngine) dispatch(vm VMID, task TaskID, priority Priority) {
	pe.oracle.VMAddTask(vm, task, priority)
	pe.view.RecordDispatch(task, vm)
}

// selectVM scans m's attached VMs for one matching the task's type whose
// active-task count is below the soft cap. Returns needsCreate=true if none
// qualifies.
func (pe *PlacementEngine) selectVM(m MachineID, task TaskInfo) (vm VMID, needsCreate bool) {
	for _, id := range pe.view.VMsOnMachine(m) {
		vi := pe.oracle.VMGetInfo(id)
		if vi.Type != task.RequiredVMType || vi.CPU != task.RequiredCPU {
			continue
		}
		if int64(len(vi.TaskIDs)) >= pe.cfg.VMTaskSoftCap {
			continue
		}
		return id, false
	}
	return "", true
}
