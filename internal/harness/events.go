package harness

import "github.com/CinnamonNinian/cloudsim-eec/core"

// event mirrors the teacher's sim.Event: a timestamped unit of work that
// advances the harness when popped off the queue.
type event interface {
	Timestamp() int64
	execute(h *Harness)
}

// queueEntry pairs an event with a monotonically increasing sequence number
// so that two events scheduled for the same timestamp execute in the order
// they were scheduled — the harness never reorders same-timestamp events.
type queueEntry struct {
	ev  event
	seq int64
}

// eventQueue is a container/heap.Interface min-heap ordered by (timestamp, seq).
type eventQueue []queueEntry

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].ev.Timestamp() != q[j].ev.Timestamp() {
		return q[i].ev.Timestamp() < q[j].ev.Timestamp()
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(queueEntry)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

type arrivalEvent struct {
	time int64
	task core.TaskID
}

func (e arrivalEvent) Timestamp() int64 { return e.time }
func (e arrivalEvent) execute(h *Harness) {
	h.sched.HandleNewTask(e.time, e.task)
}

// completionEvent fires when a dispatched task's configured Duration
// elapses. It frees the task's memory from its VM and notifies the
// scheduler.
type completionEvent struct {
	time int64
	task core.TaskID
}

func (e completionEvent) Timestamp() int64 { return e.time }
func (e completionEvent) execute(h *Harness) {
	t, ok := h.task[e.task]
	if !ok || t.completed {
		return
	}
	t.completed = true
	if vm, ok := h.sched.View().VMForTask(e.task); ok {
		if v, ok := h.vm[vm]; ok {
			delete(v.tasks, e.task)
		}
	}
	h.sched.HandleTaskCompletion(e.time, e.task)
}

type slaWarningEvent struct {
	time int64
	task core.TaskID
}

func (e slaWarningEvent) Timestamp() int64 { return e.time }
func (e slaWarningEvent) execute(h *Harness) {
	h.slaViolations++
	h.sched.SLAWarning(e.time, e.task)
}

type memoryWarningEvent struct {
	time    int64
	machine core.MachineID
}

func (e memoryWarningEvent) Timestamp() int64 { return e.time }
func (e memoryWarningEvent) execute(h *Harness) {
	h.sched.MemoryWarning(e.time, e.machine)
}

type tickEvent struct {
	time int64
}

func (e tickEvent) Timestamp() int64 { return e.time }
func (e tickEvent) execute(h *Harness) {
	h.sched.SchedulerCheck(e.time)
}

// stateChangeCompleteEvent fires StateChangeLatency ticks after a
// MachineSetState request, applying the target state and notifying the
// scheduler — the async-completion half of the split-phase S-state
// transition (spec §5).
type stateChangeCompleteEvent struct {
	time    int64
	machine core.MachineID
	target  core.SState
}

func (e stateChangeCompleteEvent) Timestamp() int64 { return e.time }
func (e stateChangeCompleteEvent) execute(h *Harness) {
	m := h.machine[e.machine]
	m.sstate = e.target
	h.sched.StateChangeComplete(e.time, e.machine)
}

// migrationDoneEvent fires MigrationLatency ticks after a VMMigrate
// request, moving the VM to its destination and notifying the scheduler.
type migrationDoneEvent struct {
	time int64
	vm   core.VMID
	dest core.MachineID
}

func (e migrationDoneEvent) Timestamp() int64 { return e.time }
func (e migrationDoneEvent) execute(h *Harness) {
	// The VM is reattached via the scheduler's own VMAttach call inside
	// MigrationEngine.OnMigrationDone; the harness only needed to know when
	// to fire the callback.
	h.sched.MigrationDone(e.time, e.vm)
}
