package core

import (
	"fmt"

	"github.com/CinnamonNinian/cloudsim-eec/internal/trace"
	"github.com/sirupsen/logrus"
)

// FatalHandler reports an invariant violation (§7: "fatal — abort with
// diagnostic"). The default calls logrus.Fatalf, which logs and exits;
// tests substitute a handler that records the call instead of exiting.
type FatalHandler func(format string, args ...any)

func defaultFatalHandler(format string, args ...any) {
	logrus.Fatalf(format, args...)
}

// MachineIDAt derives the MachineID the Oracle assigns to the machine at
// index i (0 <= i < MachineGetTotal()). The core and any Oracle
// implementation must agree on this convention since the Oracle port has no
// "enumerate IDs" method, only a count.
func MachineIDAt(i int) MachineID {
	return MachineID(fmt.Sprintf("m%d", i))
}

// Scheduler is the Event Adapter: it funnels a host simulator's callbacks
// into the Cluster View and the three engines, and replays queued work when
// asynchronous operations complete.
//
// Scheduler is not safe for concurrent use. §5 assumes the host delivers
// callbacks one at a time, each running to completion before the next
// begins; an embedder in a language or runtime that parallelizes callback
// delivery must serialize calls into a single Scheduler with one coarse
// lock, as the teacher's own per-replica InstanceSimulator documents
// ("NOT thread-safe. All methods must be called from the same goroutine").
type Scheduler struct {
	oracle    Oracle
	view      *ClusterView
	placement *PlacementEngine
	migration *MigrationEngine
	power     *PowerController
	cfg       Config
	fatal     FatalHandler
	metrics   *Metrics
}

// NewScheduler constructs a Scheduler over the given Oracle and Config.
// Call InitScheduler before delivering any other callback.
func NewScheduler(oracle Oracle, cfg Config) *Scheduler {
	view := NewClusterView()
	strategy := NewPlacementStrategy(cfg.PlacementStrategy)
	return &Scheduler{
		oracle:    oracle,
		view:      view,
		placement: NewPlacementEngine(oracle, view, strategy, cfg),
		migration: NewMigrationEngine(oracle, view, cfg),
		power:     NewPowerController(oracle, view, cfg),
		cfg:       cfg,
		fatal:     defaultFatalHandler,
	}
}

// SetMetrics attaches a Metrics collector. Optional: nil (the default)
// disables all Prometheus instrumentation at zero overhead.
func (s *Scheduler) SetMetrics(m *Metrics) {
	s.metrics = m
}

// SetFatalHandler overrides how invariant violations are reported. Used by
// tests to avoid process exit.
func (s *Scheduler) SetFatalHandler(h FatalHandler) {
	s.fatal = h
}

// SetTrace attaches a decision-trace recorder to both the Placement and
// Migration Engines. Optional: nil (the default) records nothing.
func (s *Scheduler) SetTrace(t *trace.Run) {
	s.placement.SetTrace(t)
	s.migration.SetTrace(t)
}

// View exposes the Cluster View for inspection (tests, the dashboard).
func (s *Scheduler) View() *ClusterView {
	return s.view
}

func (s *Scheduler) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.fatal("core: invariant violation in %s: %v", name, r)
		}
	}()
	fn()
}

// InitScheduler enumerates every machine the Oracle reports and seeds the
// Cluster View. Must be called exactly once, before any other callback.
func (s *Scheduler) InitScheduler() {
	s.guard("InitScheduler", func() {
		total := s.oracle.MachineGetTotal()
		for i := 0; i < total; i++ {
			s.view.AddMachine(MachineIDAt(i))
		}
		logrus.WithField("machines", total).Info("scheduler initialized")
	})
}

// HandleNewTask implements the NewTask callback: runs §4.2 placement.
func (s *Scheduler) HandleNewTask(now int64, task TaskID) {
	s.guard("HandleNewTask", func() {
		placed := s.placement.Place(now, task)
		if !placed {
			logrus.WithFields(logrus.Fields{"task": task, "time": now}).Warn("task unplaceable, dropped for this event")
			if s.metrics != nil {
				s.metrics.UnplacedTasksTotal.Inc()
			}
		}
	})
}

// HandleTaskCompletion implements the TaskComplete callback: forgets the
// task and runs the optional opportunistic consolidation pass.
func (s *Scheduler) HandleTaskCompletion(now int64, task TaskID) {
	s.guard("HandleTaskCompletion", func() {
		s.view.ForgetTask(task)
		if s.migration.OnTaskComplete() && s.metrics != nil {
			s.metrics.MigrationsTotal.Inc()
		}
	})
}

// SLAWarning implements the SLAWarning callback: runs §4.3 migration.
func (s *Scheduler) SLAWarning(now int64, task TaskID) {
	s.guard("SLAWarning", func() {
		if s.migration.OnSLAWarning(task) && s.metrics != nil {
			s.metrics.MigrationsTotal.Inc()
		}
	})
}

// MemoryWarning implements the MemoryWarning callback: diagnostic only.
func (s *Scheduler) MemoryWarning(now int64, machine MachineID) {
	logrus.WithFields(logrus.Fields{"machine": machine, "time": now}).Warn("memory overcommit warning")
}

// MigrationDone implements the MigrationDone callback: drains vm's pending
// tasks and clears its migration flags.
func (s *Scheduler) MigrationDone(now int64, vm VMID) {
	s.guard("MigrationDone", func() {
		dest, ok := s.findInboundMigrationDest(vm)
		if !ok {
			s.fatal("core: MigrationDone(%s) with no recorded inbound migration", vm)
			return
		}
		s.migration.OnMigrationDone(vm, dest)
	})
}

func (s *Scheduler) findInboundMigrationDest(vm VMID) (MachineID, bool) {
	for _, m := range s.view.Machines() {
		if s.inboundVM(m) == vm {
			return m, true
		}
	}
	return "", false
}

func (s *Scheduler) inboundVM(m MachineID) VMID {
	ms, ok := s.view.machines[m]
	if !ok {
		return ""
	}
	return ms.inboundMigration
}

// StateChangeComplete implements the StateChangeComplete callback: if the
// machine is now S0, drains its pending VMs/tasks and starts any migration
// queued to land on it.
func (s *Scheduler) StateChangeComplete(now int64, machine MachineID) {
	s.guard("StateChangeComplete", func() {
		s.view.SetStateChangeInFlight(machine, false)
		info := s.oracle.MachineGetInfo(machine)
		if info.SState != S0 {
			return
		}

		for _, pa := range s.view.DrainPendingArrivals(machine) {
			if pa.needAttach {
				s.oracle.VMAttach(pa.vm, machine)
				s.view.AttachVM(pa.vm, machine)
			}
			for _, task := range s.view.DrainPendingTasks(pa.vm) {
				priority := PriorityForSLA(s.oracle.RequiredSLA(task))
				s.oracle.VMAddTask(pa.vm, task, priority)
				s.view.RecordDispatch(task, pa.vm)
			}
		}

		if vm, ok := s.view.TakeQueuedMigration(machine); ok {
			s.oracle.VMMigrate(vm, machine)
		}
	})
}

// SchedulerCheck implements the periodic tick callback: runs §4.4.
func (s *Scheduler) SchedulerCheck(now int64) {
	s.guard("SchedulerCheck", func() {
		s.power.Tick(now)
		if s.metrics != nil {
			s.metrics.observeSStates(s.view, s.oracle)
		}
	})
}

// SimulationComplete implements the teardown callback: shuts down every VM
// and logs the final SLA/energy report.
func (s *Scheduler) SimulationComplete(now int64) {
	s.guard("SimulationComplete", func() {
		for _, vm := range s.view.AllVMs() {
			s.oracle.VMShutdown(vm)
			s.view.RemoveVM(vm)
		}
		report := s.oracle.GetSLAReport()
		energy := s.oracle.MachineGetClusterEnergy()
		if s.metrics != nil {
			s.metrics.ClusterEnergyJoules.Set(energy)
		}
		logrus.WithFields(logrus.Fields{
			"total_tasks":      report.TotalTasks,
			"sla_violations":   report.SLAViolations,
			"unplaced_tasks":   report.UnplacedTasks,
			"migrations_total": report.MigrationsTotal,
			"cluster_energy":   energy,
		}).Info("simulation complete")
	})
}
