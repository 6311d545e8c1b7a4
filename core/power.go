package core

import "github.com/sirupsen/logrus"

// PowerController implements §4.4: the periodic tick that promotes idle
// hosts toward S5 and loaded hosts toward S0, and adjusts per-core P-state
// based on memory-usage trend.
type PowerController struct {
	oracle Oracle
	view   *ClusterView
	cfg    Config
}

// NewPowerController constructs a PowerController over a shared ClusterView.
func NewPowerController(oracle Oracle, view *ClusterView, cfg Config) *PowerController {
	return &PowerController{oracle: oracle, view: view, cfg: cfg}
}

// Tick runs one SchedulerCheck pass over every machine.
func (pc *PowerController) Tick(now int64) {
	for _, m := range pc.view.Machines() {
		pc.tickMachine(now, m)
	}
	pc.view.TickCooldowns(pc.cfg.TickDelta)
}

func (pc *PowerController) tickMachine(now int64, m MachineID) {
	info := pc.oracle.MachineGetInfo(m)
	lastActivity, lastMemory := pc.view.LastActivity(m)

	idleNow := info.MemoryUsed == 0
	idleLast := pc.view.WasIdleLastSample(m)

	if now-lastActivity >= pc.cfg.StateChangeThreshold {
		pc.updateSState(m, info, idleNow, idleLast)
		pc.updatePState(m, info, lastMemory)
		pc.view.SetIdleSample(m, idleNow)
		pc.view.RecordActivity(m, now, info.MemoryUsed)
	}
}

func (pc *PowerController) updateSState(m MachineID, info MachineInfo, idleNow, idleLast bool) {
	if pc.view.IsStateChangeInFlight(m) {
		return
	}

	var target SState
	if pc.view.HasPendingWork(m) {
		target = S0
	} else if idleNow && idleLast {
		target = info.SState.towardS5()
	} else {
		target = info.SState.towardS0()
	}

	if target == info.SState {
		return
	}
	pc.oracle.MachineSetState(m, target)
	pc.view.SetStateChangeInFlight(m, true)
	logrus.WithFields(logrus.Fields{"machine": m, "from": info.SState, "to": target}).Info("power state transition requested")
}

func (pc *PowerController) updatePState(m MachineID, info MachineInfo, lastMemory int64) {
	var target PState
	switch {
	case info.MemoryUsed > lastMemory:
		target = info.PState.towardP0()
	case info.MemoryUsed < lastMemory:
		target = info.PState.towardP3()
	default:
		target = info.PState
	}
	if target == info.PState {
		return
	}
	pc.oracle.MachineSetCorePerformance(m, target)
	logrus.WithFields(logrus.Fields{"machine": m, "from": info.PState, "to": target}).Debug("core performance state adjusted")
}
