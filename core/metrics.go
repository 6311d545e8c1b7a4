package core

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a small Prometheus instrumentation bundle for the scheduler,
// grounded in the same pattern oriys-nova and ssahani-hypersdk use: a
// typed registry of gauges/counters updated from the hot path and scraped
// over HTTP. Attaching one is optional (Scheduler.SetMetrics); a nil
// Scheduler.metrics field means zero overhead, mirroring the teacher's
// nil-trace BC-1 convention.
type Metrics struct {
	MachinesBySState    *prometheus.GaugeVec
	UnplacedTasksTotal  prometheus.Counter
	MigrationsTotal     prometheus.Counter
	ClusterEnergyJoules prometheus.Gauge
}

// NewMetrics creates and registers the scheduler's Prometheus collectors
// against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MachinesBySState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cloudsched_machines_by_sstate",
			Help: "Number of machines currently in each S-state.",
		}, []string{"sstate"}),
		UnplacedTasksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cloudsched_unplaced_tasks_total",
			Help: "Total tasks dropped because no feasible machine was found.",
		}),
		MigrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cloudsched_migrations_total",
			Help: "Total VM migrations initiated (SLA-driven and opportunistic).",
		}),
		ClusterEnergyJoules: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudsched_cluster_energy_joules",
			Help: "Cumulative cluster energy consumption reported by the oracle.",
		}),
	}
	reg.MustRegister(m.MachinesBySState, m.UnplacedTasksTotal, m.MigrationsTotal, m.ClusterEnergyJoules)
	return m
}

// observeSStates refreshes the per-S-state machine gauge from a live
// ClusterView/Oracle pair.
func (m *Metrics) observeSStates(view *ClusterView, oracle Oracle) {
	counts := map[SState]int{S0: 0, S1: 0, S2: 0, S3: 0, S4: 0, S5: 0}
	for _, id := range view.Machines() {
		counts[oracle.MachineGetInfo(id).SState]++
	}
	for state, n := range counts {
		m.MachinesBySState.WithLabelValues(state.String()).Set(float64(n))
	}
}
