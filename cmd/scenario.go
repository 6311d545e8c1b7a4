package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/CinnamonNinian/cloudsim-eec/core"
	"github.com/CinnamonNinian/cloudsim-eec/internal/harness"
	"github.com/CinnamonNinian/cloudsim-eec/internal/trace"
)

// scenarioFlags are the flags shared by the run and dashboard subcommands:
// fleet shape, the workload generator and the core's policy tunables.
type scenarioFlags struct {
	machines     int
	gpuFraction  float64
	memory       int64
	configPath   string
	rate         float64
	horizon      int64
	seed         int64
	minMemory    int64
	maxMemory    int64
	minDuration  int64
	maxDuration  int64
	slaWeights   []float64
	logLevel     string
	traceLevel   string
}

func registerScenarioFlags(cmd flagSet, f *scenarioFlags) {
	cmd.IntVar(&f.machines, "machines", 16, "Number of machines in the fleet")
	cmd.Float64Var(&f.gpuFraction, "machine-gpu-fraction", 0.25, "Fraction of machines with a GPU")
	cmd.Int64Var(&f.memory, "machine-memory", 16384, "Per-machine memory capacity")
	cmd.StringVar(&f.configPath, "config", "", "Path to a YAML core config file (overrides defaults)")
	cmd.Float64Var(&f.rate, "rate", 0.002, "Poisson task arrival rate (tasks per tick)")
	cmd.Int64Var(&f.horizon, "horizon", 100_000_000, "Simulation horizon in ticks")
	cmd.Int64Var(&f.seed, "seed", 1, "Workload random seed")
	cmd.Int64Var(&f.minMemory, "task-min-memory", 64, "Minimum per-task memory requirement")
	cmd.Int64Var(&f.maxMemory, "task-max-memory", 2048, "Maximum per-task memory requirement")
	cmd.Int64Var(&f.minDuration, "task-min-duration", 1_000_000, "Minimum task duration in ticks")
	cmd.Int64Var(&f.maxDuration, "task-max-duration", 20_000_000, "Maximum task duration in ticks")
	cmd.Float64SliceVar(&f.slaWeights, "sla-weights", []float64{1, 2, 4, 2}, "Relative arrival weight per SLA0..SLA3")
	cmd.StringVar(&f.logLevel, "log", "info", "Log level (debug, info, warn, error)")
	cmd.StringVar(&f.traceLevel, "trace", "none", "Decision trace level (none, decisions)")
}

// flagSet is the subset of *pflag.FlagSet registerScenarioFlags needs; cobra
// commands satisfy it via cmd.Flags().
type flagSet interface {
	IntVar(p *int, name string, value int, usage string)
	Int64Var(p *int64, name string, value int64, usage string)
	Float64Var(p *float64, name string, value float64, usage string)
	Float64SliceVar(p *[]float64, name string, value []float64, usage string)
	StringVar(p *string, name string, value string, usage string)
}

// buildScenario constructs the fleet, the harness, the workload generator and
// the wired Scheduler/Oracle pair the run and dashboard commands each drive.
func buildScenario(f *scenarioFlags) (*harness.Harness, *core.Scheduler) {
	level, err := logrus.ParseLevel(f.logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", f.logLevel)
	}
	logrus.SetLevel(level)

	cfg := core.DefaultConfig()
	if f.configPath != "" {
		cfg, err = core.LoadConfig(f.configPath)
		if err != nil {
			logrus.Fatalf("loading config: %v", err)
		}
	}

	h := harness.New(harness.DefaultConfig())
	for i := 0; i < f.machines; i++ {
		hasGPU := float64(i) < f.gpuFraction*float64(f.machines)
		h.AddMachine(harness.MachineSpec{
			CPU:    core.X86,
			HasGPU: hasGPU,
			Memory: f.memory,
		})
	}

	sched := core.NewScheduler(h, cfg)
	h.Attach(sched)

	if !trace.IsValidLevel(f.traceLevel) {
		logrus.Fatalf("invalid trace level: %s", f.traceLevel)
	}
	if f.traceLevel != "none" && f.traceLevel != "" {
		sched.SetTrace(trace.NewRun(trace.Config{Level: trace.Level(f.traceLevel)}))
	}

	var weights [4]float64
	copy(weights[:], f.slaWeights)

	h.GeneratePoissonArrivals(harness.WorkloadSpec{
		Rate:           f.rate,
		Horizon:        f.horizon,
		Seed:           f.seed,
		RequiredCPU:    core.X86,
		RequiredVMType: core.VMLinux,
		MinMemory:      f.minMemory,
		MaxMemory:      f.maxMemory,
		GPUFraction:    f.gpuFraction,
		SLAWeights:     weights,
		MinDuration:    f.minDuration,
		MaxDuration:    f.maxDuration,
	})
	h.ScheduleTicksEvery(cfg.TickDelta, f.horizon)

	return h, sched
}
