package harness

import (
	"fmt"
	"math/rand"

	"github.com/CinnamonNinian/cloudsim-eec/core"
)

// WorkloadSpec parameterizes a synthetic Poisson arrival stream for the
// dashboard and the `run` CLI subcommand, mirroring the teacher's own
// GeneratePoissonArrivals entry point but sampling task requirements instead
// of replaying a workload trace file.
type WorkloadSpec struct {
	Rate           float64 // tasks per tick, exponential inter-arrival (CV=1)
	Horizon        int64
	Seed           int64
	RequiredCPU    core.CPUType
	RequiredVMType core.VMType
	MinMemory      int64
	MaxMemory      int64
	GPUFraction    float64    // fraction of tasks that are GPU-capable, in [0,1]
	SLAWeights     [4]float64 // relative weight per SLAClass, SLA0..SLA3
	MinDuration    int64
	MaxDuration    int64
}

// GeneratePoissonArrivals schedules a synthetic Poisson arrival stream over
// [0, spec.Horizon), assigning each task a deterministic ID ("task-N") and
// sampled requirements. Exponential inter-arrival times give a rate of
// spec.Rate tasks per tick, the same distribution the teacher's
// workload.PoissonSampler implements.
func (h *Harness) GeneratePoissonArrivals(spec WorkloadSpec) {
	rng := rand.New(rand.NewSource(spec.Seed))
	clock := int64(0)
	n := 0
	for clock < spec.Horizon {
		iat := int64(rng.ExpFloat64() / spec.Rate)
		if iat < 1 {
			iat = 1
		}
		clock += iat
		if clock >= spec.Horizon {
			break
		}
		id := core.TaskID(fmt.Sprintf("task-%d", n))
		n++
		h.ScheduleArrival(clock, id, sampleTaskSpec(rng, spec))
	}
}

func sampleTaskSpec(rng *rand.Rand, spec WorkloadSpec) TaskSpec {
	memRange := spec.MaxMemory - spec.MinMemory
	mem := spec.MinMemory
	if memRange > 0 {
		mem += rng.Int63n(memRange)
	}

	durRange := spec.MaxDuration - spec.MinDuration
	dur := spec.MinDuration
	if durRange > 0 {
		dur += rng.Int63n(durRange)
	}

	return TaskSpec{
		RequiredCPU:    spec.RequiredCPU,
		RequiredVMType: spec.RequiredVMType,
		RequiredMemory: mem,
		GPUCapable:     rng.Float64() < spec.GPUFraction,
		SLA:            sampleSLA(rng, spec.SLAWeights),
		Duration:       dur,
	}
}

func sampleSLA(rng *rand.Rand, weights [4]float64) core.SLAClass {
	total := weights[0] + weights[1] + weights[2] + weights[3]
	if total <= 0 {
		return core.SLA2
	}
	x := rng.Float64() * total
	for class, w := range weights {
		if x < w {
			return core.SLAClass(class)
		}
		x -= w
	}
	return core.SLA3
}
