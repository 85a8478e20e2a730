// Package process turns fitted profile parameters into the samplers a sim.Entrant
// consumes. It absorbs missing or thin profiles by falling back to conservative
// defaults, so the lap loop never sees a fitting failure.
package process

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/sim"
)

// Params are the fitted parameters behind one entrant's samplers.
type Params struct {
	LapMean   time.Duration
	LapStdDev time.Duration
	// Degradation is added to the lap time for every lap since the last stop.
	Degradation time.Duration

	OvertakeProb float64

	// The pit hazard on a lap is PitBaseRate + PitWearRate*lapsSincePitStop, capped at 1.
	PitBaseRate float64
	PitWearRate float64

	PitMean   time.Duration
	PitStdDev time.Duration
}

// Defaults is the conservative model used when nothing better is available:
// a fixed mean lap, no pit stops and the given overtake probability.
func Defaults(lapMean, lapStdDev, pitStop time.Duration, overtakeProb float64) Params {
	return Params{
		LapMean:      lapMean,
		LapStdDev:    lapStdDev,
		OvertakeProb: clampProb(overtakeProb),
		PitMean:      pitStop,
	}
}

// FromProfile converts a stored profile from milliseconds to durations.
func FromProfile(p models.Profile) Params {
	return Params{
		LapMean:      FromMillis(p.LapMeanMs),
		LapStdDev:    FromMillis(p.LapStdMs),
		Degradation:  FromMillis(p.DegradeMs),
		OvertakeProb: clampProb(p.OvertakeProb),
		PitBaseRate:  clampProb(p.PitBaseRate),
		PitWearRate:  clampProb(p.PitWearRate),
		PitMean:      FromMillis(p.PitMeanMs),
		PitStdDev:    FromMillis(p.PitStdMs),
	}
}

// FromMillis converts boundary milliseconds to a duration. Values that are not
// finite or are negative become zero.
func FromMillis(ms float64) time.Duration {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return 0
	}
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

// ToMillis converts a duration to whole milliseconds for storage and JSON.
func ToMillis(d time.Duration) int64 {
	return d.Milliseconds()
}

// New builds the samplers for params drawing from rng. rng is shared by every
// sampler built with it and is not safe for concurrent use; one race owns one rng.
func New(params Params, rng *rand.Rand) sim.Processes {
	return sim.Processes{
		LapTime: func(_, lapsSincePitStop int) time.Duration {
			mean := params.LapMean + time.Duration(lapsSincePitStop)*params.Degradation
			return normal(rng, mean, params.LapStdDev)
		},
		Overtake: func(sim.OvertakeContext) bool {
			return bernoulli(rng, params.OvertakeProb)
		},
		PitStop: func(ctx sim.PitStopContext) bool {
			hazard := params.PitBaseRate + params.PitWearRate*float64(ctx.LapsSincePitStop)
			return bernoulli(rng, hazard)
		},
		PitStopDuration: func(int) time.Duration {
			return normal(rng, params.PitMean, params.PitStdDev)
		},
	}
}

func normal(rng *rand.Rand, mean, stddev time.Duration) time.Duration {
	if stddev <= 0 {
		return max(mean, 0)
	}
	d := time.Duration(float64(mean) + rng.NormFloat64()*float64(stddev))
	return max(d, 0)
}

func bernoulli(rng *rand.Rand, p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return rng.Float64() < p
}

func clampProb(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return min(p, 1)
}
