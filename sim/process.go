// Package sim advances a field of race entrants lap by lap. Each entrant owns
// four samplers (lap time, overtake, pit decision, pit duration); AdvanceLap
// applies them to the whole field in start-of-lap order and re-sorts it, and
// Race repeats that for a fixed number of laps. The package does no I/O and
// holds no global state, so independent races can run concurrently.
package sim

import "time"

// LapTimeFunc samples the time taken to complete a lap.
type LapTimeFunc func(lap, lapsSincePitStop int) time.Duration

// OvertakeFunc decides whether an attempted pass on the car ahead succeeds.
type OvertakeFunc func(OvertakeContext) bool

// PitStopFunc decides whether the entrant pits on this lap.
type PitStopFunc func(PitStopContext) bool

// PitStopDurationFunc samples the time lost to a pit stop taken on the given lap.
type PitStopDurationFunc func(lap int) time.Duration

// OvertakeContext describes a lap on which an entrant would finish ahead of the
// car that started the lap in front of it.
type OvertakeContext struct {
	Lap     int
	LapTime time.Duration
	// Margin is how far ahead of the blocking car the entrant would finish.
	Margin time.Duration
	Ahead  Identity
}

// PitStopContext describes the entrant's lap at the moment the pit decision is made.
type PitStopContext struct {
	Lap              int
	LapTime          time.Duration
	LapsSincePitStop int
	// Position is the zero-based start-of-lap position.
	Position int
	// GapAhead is the distance to the car ahead after both updates; zero for the leader.
	GapAhead time.Duration
}

// Processes bundles the four samplers an entrant owns.
type Processes struct {
	LapTime         LapTimeFunc
	Overtake        OvertakeFunc
	PitStop         PitStopFunc
	PitStopDuration PitStopDurationFunc
}

func (p Processes) validate() error {
	switch {
	case p.LapTime == nil:
		return missingSampler("lap time")
	case p.Overtake == nil:
		return missingSampler("overtake")
	case p.PitStop == nil:
		return missingSampler("pit stop")
	case p.PitStopDuration == nil:
		return missingSampler("pit stop duration")
	}
	return nil
}
