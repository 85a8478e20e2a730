package sim

import (
	"sort"
	"time"
)

// lapState is the staged result of one entrant's lap. Nothing is written back to
// the entrants until every entrant in the lap has been sampled successfully.
type lapState struct {
	time             time.Duration
	lapsSincePitStop int
	diag             LapDiagnostics
}

// SortByTime stable-sorts entrants ascending by elapsed time. Entrants with equal
// times keep their relative order.
func SortByTime(entrants []*Entrant) {
	sort.SliceStable(entrants, func(i, j int) bool {
		return entrants[i].CurrentTime < entrants[j].CurrentTime
	})
}

// AdvanceLap simulates one lap and returns the entrants in their new order.
//
// Entrants are processed in start-of-lap order. Each one samples a lap time, is
// checked against the car directly ahead in that order (whose time already
// includes its own update for this lap), and then samples a pit stop. An entrant
// that would finish ahead of that car must win an overtake sample or is clamped
// to the blocking car's time. Only one comparison is made per entrant.
//
// If any sampler violates its contract the lap is abandoned and the entrants are
// left exactly as they were.
func AdvanceLap(entrants []*Entrant, lap int) ([]*Entrant, error) {
	order := make([]*Entrant, len(entrants))
	copy(order, entrants)
	SortByTime(order)

	staged := make([]lapState, len(order))
	for pos, e := range order {
		lapTime := e.procs.LapTime(lap, e.LapsSincePitStop)
		if lapTime < 0 {
			return nil, &SamplerError{Entrant: e.Identity, Lap: lap, Sampler: "lap time", Value: lapTime}
		}

		st := lapState{
			time: e.CurrentTime + lapTime,
			diag: LapDiagnostics{Lap: lap, LapTime: lapTime},
		}

		var gapAhead time.Duration
		if pos > 0 {
			ahead := staged[pos-1].time
			if st.time < ahead {
				ok := e.procs.Overtake(OvertakeContext{
					Lap:     lap,
					LapTime: lapTime,
					Margin:  ahead - st.time,
					Ahead:   order[pos-1].Identity,
				})
				if ok {
					st.diag.Overtake = OvertakeSuccess
				} else {
					st.time = ahead
					st.diag.Overtake = OvertakeStuck
				}
			}
			if st.time > ahead {
				gapAhead = st.time - ahead
			}
		}

		pit := e.procs.PitStop(PitStopContext{
			Lap:              lap,
			LapTime:          lapTime,
			LapsSincePitStop: e.LapsSincePitStop,
			Position:         pos,
			GapAhead:         gapAhead,
		})
		if pit {
			d := e.procs.PitStopDuration(lap)
			if d < 0 {
				return nil, &SamplerError{Entrant: e.Identity, Lap: lap, Sampler: "pit stop duration", Value: d}
			}
			st.time += d
			st.lapsSincePitStop = 0
			st.diag.Pitted = true
			st.diag.PitStopDuration = d
		} else {
			st.lapsSincePitStop = e.LapsSincePitStop + 1
		}

		staged[pos] = st
	}

	for pos, e := range order {
		e.CurrentTime = staged[pos].time
		e.LapsSincePitStop = staged[pos].lapsSincePitStop
		e.Last = staged[pos].diag
	}

	SortByTime(order)
	return order, nil
}
