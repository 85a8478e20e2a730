package sim

import (
	"context"
	"fmt"
	"time"
)

// Standing is a read-only view of an entrant at a point in the race.
type Standing struct {
	Position         int            `json:"position"`
	Identity         Identity       `json:"identity"`
	CurrentTime      time.Duration  `json:"currentTime"`
	GapToLeader      time.Duration  `json:"gapToLeader"`
	LapsSincePitStop int            `json:"lapsSincePitStop"`
	Last             LapDiagnostics `json:"last"`
}

// Standings ranks entrants by elapsed time. The input slice is not reordered.
func Standings(entrants []*Entrant) []Standing {
	order := make([]*Entrant, len(entrants))
	copy(order, entrants)
	SortByTime(order)

	out := make([]Standing, len(order))
	for i, e := range order {
		out[i] = Standing{
			Position:         i + 1,
			Identity:         e.Identity,
			CurrentTime:      e.CurrentTime,
			GapToLeader:      e.CurrentTime - order[0].CurrentTime,
			LapsSincePitStop: e.LapsSincePitStop,
			Last:             e.Last,
		}
	}
	return out
}

// Race runs a fixed number of laps over a set of entrants.
type Race struct {
	Entrants []*Entrant
	Laps     int

	// OnLap, when set, is called after every lap with the new order. Returning an
	// error stops the race.
	OnLap func(lap int, entrants []*Entrant) error
}

// Run advances the race lap by lap and returns the final order. Cancellation is
// only observed between laps.
func (r *Race) Run(ctx context.Context) ([]*Entrant, error) {
	if err := validate(r.Entrants, r.Laps); err != nil {
		return nil, err
	}

	entrants := r.Entrants
	if len(entrants) == 0 {
		return entrants, nil
	}

	for lap := 0; lap < r.Laps; lap++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("race stopped before lap %d: %w", lap, err)
		}

		next, err := AdvanceLap(entrants, lap)
		if err != nil {
			return nil, fmt.Errorf("lap %d: %w", lap, err)
		}
		entrants = next

		if r.OnLap != nil {
			if err := r.OnLap(lap, entrants); err != nil {
				return nil, fmt.Errorf("lap %d observer: %w", lap, err)
			}
		}
	}

	return entrants, nil
}

// RunRace calls AdvanceLap totalLaps times and returns the final order.
func RunRace(entrants []*Entrant, totalLaps int) ([]*Entrant, error) {
	r := &Race{Entrants: entrants, Laps: totalLaps}
	return r.Run(context.Background())
}

func validate(entrants []*Entrant, laps int) error {
	if laps < 0 {
		return fmt.Errorf("%w: negative lap count %d", ErrInvalidInput, laps)
	}

	seen := make(map[Identity]struct{}, len(entrants))
	for i, e := range entrants {
		if e == nil {
			return fmt.Errorf("%w: nil entrant at index %d", ErrInvalidInput, i)
		}
		if _, dup := seen[e.Identity]; dup {
			return fmt.Errorf("%w: duplicate entrant %s", ErrInvalidInput, e.Identity)
		}
		seen[e.Identity] = struct{}{}
	}
	return nil
}
