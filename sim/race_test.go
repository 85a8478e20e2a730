package sim

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntrant_MissingSampler(t *testing.T) {
	p := stub(sec(1))
	p.PitStopDuration = nil

	_, err := NewEntrant(ident("A"), 0, p)
	require.ErrorIs(t, err, ErrMissingSampler)
	assert.Contains(t, err.Error(), "pit stop duration")
}

func TestNewEntrant_NegativeStart(t *testing.T) {
	_, err := NewEntrant(ident("A"), -time.Second, stub(sec(1)))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunRace_OrderStableWithoutStochasticChange(t *testing.T) {
	entrants := []*Entrant{
		mustEntrant("C", sec(40), stub(sec(90))),
		mustEntrant("A", sec(0), stub(sec(90))),
		mustEntrant("B", sec(20), stub(sec(90))),
	}

	out, err := RunRace(entrants, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, drivers(out))
	assert.Equal(t, sec(900), out[0].CurrentTime)
	assert.Equal(t, 10, out[0].LapsSincePitStop)
	assert.Equal(t, 9, out[0].Last.Lap)
}

func TestRunRace_PassesLapIndex(t *testing.T) {
	var laps []int
	p := stub(0)
	p.LapTime = func(lap, _ int) time.Duration {
		laps = append(laps, lap)
		return sec(1)
	}

	_, err := RunRace([]*Entrant{mustEntrant("A", 0, p)}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, laps)
}

func TestRunRace_ZeroLapsReturnsInput(t *testing.T) {
	entrants := []*Entrant{
		mustEntrant("B", sec(5), stub(sec(1))),
		mustEntrant("A", sec(0), stub(sec(1))),
	}

	out, err := RunRace(entrants, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, drivers(out))
	assert.Equal(t, sec(5), out[0].CurrentTime)
}

func TestRunRace_EmptyField(t *testing.T) {
	out, err := RunRace(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunRace_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		entrants []*Entrant
		laps     int
	}{
		{
			name:     "negative laps",
			entrants: []*Entrant{mustEntrant("A", 0, stub(sec(1)))},
			laps:     -1,
		},
		{
			name: "duplicate identity",
			entrants: []*Entrant{
				mustEntrant("A", 0, stub(sec(1))),
				mustEntrant("A", sec(3), stub(sec(1))),
			},
			laps: 2,
		},
		{
			name:     "nil entrant",
			entrants: []*Entrant{mustEntrant("A", 0, stub(sec(1))), nil},
			laps:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunRace(tt.entrants, tt.laps)
			require.ErrorIs(t, err, ErrInvalidInput)
			for _, e := range tt.entrants {
				if e != nil {
					assert.Zero(t, e.LapsSincePitStop, "no lap may run on invalid input")
				}
			}
		})
	}
}

func TestRunRace_SamplerErrorStopsRace(t *testing.T) {
	p := stub(0)
	p.LapTime = seq(sec(1), sec(1), -sec(1))
	a := mustEntrant("A", 0, p)

	_, err := RunRace([]*Entrant{a}, 5)
	require.Error(t, err)

	var se *SamplerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Lap)
	assert.Equal(t, sec(2), a.CurrentTime)
	assert.Equal(t, 2, a.LapsSincePitStop)
}

func TestRace_OnLapSeesEveryLap(t *testing.T) {
	var seen []int
	r := &Race{
		Entrants: []*Entrant{mustEntrant("A", 0, stub(sec(1))), mustEntrant("B", sec(1), stub(sec(1)))},
		Laps:     3,
		OnLap: func(lap int, entrants []*Entrant) error {
			seen = append(seen, lap)
			assert.Len(t, entrants, 2)
			return nil
		},
	}

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestRace_CancelBetweenLaps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := mustEntrant("A", 0, stub(sec(10)))
	r := &Race{
		Entrants: []*Entrant{a},
		Laps:     10,
		OnLap: func(lap int, _ []*Entrant) error {
			if lap == 1 {
				cancel()
			}
			return nil
		},
	}

	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, sec(20), a.CurrentTime, "the lap in progress completes")
}

func TestRace_ObserverError(t *testing.T) {
	boom := errors.New("boom")
	r := &Race{
		Entrants: []*Entrant{mustEntrant("A", 0, stub(sec(10)))},
		Laps:     3,
		OnLap:    func(int, []*Entrant) error { return boom },
	}

	_, err := r.Run(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestRunRace_DeterministicUnderSeed(t *testing.T) {
	build := func(seed uint64) []*Entrant {
		rng := rand.New(rand.NewPCG(seed, seed))
		out := make([]*Entrant, 5)
		for i := range out {
			p := Processes{
				LapTime:         func(int, int) time.Duration { return time.Duration(90_000+rng.IntN(5_000)) * time.Millisecond },
				Overtake:        func(OvertakeContext) bool { return rng.Float64() < 0.3 },
				PitStop:         func(c PitStopContext) bool { return c.LapsSincePitStop > 15 && rng.Float64() < 0.4 },
				PitStopDuration: func(int) time.Duration { return time.Duration(21_000+rng.IntN(3_000)) * time.Millisecond },
			}
			out[i] = mustEntrant(string(rune('A'+i)), sec(2*i), p)
		}
		return out
	}

	first, err := RunRace(build(42), 40)
	require.NoError(t, err)
	second, err := RunRace(build(42), 40)
	require.NoError(t, err)

	require.Equal(t, drivers(first), drivers(second))
	for i := range first {
		assert.Equal(t, first[i].CurrentTime, second[i].CurrentTime)
		assert.Equal(t, first[i].LapsSincePitStop, second[i].LapsSincePitStop)
	}
}

func TestStandings(t *testing.T) {
	a := mustEntrant("A", sec(3), stub(0))
	b := mustEntrant("B", sec(1), stub(0))
	in := []*Entrant{a, b}

	got := Standings(in)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Position)
	assert.Equal(t, "B", got[0].Identity.Driver)
	assert.Equal(t, time.Duration(0), got[0].GapToLeader)
	assert.Equal(t, 2, got[1].Position)
	assert.Equal(t, sec(2), got[1].GapToLeader)
	assert.Equal(t, []string{"A", "B"}, drivers(in))
}
