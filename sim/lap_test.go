package sim

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceLap_NoClampWhenOrderHolds(t *testing.T) {
	a := mustEntrant("A", sec(0), stub(sec(100)))
	b := mustEntrant("B", sec(20), stub(sec(90)))
	c := mustEntrant("C", sec(40), stub(sec(110)))

	out, err := AdvanceLap([]*Entrant{a, b, c}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, drivers(out))
	assert.Equal(t, sec(100), a.CurrentTime)
	assert.Equal(t, sec(110), b.CurrentTime)
	assert.Equal(t, sec(150), c.CurrentTime)
	for _, e := range out {
		assert.Equal(t, OvertakeNone, e.Last.Overtake)
	}
}

func TestAdvanceLap_ClampOnFailedOvertake(t *testing.T) {
	a := mustEntrant("A", sec(0), stub(sec(100)))
	b := mustEntrant("B", sec(20), stub(sec(50)))
	c := mustEntrant("C", sec(40), stub(sec(200)))

	out, err := AdvanceLap([]*Entrant{c, b, a}, 0)
	require.NoError(t, err)

	assert.Equal(t, sec(100), a.CurrentTime)
	assert.Equal(t, sec(100), b.CurrentTime, "blocked entrant takes exactly the blocker's time")
	assert.Equal(t, sec(240), c.CurrentTime)
	assert.Equal(t, OvertakeStuck, b.Last.Overtake)
	assert.Equal(t, sec(50), b.Last.LapTime)

	// tie keeps start-of-lap order
	assert.Equal(t, []string{"A", "B", "C"}, drivers(out))
}

func TestAdvanceLap_SuccessfulOvertakeKeepsTime(t *testing.T) {
	var got OvertakeContext
	pb := stub(sec(50))
	pb.Overtake = func(ctx OvertakeContext) bool {
		got = ctx
		return true
	}
	a := mustEntrant("A", sec(0), stub(sec(100)))
	b := mustEntrant("B", sec(20), pb)

	out, err := AdvanceLap([]*Entrant{a, b}, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, drivers(out))
	assert.Equal(t, sec(70), b.CurrentTime)
	assert.Equal(t, OvertakeSuccess, b.Last.Overtake)
	assert.Equal(t, OvertakeContext{Lap: 3, LapTime: sec(50), Margin: sec(30), Ahead: a.Identity}, got)
}

func TestAdvanceLap_LeaderNeverSamplesOvertake(t *testing.T) {
	p := stub(sec(10))
	p.Overtake = func(OvertakeContext) bool {
		t.Fatal("leader must not sample an overtake")
		return false
	}
	a := mustEntrant("A", 0, p)

	_, err := AdvanceLap([]*Entrant{a}, 0)
	require.NoError(t, err)
}

func TestAdvanceLap_SingleComparisonPerEntrant(t *testing.T) {
	calls := 0
	pc := stub(sec(10))
	pc.Overtake = func(OvertakeContext) bool {
		calls++
		return true
	}
	a := mustEntrant("A", sec(0), stub(sec(100)))
	b := mustEntrant("B", sec(10), stub(sec(100)))
	c := mustEntrant("C", sec(20), pc)

	out, err := AdvanceLap([]*Entrant{a, b, c}, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"C", "A", "B"}, drivers(out))
}

func TestAdvanceLap_ComparesAgainstBlockerAfterItsPitStop(t *testing.T) {
	pa := stub(sec(100))
	pa.PitStop = func(PitStopContext) bool { return true }
	pa.PitStopDuration = func(int) time.Duration { return sec(30) }
	a := mustEntrant("A", sec(0), pa)
	b := mustEntrant("B", sec(10), stub(sec(100)))

	_, err := AdvanceLap([]*Entrant{a, b}, 0)
	require.NoError(t, err)

	assert.Equal(t, sec(130), a.CurrentTime)
	assert.Equal(t, sec(130), b.CurrentTime)
	assert.Equal(t, OvertakeStuck, b.Last.Overtake)
}

func TestAdvanceLap_PitStopCounter(t *testing.T) {
	pit := stub(sec(90))
	pit.PitStop = func(PitStopContext) bool { return true }
	pit.PitStopDuration = func(int) time.Duration { return 22 * time.Second }

	a := mustEntrant("A", 0, pit)
	b := mustEntrant("B", sec(5), stub(sec(100)))
	a.LapsSincePitStop = 17
	b.LapsSincePitStop = 4

	_, err := AdvanceLap([]*Entrant{a, b}, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, a.LapsSincePitStop)
	assert.True(t, a.Last.Pitted)
	assert.Equal(t, 22*time.Second, a.Last.PitStopDuration)
	assert.Equal(t, sec(112), a.CurrentTime)

	assert.Equal(t, 5, b.LapsSincePitStop)
	assert.False(t, b.Last.Pitted)
}

func TestAdvanceLap_PitContext(t *testing.T) {
	var got PitStopContext
	pb := stub(sec(100))
	pb.PitStop = func(ctx PitStopContext) bool {
		got = ctx
		return false
	}
	a := mustEntrant("A", sec(0), stub(sec(100)))
	b := mustEntrant("B", sec(3), pb)
	b.LapsSincePitStop = 9

	_, err := AdvanceLap([]*Entrant{a, b}, 7)
	require.NoError(t, err)

	assert.Equal(t, PitStopContext{Lap: 7, LapTime: sec(100), LapsSincePitStop: 9, Position: 1, GapAhead: sec(3)}, got)
}

func TestAdvanceLap_NegativeLapTimeLeavesEntrantsUntouched(t *testing.T) {
	a := mustEntrant("A", sec(0), stub(sec(100)))
	b := mustEntrant("B", sec(20), stub(-time.Second))
	a.LapsSincePitStop = 2

	_, err := AdvanceLap([]*Entrant{a, b}, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSamplerContract))

	var se *SamplerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "lap time", se.Sampler)
	assert.Equal(t, 4, se.Lap)
	assert.Equal(t, b.Identity, se.Entrant)

	assert.Equal(t, sec(0), a.CurrentTime, "earlier entrant must not be committed")
	assert.Equal(t, 2, a.LapsSincePitStop)
	assert.Equal(t, sec(20), b.CurrentTime)
}

func TestAdvanceLap_NegativePitDuration(t *testing.T) {
	p := stub(sec(100))
	p.PitStop = func(PitStopContext) bool { return true }
	p.PitStopDuration = func(int) time.Duration { return -time.Millisecond }
	a := mustEntrant("A", 0, p)

	_, err := AdvanceLap([]*Entrant{a}, 0)
	require.ErrorIs(t, err, ErrSamplerContract)
	assert.Equal(t, time.Duration(0), a.CurrentTime)
}

func TestAdvanceLap_DoesNotReorderInput(t *testing.T) {
	a := mustEntrant("A", sec(10), stub(sec(1)))
	b := mustEntrant("B", sec(0), stub(sec(1)))
	in := []*Entrant{a, b}

	out, err := AdvanceLap(in, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, drivers(in))
	assert.Equal(t, []string{"B", "A"}, drivers(out))
}

func TestAdvanceLap_TimeMonotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	random := func() Processes {
		return Processes{
			LapTime:         func(int, int) time.Duration { return time.Duration(80_000+rng.IntN(40_000)) * time.Millisecond },
			Overtake:        func(OvertakeContext) bool { return rng.IntN(2) == 0 },
			PitStop:         func(PitStopContext) bool { return rng.IntN(20) == 0 },
			PitStopDuration: func(int) time.Duration { return time.Duration(20_000+rng.IntN(5_000)) * time.Millisecond },
		}
	}

	entrants := make([]*Entrant, 8)
	for i := range entrants {
		entrants[i] = mustEntrant(string(rune('A'+i)), sec(i), random())
	}

	for lap := 0; lap < 50; lap++ {
		before := make(map[Identity]time.Duration, len(entrants))
		for _, e := range entrants {
			before[e.Identity] = e.CurrentTime
		}

		next, err := AdvanceLap(entrants, lap)
		require.NoError(t, err)

		for i, e := range next {
			assert.GreaterOrEqual(t, e.CurrentTime, before[e.Identity])
			if i > 0 {
				assert.LessOrEqual(t, next[i-1].CurrentTime, e.CurrentTime)
			}
		}
		entrants = next
	}
}

func TestSortByTime_Idempotent(t *testing.T) {
	entrants := []*Entrant{
		mustEntrant("A", sec(1), stub(0)),
		mustEntrant("B", sec(1), stub(0)),
		mustEntrant("C", sec(2), stub(0)),
		mustEntrant("D", sec(2), stub(0)),
	}

	SortByTime(entrants)
	first := drivers(entrants)
	SortByTime(entrants)

	assert.Equal(t, []string{"A", "B", "C", "D"}, first)
	assert.Equal(t, first, drivers(entrants))
}
