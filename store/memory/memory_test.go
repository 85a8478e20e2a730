package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store"
	"github.com/padraicbc/f1sim/store/storetest"
)

var (
	_ store.ProfileStore = (*ProfileStore)(nil)
	_ store.CircuitStore = (*CircuitStore)(nil)
	_ store.RunStore     = (*RunStore)(nil)
	_ store.UserStore    = (*UserStore)(nil)
)

func TestProfileStore(t *testing.T) { storetest.Profiles(t, NewProfileStore()) }

func TestCircuitStore(t *testing.T) { storetest.Circuits(t, NewCircuitStore()) }

func TestRunStore(t *testing.T) { storetest.Runs(t, NewRunStore()) }

func TestUserStore(t *testing.T) { storetest.Users(t, NewUserStore()) }

func TestRunStore_RejectsForeignLaps(t *testing.T) {
	s := NewRunStore()
	err := s.SaveRun(context.Background(), &models.SimulationRun{ID: "r1"}, []models.LapRecord{{RunID: "r2"}})
	require.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = s.Run(context.Background(), "r1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileStore_ReturnsCopies(t *testing.T) {
	s := NewProfileStore()
	ctx := context.Background()
	p := &models.Profile{Driver: "a", Constructor: "x", Course: "monza", Year: 2021, LapMeanMs: 80_000}
	require.NoError(t, s.UpsertProfile(ctx, p))

	p.LapMeanMs = 1
	got, err := s.ProfilesForCourse(ctx, "monza", 2021)
	require.NoError(t, err)
	got[0].LapMeanMs = 2

	got, err = s.ProfilesForCourse(ctx, "monza", 2021)
	require.NoError(t, err)
	assert.Equal(t, 80_000.0, got[0].LapMeanMs)
}

func TestRunStore_ConcurrentSaves(t *testing.T) {
	s := NewRunStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a'+i%26)) + string(rune('a'+i/26))
			assert.NoError(t, s.SaveRun(ctx, &models.SimulationRun{ID: id}, nil))
		}(i)
	}
	wg.Wait()

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 50)
}
