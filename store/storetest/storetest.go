// Package storetest holds behaviour tests shared by every store implementation.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store"
)

func profile(driver, course string, year int) *models.Profile {
	return &models.Profile{
		Driver:       driver,
		Constructor:  "team_" + driver,
		Course:       course,
		Year:         year,
		Observations: 12,
		LapMeanMs:    90_000,
		LapStdMs:     500,
		OvertakeProb: 0.4,
		PitWearRate:  0.01,
		PitMeanMs:    22_000,
	}
}

// Profiles exercises a store.ProfileStore. s must be empty.
func Profiles(t *testing.T, s store.ProfileStore) {
	ctx := context.Background()

	require.NoError(t, s.UpsertProfile(ctx, profile("b", "monza", 2021)))
	require.NoError(t, s.UpsertProfile(ctx, profile("a", "monza", 2021)))
	require.NoError(t, s.UpsertProfile(ctx, profile("a", "monza", 2020)))
	require.NoError(t, s.UpsertProfile(ctx, profile("a", "spa", 2021)))

	got, err := s.ProfilesForCourse(ctx, "monza", 2021)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Driver)
	assert.Equal(t, "b", got[1].Driver)
	assert.NotZero(t, got[0].ID)

	updated := profile("a", "monza", 2021)
	updated.LapMeanMs = 88_500
	updated.Observations = 30
	require.NoError(t, s.UpsertProfile(ctx, updated))

	got, err = s.ProfilesForCourse(ctx, "monza", 2021)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 88_500.0, got[0].LapMeanMs)
	assert.Equal(t, 30, got[0].Observations)

	got, err = s.ProfilesForCourse(ctx, "suzuka", 2021)
	require.NoError(t, err)
	assert.Empty(t, got)

	bad := profile("c", "monza", 2021)
	bad.OvertakeProb = 1.5
	require.ErrorIs(t, s.UpsertProfile(ctx, bad), store.ErrInvalidInput)
	bad = profile("c", "monza", 2021)
	bad.LapMeanMs = 0
	require.ErrorIs(t, s.UpsertProfile(ctx, bad), store.ErrInvalidInput)
}

// Circuits exercises a store.CircuitStore. s must be empty.
func Circuits(t *testing.T, s store.CircuitStore) {
	ctx := context.Background()

	monza := &models.Circuit{Ref: "monza", Name: "Monza", Country: "Italy", Laps: 53}
	require.NoError(t, s.UpsertCircuit(ctx, monza))
	require.NotZero(t, monza.CircuitID)
	require.NoError(t, s.UpsertCircuit(ctx, &models.Circuit{Ref: "albert_park", Name: "Albert Park", Laps: 58}))

	require.NoError(t, s.UpsertCircuit(ctx, &models.Circuit{Ref: "monza", Name: "Monza", Country: "Italy", Laps: 51}))

	got, err := s.Circuit(ctx, "monza")
	require.NoError(t, err)
	assert.Equal(t, 51, got.Laps)
	assert.Equal(t, monza.CircuitID, got.CircuitID)

	all, err := s.Circuits(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "albert_park", all[0].Ref)

	_, err = s.Circuit(ctx, "nowhere")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.UpsertCircuit(ctx, &models.Circuit{Name: "no ref"}), store.ErrInvalidInput)
}

func run(id string, created time.Time) *models.SimulationRun {
	return &models.SimulationRun{
		ID:        id,
		Course:    "monza",
		Year:      2021,
		Laps:      2,
		Seed:      42,
		Entrants:  2,
		Standings: json.RawMessage(`[{"position":1,"driver":"a"},{"position":2,"driver":"b"}]`),
		Sources:   map[string]string{"a/x": "profile", "b/y": "default"},
		CreatedAt: created,
	}
}

func laps(runID string) []models.LapRecord {
	pit := int64(21_500)
	return []models.LapRecord{
		{RunID: runID, Lap: 1, Position: 2, Driver: "a", Constructor: "x", ElapsedMs: 200_000, LapTimeMs: 90_000, Pitted: true, PitStopMs: &pit},
		{RunID: runID, Lap: 0, Position: 1, Driver: "a", Constructor: "x", ElapsedMs: 90_000, LapTimeMs: 90_000, LapsSincePitStop: 1},
		{RunID: runID, Lap: 0, Position: 2, Driver: "b", Constructor: "y", ElapsedMs: 90_020, LapTimeMs: 90_000, LapsSincePitStop: 1},
		{RunID: runID, Lap: 1, Position: 1, Driver: "b", Constructor: "y", ElapsedMs: 180_020, LapTimeMs: 90_000, Overtake: "success", LapsSincePitStop: 2},
	}
}

// Runs exercises a store.RunStore. s must be empty.
func Runs(t *testing.T, s store.RunStore) {
	ctx := context.Background()
	base := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, run("r1", base), laps("r1")))
	require.NoError(t, s.SaveRun(ctx, run("r2", base.Add(time.Minute)), nil))
	require.NoError(t, s.SaveRun(ctx, run("r3", base.Add(2*time.Minute)), laps("r3")))

	got, err := s.Run(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Seed)
	assert.JSONEq(t, string(run("r1", base).Standings), string(got.Standings))
	assert.True(t, base.Equal(got.CreatedAt))
	assert.Equal(t, map[string]string{"a/x": "profile", "b/y": "default"}, got.Sources)

	recent, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].ID)
	assert.Equal(t, "r2", recent[1].ID)

	all, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	records, err := s.Laps(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []int{0, 0, 1, 1}, []int{records[0].Lap, records[1].Lap, records[2].Lap, records[3].Lap})
	assert.Equal(t, "a", records[0].Driver)
	assert.Equal(t, "b", records[2].Driver)
	require.NotNil(t, records[3].PitStopMs)
	assert.Equal(t, int64(21_500), *records[3].PitStopMs)

	records, err = s.Laps(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = s.Run(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Laps(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.SaveRun(ctx, run("r1", base), nil), store.ErrDuplicateKey)
	require.ErrorIs(t, s.SaveRun(ctx, &models.SimulationRun{}, nil), store.ErrInvalidInput)
}

// Users exercises a store.UserStore. s must be empty.
func Users(t *testing.T, s store.UserStore) {
	ctx := context.Background()

	alice := &models.User{Username: "alice", Password: "hash-1"}
	require.NoError(t, s.UpsertUser(ctx, alice))
	require.NotZero(t, alice.ID)
	require.NoError(t, s.UpsertUser(ctx, &models.User{Username: "bob", Password: "hash-2"}))

	require.NoError(t, s.UpsertUser(ctx, &models.User{Username: "alice", Password: "hash-3"}))

	got, err := s.User(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash-3", got.Password)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.User(ctx, "carol")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.UpsertUser(ctx, &models.User{Username: " ", Password: "x"}), store.ErrInvalidInput)
	require.ErrorIs(t, s.UpsertUser(ctx, &models.User{Username: "dave"}), store.ErrInvalidInput)
}
