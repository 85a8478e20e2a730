// Package store defines persistence for fitted profiles, circuits, simulation
// results and API users.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/padraicbc/f1sim/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when a record fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// ProfileStore holds fitted sampler parameters.
type ProfileStore interface {
	// UpsertProfile inserts or replaces the profile for its driver/constructor/course/year.
	UpsertProfile(ctx context.Context, p *models.Profile) error

	// ProfilesForCourse returns every profile for a course and season, ordered by
	// driver then constructor.
	ProfilesForCourse(ctx context.Context, course string, year int) ([]models.Profile, error)
}

// CircuitStore holds race venues.
type CircuitStore interface {
	UpsertCircuit(ctx context.Context, c *models.Circuit) error

	// Circuit returns the circuit with the given ref. Returns ErrNotFound if absent.
	Circuit(ctx context.Context, ref string) (*models.Circuit, error)

	Circuits(ctx context.Context) ([]models.Circuit, error)
}

// RunStore holds completed simulations.
type RunStore interface {
	// SaveRun stores a run and its lap records atomically. Returns ErrDuplicateKey
	// if the run ID exists.
	SaveRun(ctx context.Context, run *models.SimulationRun, laps []models.LapRecord) error

	// Run returns a run by ID. Returns ErrNotFound if absent.
	Run(ctx context.Context, id string) (*models.SimulationRun, error)

	// Runs returns the most recent runs, newest first.
	Runs(ctx context.Context, limit int) ([]models.SimulationRun, error)

	// Laps returns a run's lap records ordered by lap then position.
	Laps(ctx context.Context, runID string) ([]models.LapRecord, error)
}

// UserStore holds API accounts.
type UserStore interface {
	// UpsertUser inserts a user or replaces the password of the one with the
	// same username. The user's ID is set on return.
	UpsertUser(ctx context.Context, u *models.User) error

	// User returns the account with the given username. Returns ErrNotFound if absent.
	User(ctx context.Context, username string) (*models.User, error)
}

// ValidateUser checks that a user has a username and a password hash.
func ValidateUser(u *models.User) error {
	if u == nil || strings.TrimSpace(u.Username) == "" || u.Password == "" {
		return ErrInvalidInput
	}
	return nil
}

// ValidateProfile checks the fields every profile needs.
func ValidateProfile(p *models.Profile) error {
	switch {
	case p == nil:
		return ErrInvalidInput
	case p.Driver == "" || p.Constructor == "" || p.Course == "":
		return ErrInvalidInput
	case p.LapMeanMs <= 0 || p.LapStdMs < 0 || p.PitMeanMs < 0 || p.PitStdMs < 0:
		return ErrInvalidInput
	case p.OvertakeProb < 0 || p.OvertakeProb > 1:
		return ErrInvalidInput
	case p.PitBaseRate < 0 || p.PitWearRate < 0:
		return ErrInvalidInput
	}
	return nil
}
