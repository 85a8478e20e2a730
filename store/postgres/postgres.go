// Package postgres implements the store interfaces on PostgreSQL through bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store"
)

const pgErrUniqueViolation = "23505"

// Store implements store.ProfileStore, store.CircuitStore, store.RunStore and
// store.UserStore.
type Store struct {
	db *bun.DB
}

// New wraps an open bun database. Tables are expected to exist (see db.CreateTables).
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

var (
	_ store.ProfileStore = (*Store)(nil)
	_ store.CircuitStore = (*Store)(nil)
	_ store.RunStore     = (*Store)(nil)
	_ store.UserStore    = (*Store)(nil)
)

func isDuplicateKey(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgErrUniqueViolation
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// UpsertProfile inserts or replaces a profile.
func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if err := store.ValidateProfile(p); err != nil {
		return err
	}

	_, err := s.db.NewInsert().Model(p).
		On("CONFLICT (driver, constructor, course, year) DO UPDATE").
		Set("observations = EXCLUDED.observations").
		Set("lap_mean_ms = EXCLUDED.lap_mean_ms").
		Set("lap_std_ms = EXCLUDED.lap_std_ms").
		Set("degrade_ms = EXCLUDED.degrade_ms").
		Set("overtake_prob = EXCLUDED.overtake_prob").
		Set("pit_base_rate = EXCLUDED.pit_base_rate").
		Set("pit_wear_rate = EXCLUDED.pit_wear_rate").
		Set("pit_mean_ms = EXCLUDED.pit_mean_ms").
		Set("pit_std_ms = EXCLUDED.pit_std_ms").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// ProfilesForCourse returns every profile for a course and season.
func (s *Store) ProfilesForCourse(ctx context.Context, course string, year int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := s.db.NewSelect().Model(&profiles).
		Where("p.course = ?", course).
		Where("p.year = ?", year).
		OrderExpr("p.driver ASC, p.constructor ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	return profiles, nil
}

func (s *Store) UpsertCircuit(ctx context.Context, c *models.Circuit) error {
	if c == nil || c.Ref == "" || c.Laps < 0 {
		return store.ErrInvalidInput
	}

	_, err := s.db.NewInsert().Model(c).
		On("CONFLICT (ref) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("country = EXCLUDED.country").
		Set("laps = EXCLUDED.laps").
		Returning("circuit_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert circuit: %w", err)
	}
	return nil
}

func (s *Store) Circuit(ctx context.Context, ref string) (*models.Circuit, error) {
	c := &models.Circuit{}
	if err := s.db.NewSelect().Model(c).Where("c.ref = ?", ref).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *Store) Circuits(ctx context.Context) ([]models.Circuit, error) {
	var circuits []models.Circuit
	if err := s.db.NewSelect().Model(&circuits).OrderExpr("c.name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select circuits: %w", err)
	}
	return circuits, nil
}

// SaveRun writes the run and all its lap records in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *models.SimulationRun, laps []models.LapRecord) error {
	if run == nil || run.ID == "" {
		return store.ErrInvalidInput
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(run).Returning("created_at").Exec(ctx); err != nil {
			return err
		}
		if len(laps) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&laps).Exec(ctx)
		return err
	})
	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) Run(ctx context.Context, id string) (*models.SimulationRun, error) {
	run := &models.SimulationRun{}
	if err := s.db.NewSelect().Model(run).Where("sr.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return run, nil
}

func (s *Store) Runs(ctx context.Context, limit int) ([]models.SimulationRun, error) {
	var runs []models.SimulationRun
	q := s.db.NewSelect().Model(&runs).OrderExpr("sr.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return runs, nil
}

func (s *Store) Laps(ctx context.Context, runID string) ([]models.LapRecord, error) {
	exists, err := s.db.NewSelect().Model((*models.SimulationRun)(nil)).
		Where("sr.id = ?", runID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check run: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	var laps []models.LapRecord
	err = s.db.NewSelect().Model(&laps).
		Where("lr.run_id = ?", runID).
		OrderExpr("lr.lap ASC, lr.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select laps: %w", err)
	}
	return laps, nil
}

// UpsertUser inserts a user or replaces the password of an existing one.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	if err := store.ValidateUser(u); err != nil {
		return err
	}

	_, err := s.db.NewInsert().Model(u).
		On("CONFLICT (username) DO UPDATE").
		Set("password = EXCLUDED.password").
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *Store) User(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	if err := s.db.NewSelect().Model(u).Where("u.username = ?", username).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
