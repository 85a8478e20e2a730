package service

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/padraicbc/f1sim/models"
)

// Run returns a stored simulation.
func (s *Service) Run(ctx context.Context, id string) (*Result, error) {
	run, err := s.runs.Run(ctx, id)
	if err != nil {
		return nil, err
	}
	return resultFromRun(run)
}

// Runs returns the most recent simulations, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]*Result, error) {
	runs, err := s.runs.Runs(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(runs))
	for i := range runs {
		res, err := resultFromRun(&runs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Laps returns the per-lap records of a stored simulation.
func (s *Service) Laps(ctx context.Context, runID string) ([]models.LapRecord, error) {
	return s.runs.Laps(ctx, runID)
}

// SaveProfile stores fitted parameters and drops the cached fit for that course
// and season so the next race picks them up.
func (s *Service) SaveProfile(ctx context.Context, p *models.Profile) error {
	if p != nil {
		p.Course = CourseRef(p.Course)
	}
	if err := s.profiles.UpsertProfile(ctx, p); err != nil {
		return err
	}
	s.factory.Invalidate(p.Course, p.Year)
	return nil
}

func (s *Service) Profiles(ctx context.Context, course string, year int) ([]models.Profile, error) {
	return s.profiles.ProfilesForCourse(ctx, CourseRef(course), year)
}

func (s *Service) SaveCircuit(ctx context.Context, c *models.Circuit) error {
	if c != nil {
		c.Ref = CourseRef(c.Ref)
	}
	return s.circuits.UpsertCircuit(ctx, c)
}

func (s *Service) Circuits(ctx context.Context) ([]models.Circuit, error) {
	return s.circuits.Circuits(ctx)
}

func resultFromRun(run *models.SimulationRun) (*Result, error) {
	res := &Result{
		RunID:     run.ID,
		Course:    run.Course,
		Year:      run.Year,
		Laps:      run.Laps,
		Seed:      run.Seed,
		Sources:   maps.Clone(run.Sources),
		CreatedAt: run.CreatedAt,
	}
	if err := json.Unmarshal(run.Standings, &res.Standings); err != nil {
		return nil, fmt.Errorf("decode standings for run %s: %w", run.ID, err)
	}
	return res, nil
}
