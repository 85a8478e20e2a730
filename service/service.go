// Package service runs race simulations end to end: it builds entrants from
// stored profiles, drives the lap loop, records every lap and stores the result.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/observability"
	"github.com/padraicbc/f1sim/process"
	"github.com/padraicbc/f1sim/sim"
	"github.com/padraicbc/f1sim/store"
)

// Service errors
var (
	ErrNoEntrants = fmt.Errorf("%w: race needs at least one entrant", sim.ErrInvalidInput)
	ErrNoCourse   = fmt.Errorf("%w: course is required", sim.ErrInvalidInput)
)

// Service coordinates simulations. It is safe for concurrent use; each race owns
// its entrants and random source.
type Service struct {
	factory  *process.Factory
	profiles store.ProfileStore
	circuits store.CircuitStore
	runs     store.RunStore
	metrics  *observability.Metrics
	log      *zap.Logger

	gridGap     time.Duration
	workers     int
	maxLaps     int
	maxEntrants int
}

// Limits applied when Options leaves them unset.
const (
	DefaultMaxLaps     = 500
	DefaultMaxEntrants = 60
)

// Options contains configuration for creating a Service.
type Options struct {
	Factory  *process.Factory
	Profiles store.ProfileStore
	Circuits store.CircuitStore
	Runs     store.RunStore
	Metrics  *observability.Metrics
	Logger   *zap.Logger

	GridGap time.Duration
	Workers int

	// MaxLaps and MaxEntrants bound the size of one race. Every lap of every
	// entrant is recorded, so both are enforced before the race starts.
	MaxLaps     int
	MaxEntrants int
}

// New creates a Service.
func New(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics("", nil)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	maxLaps := opts.MaxLaps
	if maxLaps < 1 {
		maxLaps = DefaultMaxLaps
	}
	maxEntrants := opts.MaxEntrants
	if maxEntrants < 1 {
		maxEntrants = DefaultMaxEntrants
	}
	return &Service{
		factory:     opts.Factory,
		profiles:    opts.Profiles,
		circuits:    opts.Circuits,
		runs:        opts.Runs,
		metrics:     metrics,
		log:         log,
		gridGap:     opts.GridGap,
		workers:     workers,
		maxLaps:     maxLaps,
		maxEntrants: maxEntrants,
	}
}

// Simulate runs one race. observer, when non-nil, receives every lap as it
// completes; an observer error aborts the race.
func (s *Service) Simulate(ctx context.Context, req RaceRequest, observer func(LapUpdate) error) (*Result, error) {
	req.Course = CourseRef(req.Course)
	if req.Course == "" {
		return nil, ErrNoCourse
	}
	if len(req.Entrants) == 0 {
		return nil, ErrNoEntrants
	}
	if len(req.Entrants) > s.maxEntrants {
		return nil, fmt.Errorf("%w: %d entrants, at most %d allowed", sim.ErrInvalidInput, len(req.Entrants), s.maxEntrants)
	}

	laps, err := s.raceLength(ctx, req)
	if err != nil {
		return nil, err
	}
	if laps > s.maxLaps {
		return nil, fmt.Errorf("%w: %d laps, at most %d allowed", sim.ErrInvalidInput, laps, s.maxLaps)
	}

	seed := req.Seed
	if seed == 0 {
		seed = rand.Int64N(1<<62) + 1
	}
	gap := s.gridGap
	if req.GridGapMs != nil {
		if *req.GridGapMs < 0 {
			return nil, fmt.Errorf("%w: negative grid gap", sim.ErrInvalidInput)
		}
		gap = time.Duration(*req.GridGapMs) * time.Millisecond
	}

	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID), zap.String("course", req.Course), zap.Int("year", req.Year))

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	entrants := make([]*sim.Entrant, 0, len(req.Entrants))
	sources := make(map[string]string, len(req.Entrants))
	for slot, er := range req.Entrants {
		id := sim.Identity{Driver: er.Driver, Constructor: er.Constructor, Course: req.Course, Year: req.Year}
		procs, src, err := s.factory.Processes(ctx, id, rng)
		if err != nil {
			return nil, fmt.Errorf("build samplers for %s: %w", id, err)
		}
		s.metrics.SamplerSources.WithLabelValues(string(src)).Inc()
		sources[er.Driver+"/"+er.Constructor] = string(src)

		e, err := sim.NewEntrant(id, time.Duration(slot)*gap, procs)
		if err != nil {
			return nil, err
		}
		entrants = append(entrants, e)
	}

	var records []models.LapRecord
	race := &sim.Race{
		Entrants: entrants,
		Laps:     laps,
		OnLap: func(lap int, order []*sim.Entrant) error {
			views := viewStandings(sim.Standings(order))
			records = append(records, lapRecords(runID, lap, views)...)
			s.countLap(order)
			if observer != nil {
				return observer(LapUpdate{RunID: runID, Lap: lap, Standings: views})
			}
			return nil
		},
	}

	s.metrics.RacesInFlight.Inc()
	started := time.Now()
	final, err := race.Run(ctx)
	s.metrics.RacesInFlight.Dec()
	s.metrics.RaceDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.metrics.RacesSimulated.WithLabelValues("failed").Inc()
		if errors.Is(err, sim.ErrSamplerContract) {
			s.metrics.SamplerViolations.Inc()
		}
		log.Warn("race simulation failed", zap.Error(err))
		return nil, err
	}

	result := &Result{
		RunID:     runID,
		Course:    req.Course,
		Year:      req.Year,
		Laps:      laps,
		Seed:      seed,
		Standings: viewStandings(sim.Standings(final)),
		Sources:   sources,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.save(ctx, result, len(entrants), records); err != nil {
		s.metrics.RunPersistFailures.Inc()
		s.metrics.RacesSimulated.WithLabelValues("failed").Inc()
		log.Error("store simulation run", zap.Error(err))
		return nil, err
	}

	s.metrics.RacesSimulated.WithLabelValues("completed").Inc()
	log.Info("race simulated",
		zap.Int("laps", laps),
		zap.Int("entrants", len(entrants)),
		zap.Int64("seed", seed),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// SimulateBatch runs independent races concurrently, at most the configured
// number at a time. Results are in request order. The first failure cancels the
// races that have not finished.
func (s *Service) SimulateBatch(ctx context.Context, reqs []RaceRequest) ([]*Result, error) {
	results := make([]*Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Simulate(ctx, req, nil)
			if err != nil {
				return fmt.Errorf("race %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) raceLength(ctx context.Context, req RaceRequest) (int, error) {
	if req.Laps != 0 || s.circuits == nil {
		return req.Laps, nil
	}

	c, err := s.circuits.Circuit(ctx, req.Course)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("%w: laps not given and circuit %q is unknown", sim.ErrInvalidInput, req.Course)
		}
		return 0, err
	}
	if c.Laps <= 0 {
		return 0, fmt.Errorf("%w: circuit %q has no race length", sim.ErrInvalidInput, req.Course)
	}
	return c.Laps, nil
}

func (s *Service) countLap(order []*sim.Entrant) {
	s.metrics.LapsSimulated.Inc()
	for _, e := range order {
		if e.Last.Overtake != sim.OvertakeNone {
			s.metrics.Overtakes.WithLabelValues(string(e.Last.Overtake)).Inc()
		}
		if e.Last.Pitted {
			s.metrics.PitStops.Inc()
		}
	}
}

func (s *Service) save(ctx context.Context, res *Result, entrants int, records []models.LapRecord) error {
	if s.runs == nil {
		return nil
	}

	standings, err := json.Marshal(res.Standings)
	if err != nil {
		return fmt.Errorf("encode standings: %w", err)
	}

	run := &models.SimulationRun{
		ID:        res.RunID,
		Course:    res.Course,
		Year:      res.Year,
		Laps:      res.Laps,
		Seed:      res.Seed,
		Entrants:  entrants,
		Standings: standings,
		Sources:   res.Sources,
		CreatedAt: res.CreatedAt,
	}
	return s.runs.SaveRun(ctx, run, records)
}

// CourseRef normalises a course token. Circuit refs, profile courses and race
// requests all go through it so they match regardless of case.
func CourseRef(course string) string {
	return strings.ToLower(strings.TrimSpace(course))
}
