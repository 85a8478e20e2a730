package process

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/sim"
	"github.com/padraicbc/f1sim/store"
)

// Source says which model an entrant's samplers were built from.
type Source string

const (
	SourceProfile Source = "profile"
	SourceField   Source = "field"
	SourceDefault Source = "default"
)

type courseKey struct {
	course string
	year   int
}

type entrantKey struct {
	driver, constructor string
}

// courseFit is everything known about one course and season.
type courseFit struct {
	entrants map[entrantKey]Params
	// field averages the trusted profiles; nil when there are none.
	field *Params
}

// Factory builds samplers for entrants from stored profiles. Fitted models are
// cached per course and season and shared by every race at that venue.
type Factory struct {
	profiles        store.ProfileStore
	defaults        Params
	minObservations int
	fits            *xsync.MapOf[courseKey, *courseFit]

	// generation is bumped by every Invalidate. A fit built from profiles read
	// under an older generation is returned but never cached.
	generation atomic.Uint64
	log        *zap.Logger
}

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	Profiles store.ProfileStore
	Defaults Params
	// MinObservations is the number of observations a profile needs to be used.
	MinObservations int
	Logger          *zap.Logger
}

// NewFactory creates a factory. A nil profile store means every entrant gets the defaults.
func NewFactory(opts FactoryOptions) *Factory {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{
		profiles:        opts.Profiles,
		defaults:        opts.Defaults,
		minObservations: opts.MinObservations,
		fits:            xsync.NewMapOf[courseKey, *courseFit](),
		log:             log,
	}
}

// Processes returns samplers for id drawing from rng. An entrant without a
// trusted profile gets the course field average, or the defaults when the
// course has no trusted profiles either.
func (f *Factory) Processes(ctx context.Context, id sim.Identity, rng *rand.Rand) (sim.Processes, Source, error) {
	fit, err := f.fit(ctx, id.Course, id.Year)
	if err != nil {
		return sim.Processes{}, "", err
	}

	params, src := f.defaults, SourceDefault
	if p, ok := fit.entrants[entrantKey{id.Driver, id.Constructor}]; ok {
		params, src = p, SourceProfile
	} else if fit.field != nil {
		params, src = *fit.field, SourceField
	}

	if src != SourceProfile {
		f.log.Debug("insufficient fitting data, using fallback",
			zap.Stringer("entrant", id),
			zap.String("source", string(src)),
		)
	}
	return New(params, rng), src, nil
}

// Invalidate drops the cached fit for a course and season.
func (f *Factory) Invalidate(course string, year int) {
	f.generation.Add(1)
	f.fits.Delete(courseKey{course, year})
}

func (f *Factory) fit(ctx context.Context, course string, year int) (*courseFit, error) {
	key := courseKey{course, year}
	if fit, ok := f.fits.Load(key); ok {
		return fit, nil
	}

	gen := f.generation.Load()
	var profiles []models.Profile
	if f.profiles != nil {
		var err error
		profiles, err = f.profiles.ProfilesForCourse(ctx, course, year)
		if err != nil {
			return nil, fmt.Errorf("load profiles for %s %d: %w", course, year, err)
		}
	}

	fresh := f.build(profiles)
	result := fresh
	f.fits.Compute(key, func(old *courseFit, loaded bool) (*courseFit, bool) {
		if loaded {
			result = old
			return old, false
		}
		// Invalidated while loading: the profiles may predate the write.
		if f.generation.Load() != gen {
			return nil, true
		}
		return fresh, false
	})
	return result, nil
}

func (f *Factory) build(profiles []models.Profile) *courseFit {
	fit := &courseFit{entrants: make(map[entrantKey]Params, len(profiles))}

	var sum fieldSum
	trusted := 0
	for _, p := range profiles {
		if p.Observations < f.minObservations || p.LapMeanMs <= 0 {
			continue
		}
		params := FromProfile(p)
		fit.entrants[entrantKey{p.Driver, p.Constructor}] = params
		sum.add(params, p.Observations)
		trusted++
	}

	if trusted > 0 {
		field := sum.mean()
		fit.field = &field
	}
	return fit
}

// fieldSum accumulates an observation-weighted average of parameters.
type fieldSum struct {
	weight float64

	lapMean, lapStd, degrade, pitMean, pitStd float64

	overtake, pitBase, pitWear float64
}

func (s *fieldSum) add(p Params, observations int) {
	w := float64(max(observations, 1))
	s.weight += w
	s.lapMean += w * float64(p.LapMean)
	s.lapStd += w * float64(p.LapStdDev)
	s.degrade += w * float64(p.Degradation)
	s.pitMean += w * float64(p.PitMean)
	s.pitStd += w * float64(p.PitStdDev)
	s.overtake += w * p.OvertakeProb
	s.pitBase += w * p.PitBaseRate
	s.pitWear += w * p.PitWearRate
}

func (s *fieldSum) mean() Params {
	avg := func(v float64) float64 { return v / s.weight }
	dur := func(v float64) time.Duration { return time.Duration(avg(v)) }
	return Params{
		LapMean:      dur(s.lapMean),
		LapStdDev:    dur(s.lapStd),
		Degradation:  dur(s.degrade),
		OvertakeProb: avg(s.overtake),
		PitBaseRate:  avg(s.pitBase),
		PitWearRate:  avg(s.pitWear),
		PitMean:      dur(s.pitMean),
		PitStdDev:    dur(s.pitStd),
	}
}
