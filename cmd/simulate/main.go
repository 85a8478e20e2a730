// cmd/simulate/main.go
// Runs one race offline against in-memory stores and prints the final standings.
//
// Usage:
//
//	go run ./cmd/simulate -laps 53 -entrants 20 -seed 7 -lap-std-ms 400 -pit-rate 0.03
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/padraicbc/f1sim/config"
	applog "github.com/padraicbc/f1sim/logger"
	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/observability"
	"github.com/padraicbc/f1sim/process"
	"github.com/padraicbc/f1sim/service"
	"github.com/padraicbc/f1sim/store/memory"
)

const course = "offline"

func main() {
	defaults := config.LoadSim()

	laps := flag.Int("laps", 50, "race length in laps")
	entrants := flag.Int("entrants", 20, "number of cars on the grid")
	seed := flag.Int64("seed", 0, "random seed, 0 picks one")
	gridGap := flag.Int64("grid-gap", defaults.GridGap.Milliseconds(), "start-time penalty per grid slot in ms")
	lapMs := flag.Float64("lap-ms", float64(defaults.DefaultLapTime.Milliseconds()), "mean lap time in ms")
	lapStdMs := flag.Float64("lap-std-ms", float64(defaults.DefaultLapStdDev.Milliseconds()), "lap time standard deviation in ms")
	overtake := flag.Float64("overtake", defaults.DefaultOvertakeProb, "overtake success probability")
	pitRate := flag.Float64("pit-rate", 0, "pit stop probability per lap")
	pitMs := flag.Float64("pit-ms", float64(defaults.DefaultPitStop.Milliseconds()), "mean pit stop duration in ms")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logger, err := applog.Console(*debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if *entrants < 1 {
		logger.Fatal("need at least one entrant", zap.Int("entrants", *entrants))
	}

	ctx := context.Background()
	profiles := memory.NewProfileStore()
	factory := process.NewFactory(process.FactoryOptions{
		Profiles: profiles,
		Defaults: process.Defaults(
			defaults.DefaultLapTime,
			defaults.DefaultLapStdDev,
			defaults.DefaultPitStop,
			defaults.DefaultOvertakeProb,
		),
		MinObservations: defaults.MinObservations,
		Logger:          logger,
	})
	svc := service.New(service.Options{
		Factory:  factory,
		Profiles: profiles,
		Circuits: memory.NewCircuitStore(),
		Runs:     memory.NewRunStore(),
		Metrics:  observability.NewMetrics("", prometheus.NewRegistry()),
		Logger:   logger,
		GridGap:  defaults.GridGap,
		Workers:  1,

		MaxLaps:     defaults.MaxLaps,
		MaxEntrants: defaults.MaxEntrants,
	})

	grid := make([]service.EntrantRequest, *entrants)
	for i := range grid {
		grid[i] = service.EntrantRequest{
			Driver:      fmt.Sprintf("car%02d", i+1),
			Constructor: fmt.Sprintf("team%02d", i/2+1),
		}
		err := svc.SaveProfile(ctx, &models.Profile{
			Driver:       grid[i].Driver,
			Constructor:  grid[i].Constructor,
			Course:       course,
			Year:         time.Now().Year(),
			Observations: defaults.MinObservations,
			LapMeanMs:    *lapMs,
			LapStdMs:     *lapStdMs,
			OvertakeProb: *overtake,
			PitBaseRate:  *pitRate,
			PitMeanMs:    *pitMs,
		})
		if err != nil {
			logger.Fatal("invalid process parameters", zap.Error(err))
		}
	}

	res, err := svc.Simulate(ctx, service.RaceRequest{
		Course:    course,
		Year:      time.Now().Year(),
		Laps:      *laps,
		Seed:      *seed,
		GridGapMs: gridGap,
		Entrants:  grid,
	}, nil)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	printStandings(res)
}

func printStandings(res *service.Result) {
	fmt.Printf("%d laps, seed %d\n\n", res.Laps, res.Seed)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Pos\tDriver\tTeam\tTime\tGap\tLast lap\tSince pit\t")
	for _, s := range res.Standings {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t+%s\t%s\t%d\t\n",
			s.Position, s.Driver, s.Constructor,
			ms(s.ElapsedMs), ms(s.GapMs), ms(s.LapTimeMs), s.LapsSincePitStop)
	}
	_ = w.Flush()
}

func ms(v int64) time.Duration {
	return (time.Duration(v) * time.Millisecond).Round(time.Millisecond)
}
