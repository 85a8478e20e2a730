package service

import (
	"time"

	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/process"
	"github.com/padraicbc/f1sim/sim"
)

// EntrantRequest is one car on the grid.
type EntrantRequest struct {
	Driver      string `json:"driver"`
	Constructor string `json:"constructor"`
}

// RaceRequest describes a race to simulate. Entrants start in request order.
type RaceRequest struct {
	Course string `json:"course"`
	Year   int    `json:"year"`
	// Laps of zero means the circuit's configured race length.
	Laps int `json:"laps"`
	// Seed of zero picks a random seed, which is reported back in the result.
	Seed int64 `json:"seed"`
	// GridGapMs overrides the configured start-time penalty per grid slot.
	GridGapMs *int64           `json:"gridGapMs,omitempty"`
	Entrants  []EntrantRequest `json:"entrants"`
}

// StandingView is a standing with durations in milliseconds.
type StandingView struct {
	Position         int    `json:"position"`
	Driver           string `json:"driver"`
	Constructor      string `json:"constructor"`
	ElapsedMs        int64  `json:"elapsedMs"`
	GapMs            int64  `json:"gapMs"`
	LapTimeMs        int64  `json:"lapTimeMs"`
	Overtake         string `json:"overtake,omitempty"`
	Pitted           bool   `json:"pitted"`
	PitStopMs        int64  `json:"pitStopMs,omitempty"`
	LapsSincePitStop int    `json:"lapsSincePitStop"`
}

// LapUpdate is pushed to observers after every lap.
type LapUpdate struct {
	RunID     string         `json:"runID"`
	Lap       int            `json:"lap"`
	Standings []StandingView `json:"standings"`
}

// Result is a finished simulation.
type Result struct {
	RunID     string            `json:"runID"`
	Course    string            `json:"course"`
	Year      int               `json:"year"`
	Laps      int               `json:"laps"`
	Seed      int64             `json:"seed"`
	Standings []StandingView    `json:"standings"`
	Sources   map[string]string `json:"sources,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func viewStandings(standings []sim.Standing) []StandingView {
	out := make([]StandingView, len(standings))
	for i, s := range standings {
		out[i] = StandingView{
			Position:         s.Position,
			Driver:           s.Identity.Driver,
			Constructor:      s.Identity.Constructor,
			ElapsedMs:        process.ToMillis(s.CurrentTime),
			GapMs:            process.ToMillis(s.GapToLeader),
			LapTimeMs:        process.ToMillis(s.Last.LapTime),
			Overtake:         string(s.Last.Overtake),
			Pitted:           s.Last.Pitted,
			PitStopMs:        process.ToMillis(s.Last.PitStopDuration),
			LapsSincePitStop: s.LapsSincePitStop,
		}
	}
	return out
}

func lapRecords(runID string, lap int, views []StandingView) []models.LapRecord {
	out := make([]models.LapRecord, len(views))
	for i, v := range views {
		rec := models.LapRecord{
			RunID:            runID,
			Lap:              lap,
			Position:         v.Position,
			Driver:           v.Driver,
			Constructor:      v.Constructor,
			ElapsedMs:        v.ElapsedMs,
			LapTimeMs:        v.LapTimeMs,
			Overtake:         v.Overtake,
			Pitted:           v.Pitted,
			LapsSincePitStop: v.LapsSincePitStop,
		}
		if v.Pitted {
			ms := v.PitStopMs
			rec.PitStopMs = &ms
		}
		out[i] = rec
	}
	return out
}
