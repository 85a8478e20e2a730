package models

import "github.com/uptrace/bun"

// LapRecord is one entrant's state at the end of one simulated lap.
type LapRecord struct {
	bun.BaseModel `bun:"table:lap_records,alias:lr"`

	ID               int64  `bun:"id,pk,autoincrement" json:"-"`
	RunID            string `bun:"run_id,notnull,unique:lap_records_no_dupes" json:"runID"`
	Lap              int    `bun:"lap,notnull,unique:lap_records_no_dupes" json:"lap"`
	Position         int    `bun:"position,notnull,unique:lap_records_no_dupes" json:"position"`
	Driver           string `bun:"driver,notnull" json:"driver"`
	Constructor      string `bun:"constructor,notnull" json:"constructor"`
	ElapsedMs        int64  `bun:"elapsed_ms,notnull" json:"elapsedMs"`
	LapTimeMs        int64  `bun:"lap_time_ms,notnull" json:"lapTimeMs"`
	Overtake         string `bun:"overtake,notnull,default:''" json:"overtake,omitempty"`
	Pitted           bool   `bun:"pitted,notnull,default:false" json:"pitted"`
	PitStopMs        *int64 `bun:"pit_stop_ms" json:"pitStopMs,omitempty"`
	LapsSincePitStop int    `bun:"laps_since_pit_stop,notnull" json:"lapsSincePitStop"`
}
