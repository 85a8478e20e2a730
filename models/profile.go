package models

import "github.com/uptrace/bun"

// Profile holds fitted sampler parameters for one driver/constructor at a course
// and season. Durations are stored in milliseconds.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID           int     `bun:"id,pk,autoincrement" json:"id"`
	Driver       string  `bun:"driver,notnull,unique:profiles_no_dupes" json:"driver"`
	Constructor  string  `bun:"constructor,notnull,unique:profiles_no_dupes" json:"constructor"`
	Course       string  `bun:"course,notnull,unique:profiles_no_dupes" json:"course"`
	Year         int     `bun:"year,notnull,unique:profiles_no_dupes" json:"year"`
	Observations int     `bun:"observations,notnull,default:0" json:"observations"`
	LapMeanMs    float64 `bun:"lap_mean_ms,notnull" json:"lapMeanMs"`
	LapStdMs     float64 `bun:"lap_std_ms,notnull,default:0" json:"lapStdMs"`
	DegradeMs    float64 `bun:"degrade_ms,notnull,default:0" json:"degradeMs"`
	OvertakeProb float64 `bun:"overtake_prob,notnull,default:0" json:"overtakeProb"`
	PitBaseRate  float64 `bun:"pit_base_rate,notnull,default:0" json:"pitBaseRate"`
	PitWearRate  float64 `bun:"pit_wear_rate,notnull,default:0" json:"pitWearRate"`
	PitMeanMs    float64 `bun:"pit_mean_ms,notnull,default:0" json:"pitMeanMs"`
	PitStdMs     float64 `bun:"pit_std_ms,notnull,default:0" json:"pitStdMs"`
}
