package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// SimulationRun is one completed race simulation. Standings holds the final
// order as JSON; Sources maps "driver/constructor" to the model each entrant
// was simulated with.
type SimulationRun struct {
	bun.BaseModel `bun:"table:simulation_runs,alias:sr"`

	ID        string            `bun:"id,pk" json:"id"`
	Course    string            `bun:"course,notnull" json:"course"`
	Year      int               `bun:"year,notnull" json:"year"`
	Laps      int               `bun:"laps,notnull" json:"laps"`
	Seed      int64             `bun:"seed,notnull" json:"seed"`
	Entrants  int               `bun:"entrants,notnull" json:"entrants"`
	Standings json.RawMessage   `bun:"standings,notnull,type:jsonb" json:"standings"`
	Sources   map[string]string `bun:"sources,type:jsonb" json:"sources,omitempty"`
	CreatedAt time.Time         `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
