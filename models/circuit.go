package models

import "github.com/uptrace/bun"

// Circuit is a race venue. Ref is the token used as the course identifier in
// profiles and simulation requests.
type Circuit struct {
	bun.BaseModel `bun:"table:circuits,alias:c"`

	CircuitID int    `bun:"circuit_id,pk,autoincrement" json:"circuitID"`
	Ref       string `bun:"ref,notnull,unique" json:"ref"`
	Name      string `bun:"name,notnull" json:"name"`
	Country   string `bun:"country,notnull,default:''" json:"country"`
	Laps      int    `bun:"laps,notnull,default:0" json:"laps"`
}
