package sim

import (
	"fmt"
	"time"
)

// Identity names an entrant. The engine compares identities but never
// interprets them.
type Identity struct {
	Driver      string `json:"driver"`
	Constructor string `json:"constructor"`
	Course      string `json:"course"`
	Year        int    `json:"year"`
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s@%s:%d", id.Driver, id.Constructor, id.Course, id.Year)
}

// OvertakeOutcome records what happened when an entrant caught the car ahead.
type OvertakeOutcome string

const (
	OvertakeNone    OvertakeOutcome = ""
	OvertakeSuccess OvertakeOutcome = "success"
	OvertakeStuck   OvertakeOutcome = "stuck"
)

// LapDiagnostics holds what happened to an entrant on its most recent lap.
type LapDiagnostics struct {
	Lap             int             `json:"lap"`
	LapTime         time.Duration   `json:"lapTime"`
	Overtake        OvertakeOutcome `json:"overtake,omitempty"`
	Pitted          bool            `json:"pitted"`
	PitStopDuration time.Duration   `json:"pitStopDuration,omitempty"`
}

// Entrant is the mutable race state of one driver/constructor pairing.
type Entrant struct {
	Identity

	CurrentTime      time.Duration
	LapsSincePitStop int
	Last             LapDiagnostics

	procs Processes
}

// NewEntrant binds the samplers to a new entrant starting at the given elapsed time.
func NewEntrant(id Identity, start time.Duration, procs Processes) (*Entrant, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: negative start time %s for %s", ErrInvalidInput, start, id)
	}
	if err := procs.validate(); err != nil {
		return nil, fmt.Errorf("entrant %s: %w", id, err)
	}
	return &Entrant{Identity: id, CurrentTime: start, procs: procs}, nil
}
