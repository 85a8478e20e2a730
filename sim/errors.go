package sim

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput is returned before any lap runs when the race cannot start.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingSampler is returned by NewEntrant when a required sampler is absent.
	ErrMissingSampler = errors.New("missing sampler")

	// ErrSamplerContract is wrapped by SamplerError.
	ErrSamplerContract = errors.New("sampler contract violation")
)

// SamplerError reports a sampler that returned an unusable value. The lap it
// occurred on is not applied.
type SamplerError struct {
	Entrant Identity
	Lap     int
	Sampler string
	Value   time.Duration
}

func (e *SamplerError) Error() string {
	return fmt.Sprintf("%s sampler for %s returned %s on lap %d", e.Sampler, e.Entrant, e.Value, e.Lap)
}

func (e *SamplerError) Unwrap() error { return ErrSamplerContract }

func missingSampler(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingSampler, name)
}
