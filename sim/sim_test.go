package sim

import (
	"time"
)

// stub returns processes with a fixed lap time, no overtakes and no pit stops.
func stub(lapTime time.Duration) Processes {
	return Processes{
		LapTime:         func(int, int) time.Duration { return lapTime },
		Overtake:        func(OvertakeContext) bool { return false },
		PitStop:         func(PitStopContext) bool { return false },
		PitStopDuration: func(int) time.Duration { return 0 },
	}
}

func seq(times ...time.Duration) LapTimeFunc {
	i := 0
	return func(int, int) time.Duration {
		t := times[i%len(times)]
		i++
		return t
	}
}

func ident(driver string) Identity {
	return Identity{Driver: driver, Constructor: "team", Course: "monza", Year: 2021}
}

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

func mustEntrant(driver string, start time.Duration, p Processes) *Entrant {
	e, err := NewEntrant(ident(driver), start, p)
	if err != nil {
		panic(err)
	}
	return e
}

func drivers(entrants []*Entrant) []string {
	out := make([]string, len(entrants))
	for i, e := range entrants {
		out[i] = e.Driver
	}
	return out
}
