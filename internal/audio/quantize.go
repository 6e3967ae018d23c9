package audio

import "math"

const (
	// NoteQuantum is the grid used for melodic triggers and drum toggles.
	NoteQuantum = 0.25
	// TriggerInterval is the minimum spacing between repeated triggers
	// while a pad is held down.
	TriggerInterval = 0.125
)

// Clock reports the audio transport time in seconds.
type Clock interface {
	CurrentTime() float64
}

// NextGridTime rounds now up to the next multiple of quantum. The result
// is always strictly after now and at most one quantum ahead, so the
// engine has lookahead to schedule without underrun.
func NextGridTime(now, quantum float64) float64 {
	if quantum <= 0 {
		panic("audio: grid quantum must be positive")
	}
	t := (math.Floor(now/quantum) + 1) * quantum
	if t <= now {
		// now/quantum landed just below an integer.
		t += quantum
	}
	return t
}

// Scheduler computes grid-aligned start times from a Clock.
type Scheduler struct {
	clock   Clock
	quantum float64
}

func NewScheduler(clock Clock, quantum float64) Scheduler {
	if quantum <= 0 {
		panic("audio: grid quantum must be positive")
	}
	return Scheduler{clock: clock, quantum: quantum}
}

// Next returns the next grid boundary after the clock's current time.
func (s Scheduler) Next() float64 {
	return NextGridTime(s.clock.CurrentTime(), s.quantum)
}

// Quantum returns the grid spacing in seconds.
func (s Scheduler) Quantum() float64 { return s.quantum }
