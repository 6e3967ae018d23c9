package audio

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Envelope timing of a one-shot trigger, in seconds.
const (
	AttackTimeConstant  = 0.01
	ReleaseDelay        = 2.0
	ReleaseTimeConstant = 0.1

	// releaseTail is how long after the release starts a voice is kept
	// alive; eight time constants take the gain below -69 dB.
	releaseTail = 8 * ReleaseTimeConstant
)

// DefaultMaxGain is the peak amplitude of a melodic instrument at full gain.
const DefaultMaxGain = 0.2

// Instrument is one melodic voice: a set of samples addressed by slot,
// plus the local gain and pan applied to the next trigger. Gain and pan
// are never sent over the network, so remote triggers use the
// receiver's own settings.
type Instrument struct {
	name    string
	mixer   *Mixer
	sched   Scheduler
	maxGain float64
	samples map[int]string

	mu      sync.Mutex
	buffers map[int]*Buffer
	slot    int
	gain    float64
	pan     float64
}

// NewInstrument creates an instrument playing through mixer. samples
// maps slot to sample path.
func NewInstrument(name string, mixer *Mixer, quantum, maxGain float64, samples map[int]string) *Instrument {
	return &Instrument{
		name:    name,
		mixer:   mixer,
		sched:   NewScheduler(mixer, quantum),
		maxGain: maxGain,
		samples: samples,
		buffers: make(map[int]*Buffer),
		slot:    1,
		gain:    1,
	}
}

// Name returns the instrument name used on the wire.
func (in *Instrument) Name() string { return in.name }

// Load fetches and decodes every sample of the instrument. Slots that
// fail stay silent; the report names them.
func (in *Instrument) Load(ctx context.Context, fetcher Fetcher) LoadReport {
	buffers, report := loadBuffers(ctx, fetcher, in.samples, in.mixer.SampleRate(), in.name)
	in.mu.Lock()
	in.buffers = buffers
	in.mu.Unlock()
	return report
}

// SetBuffer installs an already decoded buffer for slot.
func (in *Instrument) SetBuffer(slot int, buf *Buffer) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.buffers[slot] = buf
}

// SetSlot selects the slot played by the next Play.
func (in *Instrument) SetSlot(slot int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.slot = slot
}

// SetGain sets the gain (0 to 1) of subsequent triggers.
func (in *Instrument) SetGain(v float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.gain = clamp(v, 0, 1)
}

// SetPan sets the pan (-1 to 1) of subsequent triggers.
func (in *Instrument) SetPan(v float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.pan = clamp(v, -1, 1)
}

func (in *Instrument) Gain() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.gain
}

func (in *Instrument) Pan() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pan
}

func (in *Instrument) Slot() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.slot
}

// Trigger selects slot and plays it. See Play.
func (in *Instrument) Trigger(slot int) (float64, bool) {
	in.SetSlot(slot)
	return in.Play()
}

// Play schedules the selected slot at the next grid boundary with an
// attack to the current gain and a release two seconds later. It returns
// the start time, or false when the slot has no decoded sample.
func (in *Instrument) Play() (float64, bool) {
	in.mu.Lock()
	buf := in.buffers[in.slot]
	slot, level, pan := in.slot, in.maxGain*in.gain, in.pan
	in.mu.Unlock()

	if buf == nil {
		log.Debug().Str("module", "audio.instrument").Str("instrument", in.name).Int("slot", slot).Msg("slot has no sample")
		return 0, false
	}

	at := in.sched.Next()
	gain := in.mixer.NewParam(0)
	gain.SetTargetAtTime(level, at, AttackTimeConstant)
	gain.SetTargetAtTime(0, at+ReleaseDelay, ReleaseTimeConstant)

	_, err := in.mixer.Play(buf, PlayOptions{
		At:     at,
		Gain:   gain,
		Pan:    pan,
		StopAt: at + ReleaseDelay + releaseTail,
	})
	if err != nil {
		log.Error().Str("module", "audio.instrument").Str("instrument", in.name).Float64("at", at).Err(err).Msg("failed to schedule trigger")
		return 0, false
	}
	return at, true
}
