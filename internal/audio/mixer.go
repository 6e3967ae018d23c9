package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
)

// DefaultSampleRate is the engine rate; decoded samples at other rates
// are resampled on load.
const DefaultSampleRate = 44100

// ErrPastStart is returned when a source is scheduled before the current
// transport time.
var ErrPastStart = errors.New("audio: start time is in the past")

// Buffer is decoded stereo PCM. It is never modified after decoding.
type Buffer struct {
	SampleRate  int
	Left, Right []float32
}

// Frames returns the buffer length in sample frames.
func (b *Buffer) Frames() int { return len(b.Left) }

// Voice is one scheduled playback of a Buffer.
type Voice struct {
	buf        *Buffer
	startFrame int64
	stopFrame  int64 // -1 plays to the end (or forever when looping)
	loop       bool
	gain       *Param
	pan        float64
	done       bool
}

// Gain returns the voice's gain parameter.
func (v *Voice) Gain() *Param { return v.gain }

// PlayOptions describe a new voice.
type PlayOptions struct {
	At   float64 // Start time in transport seconds
	Gain *Param  // Gain automation; nil means unity gain
	Pan  float64 // -1 (left) to 1 (right)
	Loop bool
	// StopAt ends the voice at this transport time. Zero plays the whole
	// buffer, or forever when looping.
	StopAt float64
}

// Mixer is a software audio engine: it mixes every scheduled voice into
// interleaved stereo float32 frames. The transport time advances only as
// frames are rendered.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	origin     float64 // transport time of frame zero
	frame      int64   // frames rendered so far
	voices     []*Voice
	scratch    []float32
}

// NewMixer returns a mixer whose transport starts at origin seconds.
func NewMixer(sampleRate int, origin float64) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Mixer{sampleRate: sampleRate, origin: origin}
}

// SampleRate returns the output rate in Hz.
func (m *Mixer) SampleRate() int { return m.sampleRate }

// CurrentTime returns the transport time of the next frame to be rendered.
func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTimeLocked()
}

func (m *Mixer) currentTimeLocked() float64 {
	return m.origin + float64(m.frame)/float64(m.sampleRate)
}

func (m *Mixer) frameAt(t float64) int64 {
	return int64(math.Ceil((t - m.origin) * float64(m.sampleRate)))
}

// NewParam returns a parameter bound to this mixer's clock.
func (m *Mixer) NewParam(initial float64) *Param {
	return &Param{mixer: m, value: initial}
}

// Play schedules buf. Scheduling before CurrentTime fails with ErrPastStart.
func (m *Mixer) Play(buf *Buffer, opts PlayOptions) (*Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.At < m.currentTimeLocked() {
		return nil, ErrPastStart
	}
	gain := opts.Gain
	if gain == nil {
		gain = &Param{mixer: m, value: 1}
	}
	v := &Voice{
		buf:        buf,
		startFrame: m.frameAt(opts.At),
		stopFrame:  -1,
		loop:       opts.Loop,
		gain:       gain,
		pan:        clamp(opts.Pan, -1, 1),
	}
	if opts.StopAt > opts.At {
		v.stopFrame = m.frameAt(opts.StopAt)
	}
	m.voices = append(m.voices, v)
	return v, nil
}

// ActiveVoices returns the number of voices not yet finished.
func (m *Mixer) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Render mixes len(out)/2 frames into out (interleaved left, right) and
// advances the transport.
func (m *Mixer) Render(out []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(out) / 2
	for i := range out[:frames*2] {
		out[i] = 0
	}

	rate := float64(m.sampleRate)
	for _, v := range m.voices {
		n := int64(v.buf.Frames())
		if n == 0 {
			v.done = true
			continue
		}
		left, right := panGains(v.pan)
		for f := 0; f < frames; f++ {
			global := m.frame + int64(f)
			if global < v.startFrame {
				continue
			}
			if v.stopFrame >= 0 && global >= v.stopFrame {
				v.done = true
				break
			}
			idx := global - v.startFrame
			if idx >= n {
				if !v.loop {
					v.done = true
					break
				}
				idx %= n
			}
			g := float32(v.gain.valueAt(m.origin + float64(global)/rate))
			l, r := v.buf.Left[idx]*g, v.buf.Right[idx]*g
			out[2*f] += l*left.ll + r*left.rl
			out[2*f+1] += r*right.rr + l*right.lr
		}
	}

	m.frame += int64(frames)
	now := m.currentTimeLocked()
	live := m.voices[:0]
	for _, v := range m.voices {
		if v.done {
			continue
		}
		v.gain.compact(now)
		live = append(live, v)
	}
	for i := len(live); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = live
}

// Read implements io.Reader, producing little-endian float32 stereo
// frames. len(p) is rounded down to whole frames. Read must be called
// from a single goroutine, normally the output backend's.
func (m *Mixer) Read(p []byte) (int, error) {
	samples := (len(p) / 8) * 2
	if cap(m.scratch) < samples {
		m.scratch = make([]float32, samples)
	}
	buf := m.scratch[:samples]
	m.Render(buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(s))
	}
	return samples * 4, nil
}

// panMatrix holds the contribution of the input left (l) and right (r)
// channels to one output channel.
type panMatrix struct{ ll, rl, rr, lr float32 }

// panGains implements the Web Audio equal-power panner for stereo input.
func panGains(pan float64) (left, right panMatrix) {
	if pan <= 0 {
		x := (pan + 1) * math.Pi / 2
		left = panMatrix{ll: 1, rl: float32(math.Cos(x))}
		right = panMatrix{rr: float32(math.Sin(x))}
		return left, right
	}
	x := pan * math.Pi / 2
	left = panMatrix{ll: float32(math.Cos(x))}
	right = panMatrix{rr: 1, lr: float32(math.Sin(x))}
	return left, right
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
