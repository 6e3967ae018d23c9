package audio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ToggleTimeConstant smooths drum layer on/off transitions.
const ToggleTimeConstant = 0.1

var (
	// ErrUnknownLayer is returned for a layer id not in the drum kit.
	ErrUnknownLayer = errors.New("audio: unknown drum layer")
	// ErrLayerNotPlaying is returned when toggling a layer that has not
	// been started, usually because its sample failed to load.
	ErrLayerNotPlaying = errors.New("audio: drum layer is not playing")
)

// DrumLayer describes one looping backing track.
type DrumLayer struct {
	ID      int
	Name    string
	Nominal float64 // gain when the layer is on
	Path    string
}

type drumLayer struct {
	DrumLayer
	buf   *Buffer
	voice *Voice
}

// Drums loops every layer continuously from Start on; toggling a layer
// only moves its gain between zero and nominal.
type Drums struct {
	mixer *Mixer
	sched Scheduler

	mu     sync.Mutex
	layers map[int]*drumLayer
}

func NewDrums(mixer *Mixer, quantum float64, layers []DrumLayer) *Drums {
	d := &Drums{
		mixer:  mixer,
		sched:  NewScheduler(mixer, quantum),
		layers: make(map[int]*drumLayer, len(layers)),
	}
	for _, l := range layers {
		d.layers[l.ID] = &drumLayer{DrumLayer: l}
	}
	return d
}

// Layers returns the kit's layers ordered by id.
func (d *Drums) Layers() []DrumLayer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DrumLayer, 0, len(d.layers))
	for _, l := range d.layers {
		out = append(out, l.DrumLayer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LayerByName finds a layer id by its name.
func (d *Drums) LayerByName(name string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, l := range d.layers {
		if l.Name == name {
			return id, true
		}
	}
	return 0, false
}

// Load fetches and decodes every layer's loop.
func (d *Drums) Load(ctx context.Context, fetcher Fetcher) LoadReport {
	d.mu.Lock()
	paths := make(map[int]string, len(d.layers))
	for id, l := range d.layers {
		paths[id] = l.Path
	}
	d.mu.Unlock()

	buffers, report := loadBuffers(ctx, fetcher, paths, d.mixer.SampleRate(), "drums")

	d.mu.Lock()
	for id, buf := range buffers {
		d.layers[id].buf = buf
	}
	d.mu.Unlock()
	return report
}

// SetBuffer installs an already decoded loop for layer id.
func (d *Drums) SetBuffer(id int, buf *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.layers[id]
	if !ok {
		return fmt.Errorf("layer %d: %w", id, ErrUnknownLayer)
	}
	l.buf = buf
	return nil
}

// Start begins looping every loaded layer at its nominal gain, all
// aligned to the same grid boundary. Layers already playing are left alone.
func (d *Drums) Start() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	at := d.sched.Next()
	for _, l := range d.layers {
		if l.buf == nil || l.voice != nil {
			continue
		}
		v, err := d.mixer.Play(l.buf, PlayOptions{
			At:   at,
			Gain: d.mixer.NewParam(l.Nominal),
			Loop: true,
		})
		if err != nil {
			return 0, fmt.Errorf("start layer %d: %w", l.ID, err)
		}
		l.voice = v
	}
	return at, nil
}

// ToggleLayer fades the layer out if its gain is currently non-zero and
// back in to nominal otherwise, starting at the next grid boundary. It
// reports whether the layer is heading on.
func (d *Drums) ToggleLayer(id int) (bool, error) {
	voice, nominal, err := d.playing(id)
	if err != nil {
		return false, err
	}

	at := d.sched.Next()
	gain := voice.Gain()
	if gain.Value() != 0 {
		gain.SetTargetAtTime(0, at, ToggleTimeConstant)
		return false, nil
	}
	gain.SetTargetAtTime(nominal, at, ToggleTimeConstant)
	return true, nil
}

// LayerGain returns the layer's current gain.
func (d *Drums) LayerGain(id int) (float64, error) {
	voice, _, err := d.playing(id)
	if err != nil {
		return 0, err
	}
	return voice.Gain().Value(), nil
}

func (d *Drums) playing(id int) (*Voice, float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.layers[id]
	if !ok {
		return nil, 0, fmt.Errorf("layer %d: %w", id, ErrUnknownLayer)
	}
	if l.voice == nil {
		return nil, 0, fmt.Errorf("layer %d: %w", id, ErrLayerNotPlaying)
	}
	return l.voice, l.Nominal, nil
}
