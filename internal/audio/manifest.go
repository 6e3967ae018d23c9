package audio

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Manifest maps every instrument slot and drum layer to a sample path
// relative to the asset root. It is served by the relay server and read
// once per session.
type Manifest struct {
	Quantum     float64                   `yaml:"quantum"`
	Instruments map[string]InstrumentSpec `yaml:"instruments"`
	Drums       DrumsSpec                 `yaml:"drums"`
}

type InstrumentSpec struct {
	MaxGain float64        `yaml:"max_gain"`
	Samples map[int]string `yaml:"samples"`
}

type DrumsSpec struct {
	Layers map[int]LayerSpec `yaml:"layers"`
}

type LayerSpec struct {
	Name string  `yaml:"name"`
	Gain float64 `yaml:"gain"`
	Path string  `yaml:"path"`
}

// InstrumentNames lists the melodic instruments in pad-grid order.
var InstrumentNames = []string{"pluck", "bass", "lead", "piano", "chord"}

// SlotsPerInstrument is the number of pitches each melodic instrument has.
const SlotsPerInstrument = 11

// DefaultManifest returns the stock sample layout.
func DefaultManifest() *Manifest {
	m := &Manifest{
		Quantum:     NoteQuantum,
		Instruments: make(map[string]InstrumentSpec, len(InstrumentNames)),
		Drums: DrumsSpec{Layers: map[int]LayerSpec{
			1: {Name: "base", Gain: 0.2, Path: "drums/drums_base.wav"},
			2: {Name: "congas", Gain: 0.1, Path: "drums/drums_congas.wav"},
			3: {Name: "hats", Gain: 0.1, Path: "drums/drums_hats.wav"},
			4: {Name: "shakers", Gain: 0.1, Path: "drums/drums_shakers.wav"},
		}},
	}
	for _, name := range InstrumentNames {
		samples := make(map[int]string, SlotsPerInstrument)
		for slot := 0; slot < SlotsPerInstrument; slot++ {
			samples[slot] = fmt.Sprintf("%s/%s-%02d.mp3", name, name, slot+1)
		}
		m.Instruments[name] = InstrumentSpec{MaxGain: DefaultMaxGain, Samples: samples}
	}
	return m
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Quantum == 0 {
		m.Quantum = NoteQuantum
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode renders the manifest as YAML.
func (m *Manifest) Encode() ([]byte, error) {
	return yaml.Marshal(m)
}

// Validate checks gains, quantum and paths.
func (m *Manifest) Validate() error {
	if m.Quantum <= 0 {
		return fmt.Errorf("manifest: quantum must be positive, got %v", m.Quantum)
	}
	if len(m.Instruments) == 0 {
		return errors.New("manifest: no instruments")
	}
	for name, spec := range m.Instruments {
		if spec.MaxGain < 0 || spec.MaxGain > 1 {
			return fmt.Errorf("manifest: instrument %s: max_gain %v out of range", name, spec.MaxGain)
		}
		for slot, p := range spec.Samples {
			if p == "" {
				return fmt.Errorf("manifest: instrument %s slot %d: empty path", name, slot)
			}
		}
	}
	for id, l := range m.Drums.Layers {
		if l.Path == "" || l.Gain < 0 || l.Gain > 1 {
			return fmt.Errorf("manifest: drum layer %d: invalid path or gain", id)
		}
	}
	return nil
}

// SortedInstruments returns instrument names in a stable order: the stock
// names first, then any others alphabetically.
func (m *Manifest) SortedInstruments() []string {
	var names []string
	seen := make(map[string]bool)
	for _, n := range InstrumentNames {
		if _, ok := m.Instruments[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var extra []string
	for n := range m.Instruments {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}
