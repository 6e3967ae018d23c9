package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnknownInstrument is returned for an instrument name not in the session.
var ErrUnknownInstrument = errors.New("audio: unknown instrument")

// wallClockPeriod bounds the transport origin so float64 seconds keep
// sub-sample precision.
const wallClockPeriod = 3600.0

// WallClockOrigin maps t onto the transport timeline so that clients
// started at different moments share grid phase, up to the accuracy of
// their system clocks.
func WallClockOrigin(t time.Time) float64 {
	secs := float64(t.UnixNano()) / float64(time.Second)
	return math.Mod(secs, wallClockPeriod)
}

// Session owns the mixer, instruments and drum kit of one client.
type Session struct {
	Mixer *Mixer
	Drums *Drums

	manifest    *Manifest
	instruments map[string]*Instrument
}

// NewSession builds the voices described by manifest on a new mixer.
func NewSession(manifest *Manifest, sampleRate int, origin float64) *Session {
	mixer := NewMixer(sampleRate, origin)
	s := &Session{
		Mixer:       mixer,
		manifest:    manifest,
		instruments: make(map[string]*Instrument, len(manifest.Instruments)),
	}
	for name, spec := range manifest.Instruments {
		s.instruments[name] = NewInstrument(name, mixer, manifest.Quantum, spec.MaxGain, spec.Samples)
	}

	layers := make([]DrumLayer, 0, len(manifest.Drums.Layers))
	for id, l := range manifest.Drums.Layers {
		layers = append(layers, DrumLayer{ID: id, Name: l.Name, Nominal: l.Gain, Path: l.Path})
	}
	s.Drums = NewDrums(mixer, manifest.Quantum, layers)
	return s
}

// SessionReport collects the load reports of every voice, keyed by
// instrument name ("drums" for the kit).
type SessionReport map[string]LoadReport

// Status is LoadComplete only if every voice loaded fully and
// LoadFailed only if nothing loaded at all.
func (r SessionReport) Status() LoadStatus {
	complete, failed := 0, 0
	for _, rep := range r {
		switch rep.Status() {
		case LoadComplete:
			complete++
		case LoadFailed:
			failed++
		}
	}
	switch {
	case complete == len(r):
		return LoadComplete
	case failed == len(r):
		return LoadFailed
	default:
		return LoadPartial
	}
}

// Err returns nil when everything loaded, otherwise an error naming the
// failed slots.
func (r SessionReport) Err() error {
	if r.Status() == LoadComplete {
		return nil
	}
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	var errs []error
	for _, name := range names {
		if rep := r[name]; len(rep.Failed) > 0 {
			errs = append(errs, fmt.Errorf("%s: %s", name, rep.Error()))
		}
	}
	return errors.Join(errs...)
}

// Load fetches every sample of every voice concurrently and starts the
// drum loops once their samples are in.
func (s *Session) Load(ctx context.Context, fetcher Fetcher) SessionReport {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = make(SessionReport, len(s.instruments)+1)
	)
	for name, in := range s.instruments {
		wg.Add(1)
		go func(name string, in *Instrument) {
			defer wg.Done()
			rep := in.Load(ctx, fetcher)
			mu.Lock()
			report[name] = rep
			mu.Unlock()
		}(name, in)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		rep := s.Drums.Load(ctx, fetcher)
		mu.Lock()
		report["drums"] = rep
		mu.Unlock()
	}()
	wg.Wait()

	if _, err := s.Drums.Start(); err != nil {
		log.Error().Str("module", "audio.session").Err(err).Msg("failed to start drum loops")
	}
	log.Info().Str("module", "audio.session").Stringer("status", report.Status()).Msg("samples loaded")
	return report
}

// Instrument returns the named instrument.
func (s *Session) Instrument(name string) (*Instrument, error) {
	in, ok := s.instruments[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownInstrument)
	}
	return in, nil
}

// InstrumentNames lists the session's instruments in display order.
func (s *Session) InstrumentNames() []string {
	return s.manifest.SortedInstruments()
}

// Play triggers slot on the named instrument. It reports the scheduled
// start time and whether a sample was available.
func (s *Session) Play(name string, slot int) (float64, bool, error) {
	in, err := s.Instrument(name)
	if err != nil {
		return 0, false, err
	}
	at, ok := in.Trigger(slot)
	return at, ok, nil
}
