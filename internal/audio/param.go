package audio

import (
	"math"
	"sort"
)

// settleThreshold is the distance below which an exponential approach is
// treated as having reached its target.
const settleThreshold = 1e-4

type targetEvent struct {
	start  float64
	target float64
	tc     float64
}

// Param is an automatable value such as a gain, evaluated against the
// owning Mixer's clock. All methods are safe for concurrent use.
type Param struct {
	mixer  *Mixer
	value  float64       // value entering the first event
	events []targetEvent // sorted by start
}

// SetTargetAtTime starts an exponential approach to target at time start
// with the given time constant, continuing from whatever value earlier
// automation produced at that time.
func (p *Param) SetTargetAtTime(target, start, timeConstant float64) {
	p.mixer.mu.Lock()
	defer p.mixer.mu.Unlock()
	e := targetEvent{start: start, target: target, tc: timeConstant}
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].start > start })
	p.events = append(p.events, targetEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// Value returns the parameter value at the mixer's current time.
func (p *Param) Value() float64 {
	p.mixer.mu.Lock()
	defer p.mixer.mu.Unlock()
	return p.valueAt(p.mixer.currentTimeLocked())
}

// ValueAt returns the parameter value at time t.
func (p *Param) ValueAt(t float64) float64 {
	p.mixer.mu.Lock()
	defer p.mixer.mu.Unlock()
	return p.valueAt(t)
}

func (p *Param) valueAt(t float64) float64 {
	v := p.value
	for i, e := range p.events {
		if e.start > t {
			break
		}
		end := t
		if i+1 < len(p.events) && p.events[i+1].start <= t {
			end = p.events[i+1].start
		}
		v = approach(v, e, end)
	}
	return v
}

// compact folds events that are fully in the past into value. Called by
// the mixer with its lock held.
func (p *Param) compact(now float64) {
	for len(p.events) >= 2 && p.events[1].start <= now {
		p.value = approach(p.value, p.events[0], p.events[1].start)
		p.events = p.events[1:]
	}
}

func approach(from float64, e targetEvent, t float64) float64 {
	if e.tc <= 0 {
		return e.target
	}
	v := e.target + (from-e.target)*math.Exp(-(t-e.start)/e.tc)
	if math.Abs(v-e.target) < settleThreshold {
		return e.target
	}
	return v
}
