package audio

import (
	"context"
	"time"
)

// Drive renders the mixer in real time into a scratch buffer until ctx is
// done. It stands in for an output device so that the transport advances
// and finished voices are released when nothing is pulling frames.
func (m *Mixer) Drive(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var (
		start    = time.Now()
		rendered int64
		buf      []float32
	)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due := int64(now.Sub(start).Seconds() * float64(m.sampleRate))
			n := int(due - rendered)
			if n <= 0 {
				continue
			}
			if cap(buf) < 2*n {
				buf = make([]float32, 2*n)
			}
			m.Render(buf[:2*n])
			rendered = due
		}
	}
}
