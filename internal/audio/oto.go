package audio

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoOutput plays a Mixer on the default sound device.
type OtoOutput struct {
	player *oto.Player
}

// OpenOtoOutput starts pulling frames from mixer. It blocks until the
// device is ready.
func OpenOtoOutput(mixer *Mixer, bufferSize time.Duration) (*OtoOutput, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   mixer.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(mixer)
	player.Play()
	return &OtoOutput{player: player}, nil
}

// Close stops playback.
func (o *OtoOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("error closing player: %w", err)
	}
	return nil
}
