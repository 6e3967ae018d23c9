package audio

import (
	"context"
	"testing"
	"time"
)

func TestDriveReleasesVoicesWithoutOutput(t *testing.T) {
	m := NewMixer(testRate, 0)
	in := NewInstrument("bass", m, NoteQuantum, DefaultMaxGain, nil)
	in.SetBuffer(3, constBuffer(10, 1, 1))
	for i := 0; i < 1000; i++ {
		if _, ok := in.Trigger(3); !ok {
			t.Fatal("trigger failed")
		}
	}
	if n := m.ActiveVoices(); n != 1000 {
		t.Fatalf("ActiveVoices = %d before driving", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Drive(ctx, 5*time.Millisecond)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(3 * time.Second)
	for m.ActiveVoices() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ActiveVoices = %d, transport = %v", m.ActiveVoices(), m.CurrentTime())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if m.CurrentTime() <= 0.25 {
		t.Errorf("transport did not advance: %v", m.CurrentTime())
	}
}
