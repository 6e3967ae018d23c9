package audio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// mapFetcher serves samples from memory and counts requests.
type mapFetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	calls int
}

func (f *mapFetcher) Fetch(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: not found", path)
	}
	return data, nil
}

func TestLoadReportPartial(t *testing.T) {
	wavData := pcm16WAV(testRate, 1, []int16{1000, 1000})
	fetcher := &mapFetcher{files: map[string][]byte{
		"bass/bass-01.wav": wavData,
		"bass/bass-03.wav": wavData,
	}}
	paths := map[int]string{0: "bass/bass-01.wav", 1: "bass/bass-02.wav", 2: "bass/bass-03.wav"}

	buffers, report := loadBuffers(context.Background(), fetcher, paths, testRate, "bass")
	if report.Status() != LoadPartial {
		t.Errorf("status = %v, want partial", report.Status())
	}
	if fmt.Sprint(report.Loaded) != "[0 2]" {
		t.Errorf("loaded = %v", report.Loaded)
	}
	if _, ok := report.Failed[1]; !ok || len(report.Failed) != 1 {
		t.Errorf("failed = %v", report.Failed)
	}
	if buffers[1] != nil || buffers[0] == nil {
		t.Errorf("buffers = %v", buffers)
	}
	if fetcher.calls != 3 {
		t.Errorf("calls = %d", fetcher.calls)
	}
}

func TestLoadStatus(t *testing.T) {
	cases := []struct {
		r    LoadReport
		want LoadStatus
	}{
		{LoadReport{Loaded: []int{1}}, LoadComplete},
		{LoadReport{Failed: map[int]error{1: errors.New("x")}}, LoadFailed},
		{LoadReport{Loaded: []int{0}, Failed: map[int]error{1: errors.New("x")}}, LoadPartial},
	}
	for _, tc := range cases {
		if got := tc.r.Status(); got != tc.want {
			t.Errorf("%+v: got %v, want %v", tc.r, got, tc.want)
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/drums/drums_base.wav" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	f := HTTPFetcher{BaseURL: srv.URL + "/audio"}
	data, err := f.Fetch(context.Background(), "drums/drums_base.wav")
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("Fetch = %q, %v", data, err)
	}
	if _, err := f.Fetch(context.Background(), "missing.wav"); err == nil {
		t.Error("expected error for 404")
	}
}
