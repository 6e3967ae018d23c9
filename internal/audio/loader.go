package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Fetcher retrieves raw sample data by path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher fetches samples relative to BaseURL.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	u, err := url.JoinPath(f.BaseURL, path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// LoadStatus summarizes a LoadReport.
type LoadStatus int

const (
	LoadComplete LoadStatus = iota
	LoadPartial
	LoadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadComplete:
		return "complete"
	case LoadPartial:
		return "partial"
	default:
		return "failed"
	}
}

// LoadReport lists which slots loaded and why the others failed.
type LoadReport struct {
	Loaded []int
	Failed map[int]error
}

// Status reports whether all, some or none of the slots loaded.
func (r LoadReport) Status() LoadStatus {
	switch {
	case len(r.Failed) == 0:
		return LoadComplete
	case len(r.Loaded) > 0:
		return LoadPartial
	default:
		return LoadFailed
	}
}

func (r LoadReport) Error() string {
	slots := make([]int, 0, len(r.Failed))
	for slot := range r.Failed {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	parts := make([]string, len(slots))
	for i, slot := range slots {
		parts[i] = fmt.Sprintf("slot %d: %v", slot, r.Failed[slot])
	}
	return strings.Join(parts, "; ")
}

// loadBuffers fetches and decodes every path concurrently. Each slot
// succeeds or fails on its own.
func loadBuffers(ctx context.Context, fetcher Fetcher, paths map[int]string, sampleRate int, owner string) (map[int]*Buffer, LoadReport) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		buffers = make(map[int]*Buffer, len(paths))
		report  = LoadReport{Failed: make(map[int]error)}
	)
	for slot, p := range paths {
		wg.Add(1)
		go func(slot int, p string) {
			defer wg.Done()
			buf, err := fetchAndDecode(ctx, fetcher, p, sampleRate)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Str("module", "audio.loader").Str("instrument", owner).Int("slot", slot).Str("path", p).Err(err).Msg("sample unavailable")
				report.Failed[slot] = err
				return
			}
			buffers[slot] = buf
			report.Loaded = append(report.Loaded, slot)
		}(slot, p)
	}
	wg.Wait()
	sort.Ints(report.Loaded)
	return buffers, report
}

func fetchAndDecode(ctx context.Context, fetcher Fetcher, p string, sampleRate int) (*Buffer, error) {
	data, err := fetcher.Fetch(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return Decode(p, data, sampleRate)
}
