package assets

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jamroom/jamroom/internal/audio"
)

func serve(t *testing.T, dir, path string) *http.Response {
	t.Helper()
	router := mux.NewRouter()
	RegisterAssetRoutes(router, &AssetHandler{Dir: dir})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Result()
}

func TestDefaultManifestServed(t *testing.T) {
	resp := serve(t, t.TempDir(), "/audio/manifest.yaml")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	m, err := audio.ParseManifest(body)
	if err != nil {
		t.Fatalf("served manifest does not parse: %v", err)
	}
	if len(m.Instruments) != len(audio.InstrumentNames) {
		t.Errorf("instruments = %d", len(m.Instruments))
	}
}

func TestInvalidManifestIsServerError(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ManifestFile), []byte("quantum: -1\n"), 0o644)
	if resp := serve(t, dir, "/audio/manifest.yaml"); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestSampleFilesServed(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "drums"), 0o755)
	os.WriteFile(filepath.Join(dir, "drums", "drums_base.wav"), []byte("RIFF"), 0o644)

	resp := serve(t, dir, "/audio/drums/drums_base.wav")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "RIFF" {
		t.Errorf("status=%d body=%q", resp.StatusCode, body)
	}
	if resp := serve(t, dir, "/audio/drums/missing.wav"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d", resp.StatusCode)
	}
}
