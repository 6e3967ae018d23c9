package assets

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/jamroom/jamroom/internal/audio"
	"github.com/rs/zerolog/log"
)

// ManifestFile is the manifest name inside the assets directory.
const ManifestFile = "manifest.yaml"

// AssetHandler serves the sample manifest and the sample files.
type AssetHandler struct {
	Dir string // Root of the sample tree
}

// Manifest serves Dir/manifest.yaml after validating it, or the built-in
// layout when the file is missing.
func (h *AssetHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	data, err := h.manifestYAML()
	if err != nil {
		log.Error().Str("module", "api.assets").Str("dir", h.Dir).Err(err).Msg("invalid sample manifest")
		http.Error(w, "invalid sample manifest", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

func (h *AssetHandler) manifestYAML() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(h.Dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return audio.DefaultManifest().Encode()
	}
	if err != nil {
		return nil, err
	}
	if _, err := audio.ParseManifest(data); err != nil {
		return nil, err
	}
	return data, nil
}

// RegisterAssetRoutes mounts the manifest and the sample tree under /audio/.
func RegisterAssetRoutes(router *mux.Router, handler *AssetHandler) {
	router.HandleFunc("/audio/"+ManifestFile, handler.Manifest).Methods(http.MethodGet)
	files := http.StripPrefix("/audio/", http.FileServer(http.Dir(handler.Dir)))
	router.PathPrefix("/audio/").Handler(files).Methods(http.MethodGet, http.MethodHead)
}
