package jamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jamroom/jamroom/internal/audio"
	"github.com/jamroom/jamroom/internal/models"
)

// APIError is a rejected room request.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// API calls the server's HTTP endpoints.
type API struct {
	BaseURL string
	Client  *http.Client
}

func (a API) client() *http.Client {
	if a.Client == nil {
		return http.DefaultClient
	}
	return a.Client
}

// CreateRoom creates a room owned by owner.
func (a API) CreateRoom(ctx context.Context, name, owner string) error {
	return a.post(ctx, "/api/create_jam_room", map[string]string{"jam_room_name": name, "owner_username": owner})
}

// JoinRoom adds joiner to the room's members.
func (a API) JoinRoom(ctx context.Context, name, joiner string) error {
	return a.post(ctx, "/api/join_jam_room", map[string]string{"jam_room_name": name, "joiner_username": joiner})
}

// ChatHistory fetches the room's full chat history in arrival order.
func (a API) ChatHistory(ctx context.Context, room string) ([]models.ChatEntry, error) {
	var out struct {
		ChatHistory []models.ChatEntry `json:"chatHistory"`
	}
	if err := a.get(ctx, "/api/get_chat_history/"+url.PathEscape(room), func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&out)
	}); err != nil {
		return nil, err
	}
	return out.ChatHistory, nil
}

// Manifest fetches the sample manifest.
func (a API) Manifest(ctx context.Context) (*audio.Manifest, error) {
	var m *audio.Manifest
	err := a.get(ctx, "/audio/manifest.yaml", func(r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		m, err = audio.ParseManifest(data)
		return err
	})
	return m, err
}

// Samples returns a fetcher for the sample tree.
func (a API) Samples() audio.Fetcher {
	return audio.HTTPFetcher{BaseURL: a.BaseURL + "/audio", Client: a.Client}
}

func (a API) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResponse(resp)
}

func (a API) get(ctx context.Context, path string, decode func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}
	return decode(resp.Body)
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	var body struct {
		Kind    string `json:"kind"`
		Message string `json:"errorMessage"`
	}
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &body) != nil || body.Message == "" {
		body.Message = string(bytes.TrimSpace(data))
	}
	return &APIError{Status: resp.StatusCode, Kind: body.Kind, Message: body.Message}
}
