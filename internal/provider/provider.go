// Package provider fetches encoded replays from remote game servers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-mine-replay/internal/util"
)

var (
	// ErrGameDataNotFound is returned when a game has no replay attached.
	ErrGameDataNotFound = errors.New("game data not found")
	// ErrAPIKeyNotFound is returned when a provider needs a key and none is configured.
	ErrAPIKeyNotFound = errors.New("no API key was found for the provider")
	// ErrUnknownProvider is returned for an unregistered provider id.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrAPIDataParse is returned when a provider response cannot be decoded.
	ErrAPIDataParse = errors.New("unable to parse API data")
)

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 15 * time.Second

// Provider fetches game records from one remote service.
type Provider interface {
	// ID is the short identifier used in routes and flags.
	ID() string
	// Name is the human readable service name.
	Name() string
	// FetchGame returns the record for gameID.
	FetchGame(ctx context.Context, gameID string) (*GameData, error)
}

// GameData is a provider's record of one finished game. Only GameData is
// needed for rendering; the rest is passed through to callers.
type GameData struct {
	GameData       *string `json:"gameData"`
	Type           *string `json:"type,omitempty"`
	Time           uint64  `json:"time"`
	Generator      *string `json:"generator,omitempty"`
	UUID           string  `json:"uuid"`
	CorrectFlags   *uint32 `json:"correctFlags,omitempty"`
	IncorrectFlags *uint32 `json:"incorrectFlags,omitempty"`
	Won            bool    `json:"won"`
}

// Replay returns the encoded replay or ErrGameDataNotFound.
func (g *GameData) Replay() (string, error) {
	if g == nil || g.GameData == nil || *g.GameData == "" {
		return "", ErrGameDataNotFound
	}
	return *g.GameData, nil
}

// PlayTime returns Time as a duration in milliseconds.
func (g *GameData) PlayTime() time.Duration {
	return time.Duration(g.Time) * time.Millisecond
}

// PlayerData is a player's display name.
type PlayerData struct {
	Name string `json:"name"`
}

// PlayerNamer is implemented by providers that resolve player uuids.
type PlayerNamer interface {
	FetchPlayerName(ctx context.Context, uuid string) (*PlayerData, error)
}

// AsPlayerNamer finds a PlayerNamer in p or in the providers it wraps.
func AsPlayerNamer(p Provider) (PlayerNamer, bool) {
	for p != nil {
		if n, ok := p.(PlayerNamer); ok {
			return n, true
		}
		w, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return nil, false
		}
		p = w.Unwrap()
	}
	return nil, false
}

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON performs a GET and decodes the body into out. 404 responses map
// to ErrGameDataNotFound.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	util.LogDebugf("Fetching %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrGameDataNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrAPIDataParse, err)
	}
	return nil
}
