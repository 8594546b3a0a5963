package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGreevURL is the public Greev API.
const DefaultGreevURL = "https://api.greev.eu"

// GreevProvider reads games from the Greev stats API. No key is needed.
type GreevProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewGreevProvider creates a provider against baseURL, or the public API
// when baseURL is empty.
func NewGreevProvider(baseURL string, timeout time.Duration) *GreevProvider {
	if baseURL == "" {
		baseURL = DefaultGreevURL
	}
	return &GreevProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

func (p *GreevProvider) ID() string   { return "greev" }
func (p *GreevProvider) Name() string { return "Greev" }

// FetchGame returns the stats record of gameID.
func (p *GreevProvider) FetchGame(ctx context.Context, gameID string) (*GameData, error) {
	endpoint := fmt.Sprintf("%s/v2/stats/minesweeper/game/%s", p.baseURL, url.PathEscape(gameID))
	var data GameData
	if err := getJSON(ctx, p.httpClient, endpoint, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FetchPlayerName resolves a player uuid to a display name.
func (p *GreevProvider) FetchPlayerName(ctx context.Context, uuid string) (*PlayerData, error) {
	endpoint := fmt.Sprintf("%s/v2/player/name/%s", p.baseURL, url.PathEscape(uuid))
	var player PlayerData
	if err := getJSON(ctx, p.httpClient, endpoint, nil, &player); err != nil {
		return nil, err
	}
	return &player, nil
}
