package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/penwyp/go-mine-replay/internal/core/numeral"
)

// DefaultMcPlayHDURL is the public McPlayHD API.
const DefaultMcPlayHDURL = "https://mcplayhd.net"

// McPlayHDProvider reads games from the McPlayHD API. Requests are
// authenticated with a bearer key and game ids are base-36.
type McPlayHDProvider struct {
	baseURL    string
	httpClient *http.Client
	keys       KeySource
}

// NewMcPlayHDProvider creates a provider against baseURL, or the public API
// when baseURL is empty.
func NewMcPlayHDProvider(baseURL string, timeout time.Duration, keys KeySource) *McPlayHDProvider {
	if baseURL == "" {
		baseURL = DefaultMcPlayHDURL
	}
	return &McPlayHDProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		keys:       keys,
	}
}

func (p *McPlayHDProvider) ID() string   { return "mcplayhd" }
func (p *McPlayHDProvider) Name() string { return "McPlayHD" }

type mcplayhdResponse struct {
	Status int `json:"status"`
	Data   struct {
		GameInfo struct {
			ID                int    `json:"id"`
			UUID              string `json:"uuid"`
			Won               bool   `json:"won"`
			FlagsCorrect      uint32 `json:"flagsCorrect"`
			FlagsIncorrect    uint32 `json:"flagsIncorrect"`
			TimeStart         uint64 `json:"timeStart"`
			TimeEnd           uint64 `json:"timeEnd"`
			TimeTaken         uint64 `json:"timeTaken"`
			Mines             uint32 `json:"mines"`
			SizeX             uint32 `json:"sizeX"`
			SizeZ             uint32 `json:"sizeZ"`
			AlgebraicNotation string `json:"algebraicNotation"`
		} `json:"gameInfo"`
		Players []struct {
			UUID  string `json:"uuid"`
			Name  string `json:"name"`
			Group string `json:"group"`
		} `json:"players"`
	} `json:"data"`
}

// FetchGame decodes gameID from base-36 and returns the game record.
func (p *McPlayHDProvider) FetchGame(ctx context.Context, gameID string) (*GameData, error) {
	key, err := p.apiKey()
	if err != nil {
		return nil, err
	}

	id, err := numeral.DecodeBase36(strings.ToLower(gameID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid game id %q: %v", ErrGameDataNotFound, gameID, err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/minesweeper/game/%d", p.baseURL, id)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+key)

	var resp mcplayhdResponse
	if err := getJSON(ctx, p.httpClient, endpoint, header, &resp); err != nil {
		return nil, err
	}

	info := resp.Data.GameInfo
	correct, incorrect := info.FlagsCorrect, info.FlagsIncorrect
	var notation *string
	if info.AlgebraicNotation != "" {
		notation = &info.AlgebraicNotation
	}
	return &GameData{
		GameData:       notation,
		Time:           info.TimeTaken,
		UUID:           info.UUID,
		CorrectFlags:   &correct,
		IncorrectFlags: &incorrect,
		Won:            info.Won,
	}, nil
}

func (p *McPlayHDProvider) apiKey() (string, error) {
	if p.keys == nil {
		return "", ErrAPIKeyNotFound
	}
	key, err := p.keys.APIKey(p.ID())
	if errors.Is(err, ErrAPIKeyNotFound) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("read %s API key: %w", p.ID(), err)
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrAPIKeyNotFound
	}
	return key, nil
}
