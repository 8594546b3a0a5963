package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/penwyp/go-mine-replay/internal/data/store"
)

const greevGame = `{
	"gameData": "1=3x3+00+227+",
	"type": "CLASSIC",
	"time": 12345,
	"generator": "SAFE",
	"uuid": "0b4f6a7e",
	"correctFlags": 1,
	"incorrectFlags": 0,
	"won": true
}`

func TestGreevFetchGame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stats/minesweeper/game/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(greevGame))
	}))
	defer server.Close()

	p := NewGreevProvider(server.URL+"/", time.Second)
	assert.Equal(t, "greev", p.ID())
	assert.Equal(t, "Greev", p.Name())

	data, err := p.FetchGame(context.Background(), "42")
	require.NoError(t, err)

	replay, err := data.Replay()
	require.NoError(t, err)
	assert.Equal(t, "1=3x3+00+227+", replay)
	assert.Equal(t, "CLASSIC", *data.Type)
	assert.Equal(t, 12345*time.Millisecond, data.PlayTime())
	assert.Equal(t, uint32(1), *data.CorrectFlags)
	assert.True(t, data.Won)
}

func TestGreevFetchGameWithoutReplay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"time": 1, "uuid": "x", "won": false}`))
	}))
	defer server.Close()

	data, err := NewGreevProvider(server.URL, time.Second).FetchGame(context.Background(), "1")
	require.NoError(t, err)
	_, err = data.Replay()
	assert.True(t, errors.Is(err, ErrGameDataNotFound))
}

func TestGreevErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		matches func(error) bool
	}{
		{"not found", http.StatusNotFound, "", func(err error) bool { return errors.Is(err, ErrGameDataNotFound) }},
		{"server error", http.StatusBadGateway, "", func(err error) bool {
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadGateway
		}},
		{"bad json", http.StatusOK, "{not json", func(err error) bool { return errors.Is(err, ErrAPIDataParse) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewGreevProvider(server.URL, time.Second).FetchGame(context.Background(), "1")
			require.Error(t, err)
			assert.True(t, tc.matches(err), err.Error())
		})
	}
}

func TestGreevFetchPlayerName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/player/name/0b4f6a7e", r.URL.Path)
		w.Write([]byte(`{"name": "Steve"}`))
	}))
	defer server.Close()

	player, err := NewGreevProvider(server.URL, time.Second).FetchPlayerName(context.Background(), "0b4f6a7e")
	require.NoError(t, err)
	assert.Equal(t, "Steve", player.Name)
}

func TestMcPlayHDFetchGame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// "zz" in base 36 is 1295.
		assert.Equal(t, "/api/v1/minesweeper/game/1295", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"status": 200,
			"data": {
				"gameInfo": {
					"id": 1295, "uuid": "u-1", "won": true,
					"flagsCorrect": 10, "flagsIncorrect": 2,
					"timeStart": 1, "timeEnd": 2, "timeTaken": 5000,
					"mines": 10, "sizeX": 9, "sizeZ": 9,
					"algebraicNotation": "1=9x9+++"
				},
				"players": [{"uuid": "u-1", "name": "Alex", "group": "default"}]
			}
		}`))
	}))
	defer server.Close()

	p := NewMcPlayHDProvider(server.URL, time.Second, StaticKeys{"mcplayhd": "secret"})
	data, err := p.FetchGame(context.Background(), "ZZ")
	require.NoError(t, err)

	replay, err := data.Replay()
	require.NoError(t, err)
	assert.Equal(t, "1=9x9+++", replay)
	assert.Equal(t, uint64(5000), data.Time)
	assert.Equal(t, "u-1", data.UUID)
	assert.Equal(t, uint32(10), *data.CorrectFlags)
	assert.Equal(t, uint32(2), *data.IncorrectFlags)
	assert.Nil(t, data.Type)
	assert.True(t, data.Won)
}

func TestMcPlayHDRequiresKey(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	for _, keys := range []KeySource{nil, StaticKeys{}, StaticKeys{"mcplayhd": "  "}} {
		_, err := NewMcPlayHDProvider(server.URL, time.Second, keys).FetchGame(context.Background(), "1")
		assert.True(t, errors.Is(err, ErrAPIKeyNotFound))
	}
	assert.Zero(t, calls)
}

func TestMcPlayHDRejectsBadID(t *testing.T) {
	p := NewMcPlayHDProvider("http://127.0.0.1:1", time.Second, StaticKeys{"mcplayhd": "k"})
	_, err := p.FetchGame(context.Background(), "not-base36!")
	assert.True(t, errors.Is(err, ErrGameDataNotFound))
}

func TestKeySources(t *testing.T) {
	t.Setenv("MCPLAYHD_API_KEY", "from-env")
	key, err := EnvKeys{}.APIKey("mcplayhd")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	_, err = EnvKeys{}.APIKey("greev")
	assert.True(t, errors.Is(err, ErrAPIKeyNotFound))

	chain := ChainKeys{EnvKeys{}, StaticKeys{"greev": "static"}}
	key, err = chain.APIKey("greev")
	require.NoError(t, err)
	assert.Equal(t, "static", key)

	_, err = ChainKeys{StaticKeys{}}.APIKey("other")
	assert.True(t, errors.Is(err, ErrAPIKeyNotFound))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	k := NewKeyringStore("")

	_, err := k.APIKey("mcplayhd")
	assert.True(t, errors.Is(err, ErrAPIKeyNotFound))

	require.NoError(t, k.SetAPIKey("mcplayhd", "stored"))
	key, err := k.APIKey("mcplayhd")
	require.NoError(t, err)
	assert.Equal(t, "stored", key)

	require.NoError(t, k.DeleteAPIKey("mcplayhd"))
	require.NoError(t, k.DeleteAPIKey("mcplayhd"))
	_, err = k.APIKey("mcplayhd")
	assert.True(t, errors.Is(err, ErrAPIKeyNotFound))

	assert.Error(t, k.SetAPIKey("", "x"))
	assert.Error(t, k.SetAPIKey("mcplayhd", ""))
}

func TestRegistry(t *testing.T) {
	r := CreateRegistry(Config{})
	assert.Equal(t, []string{"greev", "mcplayhd"}, r.IDs())

	p, err := r.Get("greev")
	require.NoError(t, err)
	assert.Equal(t, "Greev", p.Name())

	_, err = r.Get("nope")
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestCachedProvider(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(greevGame))
	}))
	defer server.Close()

	db, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	registry := CreateRegistry(Config{GreevURL: server.URL, Timeout: time.Second, Cache: db})
	p, err := registry.Get("greev")
	require.NoError(t, err)
	_, ok := p.(*CachedProvider)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		data, err := p.FetchGame(context.Background(), "42")
		require.NoError(t, err)
		replay, err := data.Replay()
		require.NoError(t, err)
		assert.Equal(t, "1=3x3+00+227+", replay)
		assert.True(t, data.Won)
	}
	assert.Equal(t, 1, calls)
}

func TestCachedProviderSkipsGamesWithoutReplay(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"time": 1, "uuid": "x", "won": false}`))
	}))
	defer server.Close()

	db, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	p := NewCachedProvider(NewGreevProvider(server.URL, time.Second), db)
	for i := 0; i < 2; i++ {
		_, err := p.FetchGame(context.Background(), "1")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestAsPlayerNamer(t *testing.T) {
	greev := NewGreevProvider("", time.Second)
	n, ok := AsPlayerNamer(greev)
	require.True(t, ok)
	assert.Same(t, greev, n)

	db, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	n, ok = AsPlayerNamer(NewCachedProvider(greev, db))
	require.True(t, ok)
	assert.Same(t, greev, n)

	_, ok = AsPlayerNamer(NewMcPlayHDProvider("", time.Second, StaticKeys{}))
	assert.False(t, ok)
	_, ok = AsPlayerNamer(nil)
	assert.False(t, ok)
}
