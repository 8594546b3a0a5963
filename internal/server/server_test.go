package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"image/gif"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/core/numeral"
	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/data/store"
	"github.com/penwyp/go-mine-replay/internal/provider"
	"github.com/penwyp/go-mine-replay/internal/render"
	"github.com/penwyp/go-mine-replay/internal/testing/fixtures"
)

type fakeProvider struct {
	games map[string]*provider.GameData
	err   error
}

func (f *fakeProvider) ID() string   { return "fake" }
func (f *fakeProvider) Name() string { return "Fake" }

func (f *fakeProvider) FetchGame(_ context.Context, gameID string) (*provider.GameData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if g, ok := f.games[gameID]; ok {
		return g, nil
	}
	return nil, provider.ErrGameDataNotFound
}

func strPtr(s string) *string { return &s }

type testEnv struct {
	server   *Server
	store    *store.Store
	provider *fakeProvider
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	fake := &fakeProvider{games: map[string]*provider.GameData{
		"42": {
			GameData: strPtr(fixtures.NewReplayBuilder(3, 3).Mine(0, 0).Open(2, 2, 4).String()),
			UUID:     "player-uuid",
			Won:      true,
		},
		"big":   {GameData: strPtr(fixtures.NewReplayBuilder(40, 2).Open(0, 0, 1).String())},
		"empty": {UUID: "player-uuid"},
	}}

	o, err := pipeline.NewOrchestrator(
		&pipeline.Config{StillGlyphSize: 8, AnimatedGlyphSize: 8, CacheRenders: true},
		pipeline.WithGameSource(provider.NewRegistry(fake)),
		pipeline.WithRenderCache(st),
	)
	require.NoError(t, err)

	s, err := New(cfg, o, WithStats(st))
	require.NoError(t, err)
	return &testEnv{server: s, store: st, provider: fake}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, 24*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)

	assert.Error(t, (&Config{RateLimitRPS: -1}).Validate())
	assert.Error(t, (&Config{CacheMaxAge: -time.Second}).Validate())
	assert.Error(t, (&Config{MaxBodyBytes: -1}).Validate())
}

func TestNewRequiresService(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestRenderGameAnimated(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/render/fake/42?gif=true", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Equal(t, "animated", w.Header().Get("X-Render-Mode"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "public")
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=86400")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	_, err := gif.DecodeAll(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
}

func TestRenderGameDefaultsToStill(t *testing.T) {
	env := newTestEnv(t, Config{})

	for _, path := range []string{"/render/fake/42", "/render/fake/42?gif=maybe"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"), path)
		assert.Equal(t, "still", w.Header().Get("X-Render-Mode"), path)
	}
}

func TestRenderGameStillAndCached(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/render/fake/42?gif=false", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("X-Render-Cache"))
	_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)

	again := env.do(httptest.NewRequest(http.MethodGet, "/render/fake/42?gif=false", nil))
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "hit", again.Header().Get("X-Render-Cache"))
	assert.Equal(t, w.Body.Bytes(), again.Body.Bytes())
}

func TestRenderGameLargeBoardIsStill(t *testing.T) {
	env := newTestEnv(t, Config{})
	w := env.do(httptest.NewRequest(http.MethodGet, "/render/fake/big?gif=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "still", w.Header().Get("X-Render-Mode"))
}

func TestRenderGameErrors(t *testing.T) {
	env := newTestEnv(t, Config{})

	tests := []struct {
		path string
		code int
	}{
		{"/render/nope/42", http.StatusNotFound},
		{"/render/fake/missing", http.StatusNotFound},
		{"/render/fake/empty", http.StatusNotFound},
		{"/inspect/fake/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "must-revalidate, no-cache, no-store", w.Header().Get("Cache-Control"))

			var body map[string]string
			require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRenderGameUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.provider.err = &provider.StatusError{URL: "http://upstream", StatusCode: 500}

	w := env.do(httptest.NewRequest(http.MethodGet, "/render/fake/42", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "must-revalidate, no-cache, no-store", w.Header().Get("Cache-Control"))

	env.provider.err = provider.ErrAPIKeyNotFound
	w = env.do(httptest.NewRequest(http.MethodGet, "/inspect/fake/42", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Header().Get("Cache-Control"), "immutable")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestRenderTextOversizedBoard(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(httptest.NewRequest(http.MethodPost, "/render", strings.NewReader("1=1024x1024+++")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
}

func TestRenderText(t *testing.T) {
	env := newTestEnv(t, Config{})
	text := fixtures.NewReplayBuilder(4, 4).Mine(1, 1).Open(3, 3, 2).String()

	w := env.do(httptest.NewRequest(http.MethodPost, "/render?gif=false", strings.NewReader(text+"\n")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestRenderTextErrors(t *testing.T) {
	env := newTestEnv(t, Config{MaxBodyBytes: 64})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"empty body", "  ", http.StatusBadRequest},
		{"bad version", "9=3x3+++", http.StatusBadRequest},
		{"malformed", "1=3x3+zz+", http.StatusBadRequest},
		{"too large", "1=3x3+" + strings.Repeat("0|0;", 40) + "++", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestInspectGame(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/inspect/fake/42", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var summary pipeline.Summary
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Width)
	assert.Equal(t, 1, summary.Mines)
	assert.Equal(t, 1, summary.Opens)
	require.NotNil(t, summary.Game)
	assert.True(t, summary.Game.Won)
	assert.Equal(t, "player-uuid", summary.Game.UUID)
}

func TestInspectGzip(t *testing.T) {
	env := newTestEnv(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/inspect/fake/42", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"width":3`)
}

func TestRenderNotGzipped(t *testing.T) {
	env := newTestEnv(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/render/fake/42", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestInspectText(t *testing.T) {
	env := newTestEnv(t, Config{})
	text := fixtures.NewReplayBuilder(3, 3).Open(1, 1, 20).String()

	w := env.do(httptest.NewRequest(http.MethodPost, "/inspect", strings.NewReader(text)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary pipeline.Summary
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(1000), summary.DurationMs)
	assert.Equal(t, "still", summary.Mode)
	assert.Nil(t, summary.Game)
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := env.do(req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, Config{})
	require.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/render/fake/42", nil)).Code)

	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string      `json:"status"`
		Uptime string      `json:"uptime"`
		Store  store.Stats `json:"store"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Uptime)
	assert.Equal(t, 1, body.Store.Renders)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Config{RateLimitRPS: 1, RateLimitBurst: 2})
	text := fixtures.NewReplayBuilder(2, 2).String()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := env.do(httptest.NewRequest(http.MethodPost, "/inspect", strings.NewReader(text)))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// healthz is not limited
	assert.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{&replay.UnsupportedVersionError{Version: "9"}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", &replay.MalformedFieldError{Field: "mines"}), http.StatusBadRequest},
		{&replay.UnsupportedActionError{}, http.StatusBadRequest},
		{&numeral.DecodeError{Text: "!"}, http.StatusBadRequest},
		{fmt.Errorf("%w: x", provider.ErrUnknownProvider), http.StatusNotFound},
		{provider.ErrGameDataNotFound, http.StatusNotFound},
		{provider.ErrAPIKeyNotFound, http.StatusServiceUnavailable},
		{&provider.StatusError{StatusCode: 500}, http.StatusBadGateway},
		{provider.ErrAPIDataParse, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusBadGateway},
		{render.Errorf("compose", "%w", render.ErrCanvasTooLarge), http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, statusFor(tt.err), tt.err.Error())
	}
}

func TestServeShutsDown(t *testing.T) {
	env := newTestEnv(t, Config{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
