package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/data/store"
	"github.com/penwyp/go-mine-replay/internal/provider"
	"github.com/penwyp/go-mine-replay/internal/util"
)

var (
	// Logging related
	debug   bool
	logFile string

	// Rendering
	atlasPath string

	// Providers and cache
	dbPath          string
	noCache         bool
	providerTimeout time.Duration
	greevURL        string
	mcplayhdURL     string

	rootCmd = &cobra.Command{
		Use:   "go-mine-replay",
		Short: "Minesweeper replay renderer",
		Long: `go-mine-replay decodes encoded minesweeper replays and renders them as a
still PNG of the final board or an animated GIF of the whole game.

Examples:
  go-mine-replay render game.replay -o game.png         # Final board as PNG
  go-mine-replay render game.replay --gif -o game.gif   # Animated replay
  go-mine-replay render --provider greev --game 1234    # Fetch and render a game
  go-mine-replay inspect game.replay                    # Summary and text preview
  go-mine-replay watch ./replays --gif                  # Render files as they appear
  go-mine-replay serve                                  # HTTP front end`,
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
	}
)

const (
	defaultLogFile = "~/.go-mine-replay/logs/app.log"
	defaultDBPath  = "~/.go-mine-replay/cache.db"
)

func init() {
	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile,
		"Log file path (empty disables file logging)")

	// Rendering
	rootCmd.PersistentFlags().StringVar(&atlasPath, "atlas", "",
		"PNG sprite strip of 13 square glyphs (default: built-in atlas)")

	// Providers and cache
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath,
		"SQLite cache for fetched games and renders")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false,
		"Do not read or write the cache")
	rootCmd.PersistentFlags().DurationVar(&providerTimeout, "timeout", provider.DefaultTimeout,
		"Provider request timeout")
	rootCmd.PersistentFlags().StringVar(&greevURL, "greev-url", provider.DefaultGreevURL,
		"Greev API base URL")
	rootCmd.PersistentFlags().StringVar(&mcplayhdURL, "mcplayhd-url", provider.DefaultMcPlayHDURL,
		"McPlayHD API base URL")
}

func Execute() error {
	return rootCmd.Execute()
}

func initLogging(cmd *cobra.Command, args []string) error {
	// Determine log level based on debug flag
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	path := ""
	if logFile != "" {
		path = expandPath(logFile)
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return util.InitLogger(logLevel, path, debug)
}

// runtimeDeps is what a command needs to render and fetch games
type runtimeDeps struct {
	orchestrator *pipeline.Orchestrator
	store        *store.Store
}

func (d *runtimeDeps) Close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			util.LogWarnf("Failed to close cache: %v", err)
		}
	}
}

// newRuntime opens the cache (unless disabled) and builds the orchestrator.
// glyphSize overrides both atlas sizes when non-zero.
func newRuntime(ctx context.Context, glyphSize int) (*runtimeDeps, error) {
	deps := &runtimeDeps{}

	if !noCache && dbPath != "" {
		st, err := openStore(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		deps.store = st
	}

	providerCfg := provider.Config{
		GreevURL:    greevURL,
		McPlayHDURL: mcplayhdURL,
		Timeout:     providerTimeout,
		Keys:        defaultKeys(),
	}
	opts := []pipeline.Option{}
	if deps.store != nil {
		providerCfg.Cache = deps.store
		opts = append(opts, pipeline.WithRenderCache(deps.store))
	}
	opts = append(opts, pipeline.WithGameSource(provider.CreateRegistry(providerCfg)))

	config := &pipeline.Config{
		StillGlyphSize:    glyphSize,
		AnimatedGlyphSize: glyphSize,
		CacheRenders:      deps.store != nil,
	}
	if atlasPath != "" {
		config.AtlasPath = expandPath(atlasPath)
	}

	o, err := pipeline.NewOrchestrator(config, opts...)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.orchestrator = o
	return deps, nil
}

func openStore(ctx context.Context, path string) (*store.Store, error) {
	if path != ":memory:" {
		path = expandPath(path)
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return st, nil
}

func defaultKeys() provider.KeySource {
	return provider.ChainKeys{provider.EnvKeys{}, provider.NewKeyringStore(provider.KeyringService)}
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
