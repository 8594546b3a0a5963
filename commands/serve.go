package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/penwyp/go-mine-replay/internal/server"
	"github.com/penwyp/go-mine-replay/internal/util"
)

var (
	serveAddr    string
	serveEnvFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve renders over HTTP",
	Long: `Starts the HTTP front end:

  GET  /render/:provider/:gameid?gif=true|false   rendered image
  POST /render?gif=true|false                     render the posted replay
  GET  /inspect/:provider/:gameid                 JSON summary
  POST /inspect                                   summarise the posted replay
  GET  /healthz                                   status and cache totals

Environment (also read from .env): PORT, RATE_LIMIT_RPS, RATE_LIMIT_BURST,
CACHE_MAX_AGE, GIN_MODE, MCPLAYHD_API_KEY, REPLAY_DB.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (default :$PORT or :8080)")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", ".env",
		"Environment file to load if present")
}

// serverConfigFromEnv reads the server settings from the environment
func serverConfigFromEnv() server.Config {
	return server.Config{
		Addr:           ":" + util.GetEnvString("PORT", "8080"),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 10),
		CacheMaxAge:    util.GetEnvDuration("CACHE_MAX_AGE", 24*time.Hour),
		Release:        os.Getenv("GIN_MODE") == "release",
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveEnvFile != "" {
		if err := godotenv.Load(serveEnvFile); err == nil {
			util.LogInfof("Loaded environment from %s", serveEnvFile)
		}
	}
	if db := os.Getenv("REPLAY_DB"); db != "" && !cmd.Flags().Changed("db") {
		dbPath = db
	}

	cfg := serverConfigFromEnv()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	deps, err := newRuntime(cmd.Context(), 0)
	if err != nil {
		return err
	}
	defer deps.Close()

	opts := []server.Option{}
	if deps.store != nil {
		opts = append(opts, server.WithStats(deps.store))
	}
	srv, err := server.New(cfg, deps.orchestrator, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
