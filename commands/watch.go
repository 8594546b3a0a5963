package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-mine-replay/internal/util"
	"github.com/penwyp/go-mine-replay/internal/watch"
)

var (
	watchOutDir    string
	watchGif       bool
	watchGlyphSize int
	watchExt       string
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Render replay files as they are written to a directory",
	Long: `Renders every replay file already in the directory, then every file that is
created or rewritten, until interrupted. Unchanged contents are not
rendered twice.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOutDir, "out", "",
		"Directory for rendered images (default: the watched directory)")
	watchCmd.Flags().BoolVar(&watchGif, "gif", false,
		"Render animated GIFs")
	watchCmd.Flags().IntVar(&watchGlyphSize, "glyph-size", 0,
		"Glyph size in pixels (default: 32 still, 20 animated)")
	watchCmd.Flags().StringVar(&watchExt, "ext", watch.DefaultExtension,
		"Extension of replay files")
}

func runWatch(cmd *cobra.Command, args []string) error {
	deps, err := newRuntime(cmd.Context(), watchGlyphSize)
	if err != nil {
		return err
	}
	defer deps.Close()

	cfg := watch.Config{
		Dir:       expandPath(args[0]),
		Extension: watchExt,
		Animated:  watchGif,
	}
	if watchOutDir != "" {
		cfg.OutDir = expandPath(watchOutDir)
	}

	w, err := watch.New(cfg, deps.orchestrator)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	util.LogInfof("Watching %s for *%s files", cfg.Dir, watchExt)
	for outcome := range w.Outcomes() {
		switch {
		case outcome.Err != nil:
			util.LogWarnf("Failed to render %s: %v", outcome.Source, outcome.Err)
		case outcome.Skipped:
			util.LogDebugf("Skipped %s (unchanged)", outcome.Source)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %s)\n", outcome.Source, outcome.Output, outcome.Mode, util.FormatBytes(outcome.Bytes))
		}
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
