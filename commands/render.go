package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/render/encoder"
	"github.com/penwyp/go-mine-replay/internal/util"
)

var (
	renderGif       bool
	renderOutput    string
	renderGlyphSize int
	renderProvider  string
	renderGame      string
	renderForce     bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a replay as PNG or GIF",
	Long: `Reads an encoded replay from a file, stdin, or a provider and writes the
rendered image. Boards wider or taller than 32 cells are always rendered
as a still image.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVar(&renderGif, "gif", false,
		"Render an animated GIF instead of the final board")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "",
		"Output file (default: stdout)")
	renderCmd.Flags().IntVar(&renderGlyphSize, "glyph-size", 0,
		"Glyph size in pixels (default: 32 still, 20 animated)")
	renderCmd.Flags().StringVar(&renderProvider, "provider", "",
		"Fetch the replay from a provider (greev, mcplayhd)")
	renderCmd.Flags().StringVar(&renderGame, "game", "",
		"Game id to fetch with --provider")
	renderCmd.Flags().BoolVarP(&renderForce, "force", "f", false,
		"Write binary output even when stdout is a terminal")
}

func runRender(cmd *cobra.Command, args []string) error {
	if (renderProvider == "") != (renderGame == "") {
		return errors.New("--provider and --game must be used together")
	}
	if renderProvider != "" && len(args) > 0 {
		return errors.New("give either a replay file or --provider/--game, not both")
	}

	out := cmd.OutOrStdout()
	if renderOutput == "" && !renderForce && isTerminal(out) {
		return errors.New("refusing to write binary image data to a terminal; use -o or redirect stdout")
	}

	deps, err := newRuntime(cmd.Context(), renderGlyphSize)
	if err != nil {
		return err
	}
	defer deps.Close()

	var res *pipeline.Result
	if renderProvider != "" {
		game, err := deps.orchestrator.RenderGame(cmd.Context(), renderProvider, renderGame, renderGif)
		if err != nil {
			return fmt.Errorf("failed to render %s game %s: %w", renderProvider, renderGame, err)
		}
		res = &game.Result
	} else {
		text, err := readReplayInput(cmd, args)
		if err != nil {
			return err
		}
		if res, err = deps.orchestrator.Render(text, renderGif); err != nil {
			return err
		}
	}

	if renderGif && res.Mode != encoder.ModeAnimated {
		util.LogWarnf("Board is %dx%d; rendering a still image instead of an animation",
			res.Metadata.Width, res.Metadata.Height)
	}

	if renderOutput == "" {
		_, err = out.Write(res.Bytes)
		return err
	}

	path := expandPath(renderOutput)
	if ext := filepath.Ext(path); ext != "" && !strings.EqualFold(ext, res.Mode.Extension()) {
		util.LogWarnf("Writing %s data to %s", res.ContentType, path)
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, res.Bytes, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	util.LogInfof("Wrote %s (%s, %s)", path, res.Mode, util.FormatBytes(len(res.Bytes)))
	return nil
}

// readReplayInput reads replay text from args[0], or stdin when there is no
// argument or it is "-"
func readReplayInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("failed to read replay: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("replay input is empty")
	}
	return text, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
