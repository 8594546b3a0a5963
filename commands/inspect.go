package commands

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-mine-replay/internal/application/pipeline"
	"github.com/penwyp/go-mine-replay/internal/data/parser"
	"github.com/penwyp/go-mine-replay/internal/data/scanner"
	"github.com/penwyp/go-mine-replay/internal/presentation/formatter"
	"github.com/penwyp/go-mine-replay/internal/presentation/preview"
)

var (
	inspectOutput   string
	inspectSort     string
	inspectASCII    bool
	inspectColor    bool
	inspectProvider string
	inspectGame     string
	inspectExt      string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file|dir|-]...",
	Short: "Summarise replays without rendering them",
	Long: `Prints metadata, event counts, tick count and a text preview of the final
board. With several files, or --output, prints one row per replay as a
table, JSON, CSV or aggregate summary.`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "",
		"Output format (preview, table, json, csv, summary)")
	inspectCmd.Flags().StringVar(&inspectSort, "sort", "source",
		"Sort rows by source, duration, progress or size; prefix with - to reverse")
	inspectCmd.Flags().BoolVar(&inspectASCII, "ascii", false,
		"Draw the board preview with ASCII symbols only")
	inspectCmd.Flags().BoolVar(&inspectColor, "color", false,
		"Colour the board preview")
	inspectCmd.Flags().StringVar(&inspectProvider, "provider", "",
		"Fetch the replay from a provider (greev, mcplayhd)")
	inspectCmd.Flags().StringVar(&inspectGame, "game", "",
		"Game id to fetch with --provider")
	inspectCmd.Flags().StringVar(&inspectExt, "ext", scanner.DefaultExtension,
		"Replay file extension to collect from directories")
}

type inspected struct {
	source  string
	summary *pipeline.Summary
}

func runInspect(cmd *cobra.Command, args []string) error {
	if (inspectProvider == "") != (inspectGame == "") {
		return errors.New("--provider and --game must be used together")
	}

	deps, err := newRuntime(cmd.Context(), 0)
	if err != nil {
		return err
	}
	defer deps.Close()

	var results []inspected
	switch {
	case inspectProvider != "":
		s, err := deps.orchestrator.InspectGame(cmd.Context(), inspectProvider, inspectGame)
		if err != nil {
			return fmt.Errorf("failed to inspect %s game %s: %w", inspectProvider, inspectGame, err)
		}
		results = append(results, inspected{source: inspectProvider + "/" + inspectGame, summary: s})
	case len(args) == 0 || (len(args) == 1 && args[0] == "-"):
		text, err := readReplayInput(cmd, args)
		if err != nil {
			return err
		}
		s, err := deps.orchestrator.Inspect(text, true)
		if err != nil {
			return err
		}
		results = append(results, inspected{source: "stdin", summary: s})
	default:
		results, err = inspectFiles(deps.orchestrator, args)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	format := inspectOutput
	if format == "" {
		format = "table"
		if len(results) == 1 {
			format = "preview"
		}
	}

	if format == "preview" {
		sizer := preview.FixedSizer(preview.DefaultWidth)
		if f, ok := out.(*os.File); ok {
			sizer = preview.NewSizer(f)
		}
		report := preview.NewReport(sizer, preview.Options{ASCII: inspectASCII, Color: inspectColor})
		for i, r := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, report.Format(r.source, r.summary))
		}
		return nil
	}

	f, err := formatter.New(format)
	if err != nil {
		return err
	}
	sorter, err := formatter.NewRowSorter(inspectSort)
	if err != nil {
		return err
	}
	rows := make([]formatter.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, formatter.RowFromSummary(r.source, r.summary))
	}
	sorter.Sort(rows)
	return f.Format(out, rows)
}

// inspectFiles expands directories in paths and summarises every replay
// beneath them, parsing files concurrently.
func inspectFiles(o *pipeline.Orchestrator, paths []string) ([]inspected, error) {
	files, err := scanner.Expand(paths, inspectExt)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found", inspectExt)
	}

	results := make([]inspected, 0, len(files))
	for _, res := range parser.NewParser(runtime.NumCPU()).ParseAll(files) {
		if res.Error != nil {
			return nil, res.Error
		}
		s, err := o.Summarize(res.Replay, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", res.File, err)
		}
		results = append(results, inspected{source: res.File, summary: s})
	}
	return results, nil
}
