package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-mine-replay/internal/util"
)

var cachePruneAge time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the game and render cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached game and render totals",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached renders older than --older-than",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd)

	cachePruneCmd.Flags().DurationVar(&cachePruneAge, "older-than", 30*24*time.Hour,
		"Age of renders to delete")
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", util.PadRight("Games:", 10), util.FormatNumber(stats.Games))
	fmt.Fprintf(out, "%s %s\n", util.PadRight("Renders:", 10), util.FormatNumber(stats.Renders))
	fmt.Fprintf(out, "%s %s\n", util.PadRight("Size:", 10), util.FormatBytes(int(stats.Bytes)))
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	if cachePruneAge < 0 {
		return fmt.Errorf("--older-than must not be negative")
	}
	st, err := openStore(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.PruneRenders(cmd.Context(), time.Now().Add(-cachePruneAge))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d renders\n", n)
	return nil
}
