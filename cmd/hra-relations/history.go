// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hra-relations/internal/fetch"
	"github.com/pdiddy/hra-relations/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs",
	Long: `History reads the run ledger: when each generation or validation run
happened, what it counted, and the edges it produced or classified.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		formatRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

func formatRuns(w io.Writer, runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-8s  %-8s  %-20s  %-9s  %s\n",
		"ID", "Job", "Status", "Started", "Duration", "Counters")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%-36s  %-8s  %-8s  %-20s  %-9s  %s\n",
			r.ID, r.Job, r.Status, r.StartedAt.Local().Format("2006-01-02 15:04:05"), duration, counterString(r.Counters))
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

func counterString(c map[string]int) string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, c[k])
	}
	return strings.Join(parts, " ")
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run with its edges to YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return store.Export(cmd.Context(), args[0], format, cmd.OutOrStdout())
		}

		var buf strings.Builder
		if err := store.Export(cmd.Context(), args[0], format, &buf); err != nil {
			return err
		}
		if err := fetch.WriteFileAtomic(output, []byte(buf.String())); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Exported to", output)
		return nil
	},
}

func openLedger(cmd *cobra.Command) (*ledger.Store, error) {
	path := cfg.Ledger.Path
	if v, _ := cmd.Flags().GetString("ledger"); v != "" {
		path = v
	}
	if path == "" {
		return nil, fmt.Errorf("run ledger is disabled: set ledger.path or --ledger")
	}
	return ledger.Open(path)
}

func init() {
	historyCmd.PersistentFlags().String("ledger", "", "run ledger database (default: ledger.path)")

	historyListCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")

	historyExportCmd.Flags().String("format", ledger.FormatYAML, "output format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
