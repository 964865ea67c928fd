package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkgstats/pkgstats/internal/config"
	"github.com/pkgstats/pkgstats/internal/database"
	"github.com/pkgstats/pkgstats/internal/model"
	"github.com/pkgstats/pkgstats/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command lists and replays statistics runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [architecture]",
		Short: "List and replay past statistics runs",
		Long: `History lists statistics runs recorded in the local database.

Every successful 'pkgstats stats' run is stored with its parameters, totals,
and ranked packages, so past results can be reviewed and compared without
refetching the Contents index.

Examples:
  # List recent runs for all architectures
  pkgstats history

  # List recent runs for amd64 only
  pkgstats history amd64

  # Show a stored run in full (use the ID from the listing)
  pkgstats history --show 5

  # Show a stored run as JSON
  pkgstats history --show 5 --json

  # Follow one package's count across amd64 runs
  pkgstats history amd64 --package devel/piglit

  # List architectures present in the database
  pkgstats history --list-archs`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolP("list-archs", "L", false,
		"List all architectures present in the database")
	cmd.Flags().Int64P("show", "s", 0,
		"Show a stored run in full by ID (use the listing to see IDs)")
	cmd.Flags().StringP("package", "p", "",
		"Show the historical counts of one package (requires an architecture)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the shown run in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var arch model.Architecture
	if len(args) > 0 {
		parsed, err := model.ParseArchitecture(args[0])
		if err != nil {
			return err
		}
		arch = parsed
	}

	// The database must already exist: history never has anything to show
	// for a fresh install, and creating an empty database here would mask
	// a mistyped data directory.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no run history available: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	listArchs, err := cmd.Flags().GetBool("list-archs")
	if err != nil {
		return err
	}
	if listArchs {
		return listArchitectures(ctx, cmd, db)
	}

	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	if showID > 0 {
		jsonOutput, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		return showRun(ctx, cmd, db, showID, jsonOutput)
	}

	pkg, err := cmd.Flags().GetString("package")
	if err != nil {
		return err
	}
	if pkg != "" {
		if arch == "" {
			return fmt.Errorf("--package requires an architecture argument")
		}
		return showPackageTrend(ctx, cmd, db, arch, pkg)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return listRunHistory(ctx, cmd, db, arch, limit)
}

// listArchitectures lists all architectures that have stored runs.
func listArchitectures(ctx context.Context, cmd *cobra.Command, db *database.StatsDB) error {
	archs, err := db.ListArchitectures(ctx)
	if err != nil {
		return fmt.Errorf("failed to list architectures: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(archs) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'pkgstats stats <architecture>' to record a run.")
		return nil
	}

	fmt.Fprintf(out, "Architectures with stored runs (%d):\n\n", len(archs))
	for _, arch := range archs {
		fmt.Fprintf(out, "  %s\n", arch)
	}

	return nil
}

// listRunHistory lists stored runs, most recent first.
func listRunHistory(ctx context.Context, cmd *cobra.Command, db *database.StatsDB, arch model.Architecture, limit int) error {
	runs, err := db.GetRunHistory(ctx, arch, limit)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		if arch != "" {
			fmt.Fprintf(out, "No run history found for %s\n", arch)
		} else {
			fmt.Fprintln(out, "No run history found.")
		}
		fmt.Fprintln(out, "\nUse 'pkgstats stats <architecture>' to record a run.")
		return nil
	}

	fmt.Fprintf(out, "Run history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-10s  %-20s  %12s  %10s  %5s\n",
		"ID", "Arch", "Date", "Lines", "Packages", "Top")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, meta := range runs {
		fmt.Fprintf(out, "  %-6d  %-10s  %-20s  %12d  %10d  %5d\n",
			meta.ID,
			meta.Architecture,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.LinesProcessed,
			meta.DistinctPackages,
			meta.TopN,
		)
	}

	fmt.Fprintln(out, "\nUse 'pkgstats history --show <id>' to display a stored run.")
	return nil
}

// showRun displays one stored run in full.
func showRun(ctx context.Context, cmd *cobra.Command, db *database.StatsDB, id int64, jsonOutput bool) error {
	stored, err := db.GetRunByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("no run with ID %d (use 'pkgstats history' to list runs)", id)
	}

	var writer report.Writer
	if jsonOutput {
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		writer = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	}

	_, err = writer.Write(stored)
	return err
}

// showPackageTrend displays one package's counts across stored runs.
func showPackageTrend(ctx context.Context, cmd *cobra.Command, db *database.StatsDB, arch model.Architecture, pkg string) error {
	trend, err := db.GetPackageTrend(ctx, arch, pkg)
	if err != nil {
		return fmt.Errorf("failed to load package trend: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(trend) == 0 {
		fmt.Fprintf(out, "No stored runs rank %q for %s.\n", pkg, arch)
		fmt.Fprintln(out, "Only packages inside a run's top-N are recorded.")
		return nil
	}

	fmt.Fprintf(out, "Counts for %s on %s (%d runs):\n\n", pkg, arch, len(trend))
	fmt.Fprintf(out, "  %-6s  %-20s  %12s\n", "Run", "Date", "Files")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 44))
	for _, point := range trend {
		fmt.Fprintf(out, "  %-6d  %-20s  %12d\n",
			point.RunID,
			point.Timestamp.Format("2006-01-02 15:04:05"),
			point.Count,
		)
	}

	return nil
}
