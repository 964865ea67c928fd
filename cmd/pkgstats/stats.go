package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"log/slog"

	"github.com/pkgstats/pkgstats/internal/config"
	"github.com/pkgstats/pkgstats/internal/database"
	"github.com/pkgstats/pkgstats/internal/fetch"
	pkglog "github.com/pkgstats/pkgstats/internal/log"
	"github.com/pkgstats/pkgstats/internal/model"
	"github.com/pkgstats/pkgstats/internal/pipeline"
	"github.com/pkgstats/pkgstats/internal/report"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <architecture>",
		Short: "Report the packages with the most files for an architecture",
		Long: `Stats downloads the compressed Contents index for the given architecture
from a package mirror, counts how many files each package is associated
with, and prints the top packages by file count.

Accepted architectures: ` + joinArchitectures() + `

Examples:
  # Top 10 packages for amd64 from the default mirror
  pkgstats stats amd64

  # Top 25 packages for arm64
  pkgstats stats arm64 -n 25

  # Use a different mirror and suite
  pkgstats stats amd64 --mirror http://deb.debian.org/debian --suite testing

  # Shard the counting across four workers
  pkgstats stats amd64 -w 4

  # Output JSON report to a file
  pkgstats stats amd64 --json -o report.json`,
		Args: cobra.ExactArgs(1),
		RunE: runStatsCmd,
	}

	// Run parameter flags
	cmd.Flags().IntP("top", "n", config.DefaultTopN,
		"Number of packages to report")
	cmd.Flags().String("mirror", config.DefaultMirror,
		"Package mirror base URL")
	cmd.Flags().String("suite", config.DefaultSuite,
		"Distribution suite (e.g. stable, testing)")
	cmd.Flags().String("component", config.DefaultComponent,
		"Archive component (e.g. main, contrib)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for the index download")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of counting workers")
	cmd.Flags().BoolP("keep", "k", false,
		"Keep the downloaded Contents file after the run")
	cmd.Flags().String("cache-dir", "",
		"Directory for staging downloads (default: XDG cache directory)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pkgstats in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not record the run in the history database")

	return cmd
}

// joinArchitectures renders the accepted architecture set for help text.
func joinArchitectures() string {
	names := model.ArchitectureNames()
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags and optional config file
	cfg, cacheDir, err := buildStatsConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with repeat throttling: a malformed index
	// can warn once per line, and there are millions of lines.
	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := pkglog.NewThrottledLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runStats(ctx, cfg, cacheDir, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildStatsConfig creates a Config from cobra command flags and the
// optional configuration file. Precedence: built-in defaults, then the
// file, then flags the user set explicitly.
func buildStatsConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.NewConfig()

	arch, err := model.ParseArchitecture(args[0])
	if err != nil {
		return nil, "", err
	}
	cfg.Architecture = arch

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", err
	}

	// Load run defaults from the config file.
	// If the user explicitly specified a path, a missing file is an error.
	// Without an explicit path, a missing file just means defaults apply.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, "", fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Explicit flags override the file values. Changed distinguishes a flag
	// the user set from one still carrying its default.
	flags := cmd.Flags()
	if flags.Changed("top") {
		if cfg.TopN, err = flags.GetInt("top"); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("mirror") {
		if cfg.Mirror, err = flags.GetString("mirror"); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("suite") {
		if cfg.Suite, err = flags.GetString("suite"); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("component") {
		if cfg.Component, err = flags.GetString("component"); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("keep") {
		if cfg.Keep, err = flags.GetBool("keep"); err != nil {
			return nil, "", err
		}
	}

	cfg.JSONReport, err = flags.GetBool("json")
	if err != nil {
		return nil, "", err
	}
	cfg.MarkdownReport, err = flags.GetBool("markdown")
	if err != nil {
		return nil, "", err
	}
	cfg.ReportFile, err = flags.GetString("output")
	if err != nil {
		return nil, "", err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, "", err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	cacheDir, err := flags.GetString("cache-dir")
	if err != nil {
		return nil, "", err
	}
	if cacheDir == "" {
		cacheDir = config.XDGCacheDir()
	}

	return cfg, cacheDir, nil
}

// runStats executes the statistics run and writes the report to out.
func runStats(ctx context.Context, cfg *config.Config, cacheDir string, logger *slog.Logger, out io.Writer) error {
	logger.Info("starting run",
		"architecture", cfg.Architecture,
		"mirror", cfg.Mirror,
		"suite", cfg.Suite,
		"component", cfg.Component,
		"top", cfg.TopN,
		"workers", cfg.Workers,
	)

	// Open database connection if saving is enabled
	var db *database.StatsDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "dir", cfg.DBDir)
	}

	// The client carries the download timeout; parsing and counting are
	// local work bounded only by context cancellation.
	client := &http.Client{Timeout: cfg.Timeout}
	fetcher := fetch.New(client, cfg.Mirror, cfg.Suite, cfg.Component,
		fetch.WithCacheDir(cacheDir),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(logger),
	)

	p := pipeline.DefaultPipeline(fetcher, cfg, pipeline.WithLogger(logger))
	run := pipeline.NewRun(model.NewReport(cfg.Architecture, cfg.Mirror, cfg.Suite, cfg.Component))

	execErr := p.Execute(ctx, run)

	// A cancelled run may still hold an open manifest.
	closeErr := run.Close()
	if execErr != nil {
		return execErr
	}
	if closeErr != nil {
		return closeErr
	}

	// Emit one aggregated line for any suppressed repeated warnings.
	if flusher, ok := logger.Handler().(interface{ Flush(context.Context) error }); ok {
		_ = flusher.Flush(ctx) //nolint:errcheck // Best effort log flush
	}

	// Generate and output report
	if err := outputReport(cfg, run.Report, out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	// Save to database if enabled
	if db != nil {
		runID, err := db.SaveReport(ctx, run.Report)
		if err != nil {
			// Recording history must not fail a run that already printed
			// its result.
			logger.Error("failed to save run", "error", err)
		} else {
			logger.Debug("run saved", "run_id", runID)
		}
	}

	return nil
}

// outputReport writes the report in the requested format.
// When cfg.ReportFile is set the report goes to that file instead of out.
func outputReport(cfg *config.Config, runReport *model.Report, out io.Writer) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(runReport)
	return err
}
