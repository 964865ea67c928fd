package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkgstats/pkgstats/internal/config"
	"github.com/pkgstats/pkgstats/internal/contents"
	"github.com/pkgstats/pkgstats/internal/fetch"
	"golang.org/x/sync/errgroup"
)

// FetchStep downloads the Contents index for the run's architecture and
// hands the open manifest to the next step.
//
// Design decision: Fetching is a separate step because:
// 1. It's the only stage that touches the network
// 2. Its failures map to a distinct exit code in the CLI
// 3. Tests can replace it with a step that serves a local manifest
type FetchStep struct {
	// fetcher performs the mirror download.
	fetcher *fetch.Fetcher

	// keep disables temp-file removal when the run finishes.
	keep bool

	// logger for structured logging.
	logger *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchKeep retains the downloaded file after the run.
func WithFetchKeep(keep bool) FetchStepOption {
	return func(s *FetchStep) {
		s.keep = keep
	}
}

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a new fetch step.
func NewFetchStep(fetcher *fetch.Fetcher, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		fetcher: fetcher,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *Run) error {
	manifest, err := s.fetcher.Fetch(ctx, run.Report.Architecture)
	if err != nil {
		return err
	}

	if s.keep {
		manifest.Keep()
		s.logger.Info("keeping downloaded index", "path", manifest.Path())
	}

	run.Manifest = manifest
	return nil
}

// CountStep consumes the fetched Contents index line by line and accumulates
// per-package file counts into the run's aggregator. It closes the manifest
// when counting finishes, so a temp-file cleanup failure surfaces here.
//
// Design decision: Counting owns the manifest lifecycle because it is the
// single consumer of the stream. Closing in the same step keeps the
// "download, count, remove" sequence in one place instead of spreading
// cleanup across the CLI.
type CountStep struct {
	// workers is the number of counting shards. Values below two select
	// the sequential path.
	workers int

	// logger for structured logging.
	logger *slog.Logger
}

// CountStepOption configures a CountStep.
type CountStepOption func(*CountStep)

// WithCountWorkers sets the number of counting shards.
func WithCountWorkers(workers int) CountStepOption {
	return func(s *CountStep) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithCountLogger sets a custom logger for the count step.
func WithCountLogger(logger *slog.Logger) CountStepOption {
	return func(s *CountStep) {
		s.logger = logger
	}
}

// NewCountStep creates a new counting step.
func NewCountStep(opts ...CountStepOption) *CountStep {
	s := &CountStep{
		workers: config.DefaultWorkers,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CountStep) Name() string {
	return "count"
}

// Do executes the count step.
//
// The scan error takes precedence over the manifest close error: a truncated
// index is a more fundamental problem than a leftover temp file. A close
// error wraps fetch.ErrCleanup so the CLI can map it to its own exit code.
func (s *CountStep) Do(ctx context.Context, run *Run) error {
	if run.Manifest == nil {
		return fmt.Errorf("%w: fetch step did not run", ErrNoManifest)
	}

	var scanErr error
	if s.workers > 1 {
		scanErr = s.countSharded(ctx, run)
	} else {
		scanErr = s.countSequential(ctx, run)
	}

	closeErr := run.Close()
	if scanErr != nil {
		return scanErr
	}
	if closeErr != nil {
		return closeErr
	}

	s.logger.Debug("counting complete",
		"lines", run.Aggregator.Lines(),
		"distinct_packages", run.Aggregator.Distinct(),
	)
	return nil
}

// countSequential reads and accumulates the index on the calling goroutine.
func (s *CountStep) countSequential(ctx context.Context, run *Run) error {
	scanner := contents.NewScanner(run.Manifest.Reader())
	for scanner.Scan() {
		entry := contents.ParseLine(scanner.Text())
		s.warnMissingColumn(entry)
		run.Aggregator.Accumulate(entry)

		// Cancellation is polled periodically, not per line.
		if run.Aggregator.Lines()%65536 == 0 {
			select {
			case <-ctx.Done():
				run.Report.TimedOut = true
				return ctx.Err()
			default:
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading Contents index: %w", err)
	}
	return nil
}

// countSharded fans the index lines out to worker goroutines, each with its
// own partial aggregator, and merges the partials when all lines are
// consumed.
//
// Design decision: We shard by line rather than by byte range because the
// manifest is a single gzip stream: decompression is inherently sequential,
// so one reader feeds a channel and the workers share the parsing and map
// updates. Counting is commutative, so merge order does not matter.
func (s *CountStep) countSharded(ctx context.Context, run *Run) error {
	g, ctx := errgroup.WithContext(ctx)

	lines := make(chan string, 256)
	partials := make([]*contents.Aggregator, s.workers)

	for i := range s.workers {
		partials[i] = contents.NewAggregator()
		g.Go(func() error {
			for line := range lines {
				entry := contents.ParseLine(line)
				s.warnMissingColumn(entry)
				partials[i].Accumulate(entry)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(lines)

		scanner := contents.NewScanner(run.Manifest.Reader())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				run.Report.TimedOut = true
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading Contents index: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	for _, partial := range partials {
		run.Aggregator.Merge(partial)
	}
	return nil
}

// warnMissingColumn logs lines that carry no package column. Real Contents
// files contain a handful of these near the header; the throttled logger
// keeps a pathological index from flooding stderr.
func (s *CountStep) warnMissingColumn(entry contents.Entry) {
	if len(entry.Packages) == 1 && entry.Packages[0] == "" && entry.Path != "" {
		s.logger.Warn("line without package column", "path", entry.Path)
	}
}

// SelectStep computes the top-N result from the accumulated counts and
// finalizes the report totals.
type SelectStep struct {
	// topN is the requested result size.
	topN int

	// logger for structured logging.
	logger *slog.Logger
}

// SelectStepOption configures a SelectStep.
type SelectStepOption func(*SelectStep)

// WithSelectLogger sets a custom logger for the select step.
func WithSelectLogger(logger *slog.Logger) SelectStepOption {
	return func(s *SelectStep) {
		s.logger = logger
	}
}

// NewSelectStep creates a new selection step for the given result size.
func NewSelectStep(topN int, opts ...SelectStepOption) *SelectStep {
	s := &SelectStep{
		topN:   topN,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SelectStep) Name() string {
	return "select"
}

// Do executes the selection step.
func (s *SelectStep) Do(_ context.Context, run *Run) error {
	report := run.Report
	report.TopN = s.topN
	report.Packages = run.Aggregator.TopN(s.topN)
	report.LinesProcessed = run.Aggregator.Lines()
	report.DistinctPackages = run.Aggregator.Distinct()
	report.DateGenerated = time.Now()
	report.Duration = time.Since(run.start)

	s.logger.Debug("selection complete",
		"requested", s.topN,
		"selected", len(report.Packages),
	)
	return nil
}

// DefaultPipeline creates a pipeline with the standard statistics steps
// configured from the run configuration: fetch, count, select.
//
// Design decision: We provide a default pipeline because:
// 1. The step ordering is fixed for a statistics run
// 2. It reduces boilerplate in the CLI
// 3. Tests can still assemble custom pipelines from individual steps
func DefaultPipeline(fetcher *fetch.Fetcher, cfg *config.Config, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewFetchStep(fetcher,
			WithFetchKeep(cfg.Keep),
			WithFetchLogger(p.logger),
		),
		NewCountStep(
			WithCountWorkers(cfg.Workers),
			WithCountLogger(p.logger),
		),
		NewSelectStep(cfg.TopN,
			WithSelectLogger(p.logger),
		),
	)

	return p
}
