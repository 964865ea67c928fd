package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/pkgstats/pkgstats/internal/model"
)

// Default configuration values.
// Mirror, suite, and component match the archive layout the tool was built
// against; everything else is chosen for typical mirror characteristics.
const (
	// DefaultMirror is the package mirror the Contents index is fetched from.
	// Any Debian mirror with the standard dists/<suite>/<component> layout works.
	DefaultMirror = "http://ftp.uk.debian.org/debian"

	// DefaultSuite is the distribution suite within the archive.
	DefaultSuite = "stable"

	// DefaultComponent is the archive component holding the Contents index.
	DefaultComponent = "main"

	// DefaultTopN is the number of packages reported when -n is not given.
	DefaultTopN = 10

	// DefaultTimeout bounds the whole download. Contents files are tens of
	// megabytes compressed, so this must accommodate slow mirrors; a short
	// timeout would abort legitimate transfers midway.
	DefaultTimeout = 5 * time.Minute

	// DefaultWorkers is the number of counting workers. One worker means a
	// plain sequential pass; counting is commutative, so raising this only
	// changes throughput, never the final tally.
	DefaultWorkers = 1

	// MaxWorkers caps the counting shard count. Beyond a handful of workers
	// the line scanner becomes the bottleneck, so more shards only cost memory.
	MaxWorkers = 32

	// AppName is the application name used for XDG directory paths.
	AppName = "pkgstats"

	// DefaultUserAgent identifies pkgstats in HTTP requests to the mirror.
	// A descriptive User-Agent is good practice toward mirror operators.
	DefaultUserAgent = "pkgstats/1.0 (+https://github.com/pkgstats/pkgstats)"
)

// Config holds all options for one statistics run.
// It is populated from CLI flags (and optionally a .pkgstats file) and passed
// through the application by explicit parameter passing; nothing reads
// configuration from ambient package-level state.
type Config struct {
	// Architecture is the validated target architecture.
	Architecture model.Architecture

	// Mirror is the base URL of the package mirror.
	Mirror string

	// Suite is the distribution suite (e.g. "stable", "testing").
	Suite string

	// Component is the archive component (e.g. "main", "contrib").
	Component string

	// TopN is the number of packages to report.
	// Zero is valid and yields an empty result.
	TopN int

	// Timeout bounds the manifest download, not the whole run; parsing and
	// counting are local work governed only by context cancellation.
	Timeout time.Duration

	// Workers is the number of counting shards. Values above one split the
	// line stream across goroutines with per-shard counts merged at the end.
	Workers int

	// Keep retains the downloaded temp file instead of removing it when the
	// run finishes. Mainly useful for debugging mirror content.
	Keep bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .pkgstats in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of the plain text table.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// SaveToDB indicates whether the run is recorded in the history database.
	SaveToDB bool

	// DBDir is the directory holding the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string

	// UserAgent is the User-Agent header sent to the mirror.
	UserAgent string
}

// NewConfig creates a Config with default values.
// Many defaults are non-zero, so relying on zero values would be wrong;
// this constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Mirror:    DefaultMirror,
		Suite:     DefaultSuite,
		Component: DefaultComponent,
		TopN:      DefaultTopN,
		Timeout:   DefaultTimeout,
		Workers:   DefaultWorkers,
		UserAgent: DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for pkgstats.
// On Linux: ~/.local/share/pkgstats
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for pkgstats.
// Downloaded Contents files are staged here before decompression.
// On Linux: ~/.cache/pkgstats
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns a specific error
// describing the first problem found. It is called once after CLI parsing,
// before any fetch begins, so invalid input fails fast with a clear message
// and never reaches the network.
func (c *Config) Validate() error {
	if c.Architecture == "" {
		return model.ErrEmptyArchitecture
	}

	if c.Mirror == "" {
		return ErrEmptyMirror
	}

	if c.Suite == "" {
		return ErrEmptySuite
	}

	if c.Component == "" {
		return ErrEmptyComponent
	}

	// Negative N has no meaning; zero is allowed and yields an empty report.
	if c.TopN < 0 {
		return ErrInvalidTopN
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Workers <= 0 || c.Workers > MaxWorkers {
		return ErrInvalidWorkers
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
