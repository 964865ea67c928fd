package fetch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/pkgstats/pkgstats/internal/model"
)

// Fetcher downloads Contents indexes from a package mirror.
//
// Design decision: We accept an *http.Client rather than creating one
// internally because:
//  1. Timeout policy belongs to the caller (it comes from the run config)
//  2. Tests can point the fetcher at an httptest server with a plain client
//  3. Connection pooling can be shared if multiple fetches ever happen
type Fetcher struct {
	// client performs the HTTP requests.
	client *http.Client

	// mirror is the base URL of the package mirror, without trailing slash.
	mirror string

	// suite is the distribution suite (e.g. "stable").
	suite string

	// component is the archive component (e.g. "main").
	component string

	// cacheDir is the directory downloads are staged in.
	cacheDir string

	// userAgent is sent with every request.
	userAgent string

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCacheDir sets the directory downloads are staged in.
// The directory is created on first use.
func WithCacheDir(dir string) Option {
	return func(f *Fetcher) {
		f.cacheDir = dir
	}
}

// WithUserAgent sets the User-Agent header sent to the mirror.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher for the given mirror layout.
// The client should carry the download timeout; the fetcher does not retry.
func New(client *http.Client, mirror, suite, component string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    client,
		mirror:    strings.TrimRight(mirror, "/"),
		suite:     suite,
		component: component,
		cacheDir:  os.TempDir(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// URL returns the Contents index URL for the given architecture.
// Layout: <mirror>/dists/<suite>/<component>/Contents-<arch>.gz
func (f *Fetcher) URL(arch model.Architecture) string {
	return fmt.Sprintf("%s/dists/%s/%s/Contents-%s.gz", f.mirror, f.suite, f.component, arch)
}

// Fetch downloads the Contents index for arch and returns an open Manifest.
//
// The compressed body is streamed to a temp file first and decompressed from
// there, so an interrupted transfer never yields a half-counted run: either
// the download completes and aggregation starts, or the caller gets an error
// and no counting happens.
//
// Returns ErrNotFound (wrapped) when the mirror answers 404 and ErrFetch
// (wrapped) for every other failure. The caller owns the Manifest and must
// Close it.
func (f *Fetcher) Fetch(ctx context.Context, arch model.Architecture) (*Manifest, error) {
	url := f.URL(arch)
	f.logger.Debug("downloading Contents index", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, arch, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %s for %s", ErrFetch, resp.Status, url)
	}

	path, size, err := f.stage(resp.Body, arch)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("download complete", "path", path, "bytes", size)

	m, err := openManifest(path)
	if err != nil {
		// The staged file is unusable; best-effort removal.
		_ = os.Remove(path)
		return nil, err
	}
	return m, nil
}

// stage copies the compressed body into a temp file in the cache directory
// and returns its path and size.
func (f *Fetcher) stage(body io.Reader, arch model.Architecture) (string, int64, error) {
	if err := os.MkdirAll(f.cacheDir, 0750); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	tmp, err := os.CreateTemp(f.cacheDir, fmt.Sprintf("Contents-%s-*.gz", arch))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	size, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	return tmp.Name(), size, nil
}

// Manifest is an open, decompressed Contents index backed by a downloaded
// temp file. It is a single-pass stream; the caller must Close it exactly
// once, on every exit path.
type Manifest struct {
	// file is the staged compressed download.
	file *os.File

	// gz decompresses the file on the fly.
	gz *gzip.Reader

	// keep disables temp-file removal on Close.
	keep bool
}

// openManifest opens the staged download and validates the gzip header.
func openManifest(path string) (*Manifest, error) {
	file, err := os.Open(path) //nolint:gosec // Path was created by this process
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: not a gzip stream: %v", ErrFetch, err)
	}

	return &Manifest{file: file, gz: gz}, nil
}

// Reader returns the decompressed text stream of the index.
// Exhaustion of the stream is the normal end-of-input.
func (m *Manifest) Reader() io.Reader {
	return m.gz
}

// Path returns the location of the downloaded compressed file.
func (m *Manifest) Path() string {
	return m.file.Name()
}

// Keep disables removal of the downloaded file on Close.
func (m *Manifest) Keep() {
	m.keep = true
}

// Close closes the decompression stream and the underlying file, then
// removes the downloaded temp file unless Keep was called.
//
// A removal failure is reported as a wrapped ErrCleanup so the CLI can give
// it a distinct exit code; close errors on the readers take precedence
// because they may indicate a truncated index.
func (m *Manifest) Close() error {
	gzErr := m.gz.Close()
	fileErr := m.file.Close()

	if gzErr != nil {
		return gzErr
	}
	if fileErr != nil {
		return fileErr
	}

	if m.keep {
		return nil
	}
	if err := os.Remove(m.file.Name()); err != nil {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	return nil
}
