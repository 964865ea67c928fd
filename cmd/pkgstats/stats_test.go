package main

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkgstats/pkgstats/internal/config"
	"github.com/pkgstats/pkgstats/internal/fetch"
	"github.com/pkgstats/pkgstats/internal/model"
)

// TestNewStatsCmd tests the stats command creation.
func TestNewStatsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewStatsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "stats <architecture>" {
			t.Errorf("expected use 'stats <architecture>', got %q", cmd.Use)
		}
	})

	t.Run("lists accepted architectures in help", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(cmd.Long, "amd64") || !strings.Contains(cmd.Long, "mips64el") {
			t.Error("expected architecture enumeration in long help")
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"top", "mirror", "suite", "component", "timeout", "workers", "keep", "config", "json", "markdown", "output", "no-save", "cache-dir"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})
}

// statsConfigResult bundles the buildStatsConfig results for assertions.
type statsConfigResult struct {
	cfg      *config.Config
	cacheDir string
}

// parseStatsFlags applies args to a fresh stats command and builds the config.
func parseStatsFlags(t *testing.T, args ...string) (*statsConfigResult, error) {
	t.Helper()

	c := NewStatsCmd()
	if err := c.Flags().Parse(args[1:]); err != nil {
		t.Fatalf("flag parse: %v", err)
	}
	cfg, cacheDir, err := buildStatsConfig(c, []string{args[0]})
	return &statsConfigResult{cfg: cfg, cacheDir: cacheDir}, err
}

// TestBuildStatsConfig tests flag and config-file handling.
func TestBuildStatsConfig(t *testing.T) {
	t.Parallel()

	t.Run("rejects unknown architecture", func(t *testing.T) {
		t.Parallel()

		_, err := parseStatsFlags(t, "sparc")
		if !errors.Is(err, model.ErrInvalidArchitecture) {
			t.Fatalf("expected ErrInvalidArchitecture, got %v", err)
		}
		if !strings.Contains(err.Error(), "amd64") {
			t.Errorf("expected error to enumerate accepted set, got %v", err)
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		h, err := parseStatsFlags(t, "amd64")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.cfg.Architecture != "amd64" {
			t.Errorf("architecture = %q, want amd64", h.cfg.Architecture)
		}
		if h.cfg.TopN != 10 {
			t.Errorf("TopN = %d, want 10", h.cfg.TopN)
		}
		if !h.cfg.SaveToDB {
			t.Error("expected SaveToDB by default")
		}
		if h.cacheDir == "" {
			t.Error("expected non-empty cache dir")
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()

		h, err := parseStatsFlags(t, "arm64",
			"-n", "25", "--mirror", "http://mirror.example/debian",
			"--suite", "testing", "-w", "4", "--no-save", "-t", "90s")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.cfg.TopN != 25 {
			t.Errorf("TopN = %d, want 25", h.cfg.TopN)
		}
		if h.cfg.Mirror != "http://mirror.example/debian" {
			t.Errorf("Mirror = %q", h.cfg.Mirror)
		}
		if h.cfg.Suite != "testing" {
			t.Errorf("Suite = %q, want testing", h.cfg.Suite)
		}
		if h.cfg.Workers != 4 {
			t.Errorf("Workers = %d, want 4", h.cfg.Workers)
		}
		if h.cfg.Timeout != 90*time.Second {
			t.Errorf("Timeout = %s, want 90s", h.cfg.Timeout)
		}
		if h.cfg.SaveToDB {
			t.Error("expected SaveToDB disabled by --no-save")
		}
	})

	t.Run("config file applies below flags", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "pkgstats.yaml")
		file := "mirror: http://file.example/debian\ntop: 5\nworkers: 8\n"
		if err := os.WriteFile(path, []byte(file), 0600); err != nil {
			t.Fatal(err)
		}

		h, err := parseStatsFlags(t, "amd64", "-c", path, "-n", "3")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.cfg.Mirror != "http://file.example/debian" {
			t.Errorf("Mirror = %q, want file value", h.cfg.Mirror)
		}
		if h.cfg.Workers != 8 {
			t.Errorf("Workers = %d, want file value 8", h.cfg.Workers)
		}
		if h.cfg.TopN != 3 {
			t.Errorf("TopN = %d, want explicit flag value 3", h.cfg.TopN)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := parseStatsFlags(t, "amd64", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Fatalf("expected not-found error, got %v", err)
		}
	})
}

// newStatsMirror serves a gzip Contents index for every request.
func newStatsMirror(t *testing.T, body string) *httptest.Server {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	payload := buf.Bytes()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

// TestStatsEndToEnd runs the stats command against a local mirror.
func TestStatsEndToEnd(t *testing.T) {
	t.Parallel()

	t.Run("prints the ranked list", func(t *testing.T) {
		t.Parallel()

		server := newStatsMirror(t, "usr/bin/a util-a,util-b\nusr/bin/b util-a\n")

		var out, errOut bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"stats", "amd64",
			"--mirror", server.URL,
			"--no-save",
			"--cache-dir", t.TempDir(),
			"-n", "2",
		})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v (stderr: %s)", err, errOut.String())
		}

		want := fmt.Sprintf("%4d. %-50s\t%d", 1, "util-a", 2)
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
		if !strings.Contains(out.String(), "util-b") {
			t.Errorf("output missing second package:\n%s", out.String())
		}
	})

	t.Run("missing index maps to a fetch exit code", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		t.Cleanup(server.Close)

		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"stats", "s390x",
			"--mirror", server.URL,
			"--no-save",
			"--cache-dir", t.TempDir(),
		})

		err := cmd.Execute()
		if !errors.Is(err, fetch.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if exitCode(err) != exitCodeFetch {
			t.Errorf("exitCode = %d, want %d", exitCode(err), exitCodeFetch)
		}
	})

	t.Run("writes report to a file", func(t *testing.T) {
		t.Parallel()

		server := newStatsMirror(t, "usr/bin/a util-a\n")
		path := filepath.Join(t.TempDir(), "reports", "out.json")

		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"stats", "amd64",
			"--mirror", server.URL,
			"--no-save",
			"--cache-dir", t.TempDir(),
			"--json",
			"-o", path,
		})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}
		if !strings.Contains(string(content), `"util-a"`) {
			t.Errorf("report file missing package: %s", content)
		}
	})
}
