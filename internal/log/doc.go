// Package log provides flood-controlled logging for pkgstats, built on top
// of the standard slog package.
//
// A Contents index has hundreds of thousands of lines, and a systematically
// malformed index would otherwise emit one warning per line. The
// ThrottleHandler suppresses repeats of the same message once a per-message
// limit is reached and reports how many records were dropped, so anomalies
// stay visible without drowning the terminal.
//
// # Usage
//
//	logger := log.NewThrottledLogger(os.Stderr, verbose)
//	logger.Warn("skipping malformed line", "line", 4711)
//
//	// Or wrap an existing handler:
//	handler := log.NewThrottleHandler(slog.NewTextHandler(os.Stderr, nil), 10)
//	slog.SetDefault(slog.New(handler))
package log
