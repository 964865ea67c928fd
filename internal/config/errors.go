package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors.
// These are package-level sentinel errors rather than instances created in
// Validate() so callers can use errors.Is() for programmatic handling while
// still getting human-readable messages.
var (
	// ErrEmptyMirror is returned when the mirror URL is empty.
	ErrEmptyMirror = errors.New("mirror URL cannot be empty")

	// ErrEmptySuite is returned when the distribution suite is empty.
	ErrEmptySuite = errors.New("suite cannot be empty")

	// ErrEmptyComponent is returned when the archive component is empty.
	ErrEmptyComponent = errors.New("component cannot be empty")

	// ErrInvalidTopN is returned when the requested result size is negative.
	// Zero is valid and yields an empty report.
	ErrInvalidTopN = errors.New("invalid top-N: must be non-negative")

	// ErrInvalidTimeout is returned when the download timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the counting worker count is outside
	// the accepted range.
	ErrInvalidWorkers = fmt.Errorf("invalid workers: must be between 1 and %d", MaxWorkers)

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
