package model

import (
	"time"
)

// PackageCount is one entry of a top-N result: a package identifier and the
// number of files associated with it in the Contents index.
//
// The package identifier may be the empty string. The Contents format
// occasionally yields lines without a package column, and the parser preserves
// that as an empty-string identifier rather than dropping the line, so the
// empty identifier can legitimately accumulate a count and appear in results.
type PackageCount struct {
	// Package is the package identifier, possibly qualified with a section
	// prefix (e.g. "utils/coreutils"), exactly as it appears in the index.
	Package string `json:"package"`

	// Count is the number of file entries referencing the package.
	Count int `json:"count"`
}

// Report is the result of one statistics run.
// It contains the run parameters, aggregation totals, and the selected
// top-N packages ordered by count descending.
//
// Design decision: We use a single flat struct rather than nested sub-structs
// to simplify JSON serialization and database storage, mirroring how the run
// parameters flow in from the CLI as one configuration unit.
type Report struct {
	// Architecture is the Debian architecture the Contents index was
	// fetched for.
	Architecture Architecture `json:"architecture"`

	// Mirror is the base URL of the package mirror used for the fetch.
	Mirror string `json:"mirror"`

	// Suite is the distribution suite (e.g. "stable").
	Suite string `json:"suite"`

	// Component is the archive component (e.g. "main").
	Component string `json:"component"`

	// DateGenerated is the timestamp when the run completed aggregation.
	DateGenerated time.Time `json:"date_generated"`

	// Duration is how long the fetch plus aggregation took.
	Duration time.Duration `json:"duration"`

	// LinesProcessed is the total number of manifest lines consumed.
	LinesProcessed int `json:"lines_processed"`

	// DistinctPackages is the number of distinct package identifiers seen.
	DistinctPackages int `json:"distinct_packages"`

	// TopN is the requested result size. len(Packages) may be smaller when
	// the index contains fewer distinct packages.
	TopN int `json:"top_n"`

	// Packages holds the top-N packages ordered by count descending,
	// ties broken by package identifier ascending.
	Packages []PackageCount `json:"packages"`

	// TimedOut is true if the run was cancelled before completing.
	TimedOut bool `json:"timed_out,omitempty"`

	// ErrorMessage records a step failure when the pipeline was configured
	// to continue past errors. Empty on success.
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewReport creates a Report for the given run parameters with the
// generation timestamp set to now.
func NewReport(arch Architecture, mirror, suite, component string) *Report {
	return &Report{
		Architecture:  arch,
		Mirror:        mirror,
		Suite:         suite,
		Component:     component,
		DateGenerated: time.Now(),
		Packages:      []PackageCount{},
	}
}
