// Package contents implements the core of pkgstats: parsing lines of a
// Debian Contents index and aggregating per-package file counts.
//
// A Contents index maps installed file paths to the packages shipping them,
// one relation per line:
//
//	usr/bin/vim.basic                    editors/vim
//	usr/share/doc/zip/copyright          utils/zip,utils/zipcloak
//
// The package provides three pieces:
//   - ParseLine: converts one raw line into an Entry (never fails)
//   - Aggregator: accumulates per-package occurrence counts
//   - Aggregator.TopN: bounded-size selection of the most referenced packages
//
// Indexes are tens of megabytes decompressed with hundreds of thousands of
// lines, so everything here operates on a streaming, line-at-a-time basis and
// tolerates malformed lines instead of aborting a run.
package contents
