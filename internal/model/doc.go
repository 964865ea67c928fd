// Package model defines the core data structures used throughout pkgstats.
//
// This package contains the following main types:
//   - Architecture: A validated Debian architecture identifier
//   - PackageCount: A package identifier paired with its file count
//   - Report: The result of one statistics run over a Contents index
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (contents, pipeline, report, database) need
// to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
