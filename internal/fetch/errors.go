package fetch

import "errors"

// Fetch errors.
// These sentinels let the CLI map failures to distinct exit codes with
// errors.Is() while keeping the wrapped detail for the message.
var (
	// ErrNotFound is returned when the mirror has no Contents index for the
	// requested architecture (HTTP 404).
	ErrNotFound = errors.New("no Contents index for architecture at mirror")

	// ErrFetch is returned for any other download failure: DNS, connection,
	// timeout, or an unexpected HTTP status.
	ErrFetch = errors.New("failed to download Contents index")

	// ErrCleanup is returned when the downloaded temp file could not be
	// removed after the run. The statistics themselves are unaffected, but
	// the failure gets its own exit code because it leaves artifacts behind.
	ErrCleanup = errors.New("failed to remove downloaded Contents file")
)
