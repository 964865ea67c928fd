package pipeline

import "errors"

// Sentinel errors for pipeline step failures. Callers should test with
// errors.Is because the steps wrap these with contextual detail.
var (
	// ErrNoManifest is returned by the count step when no Contents index
	// has been fetched, i.e. the fetch step did not run or failed.
	ErrNoManifest = errors.New("pipeline: no Contents index to count")
)
