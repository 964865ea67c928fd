// Package pipeline provides a framework for executing statistics run steps
// in sequence.
//
// The pipeline pattern is used to process one statistics run through its
// stages: fetching the Contents index from the mirror, counting file entries
// per package, and selecting the top-N result. Each stage is implemented as a
// Step that receives the current run state and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running downloads
//
// The counting stage supports optional sharded execution with concurrency
// control using errgroup.
package pipeline
