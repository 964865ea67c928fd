package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// DefaultMessageLimit is the number of records with the same message that
// pass through before further repeats are suppressed.
const DefaultMessageLimit = 10

// suppressedKey is the attribute added to the final record of a suppressed
// series, carrying the number of dropped repeats.
const suppressedKey = "suppressed_repeats"

// ThrottleHandler wraps an slog.Handler and limits how often the same
// message is emitted. The first DefaultMessageLimit records per message pass
// through unchanged; later repeats are counted and dropped. When Flush is
// called (or a different message arrives at the limit boundary for the same
// key), one summary record reports the drop count.
//
// Design decision: We throttle on the record message, not the full attribute
// set. Per-line warnings share a message but differ in attributes (line
// number, offending text), and the message is what makes them floods.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites keep logging unconditionally; policy lives in one place
type ThrottleHandler struct {
	// handler is the underlying slog handler that receives surviving records.
	handler slog.Handler

	// limit is the per-message pass-through budget.
	limit int

	// mu guards seen. Counting workers may log concurrently.
	mu sync.Mutex

	// seen maps message text to the number of records observed.
	seen map[string]int
}

// NewThrottleHandler creates a ThrottleHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used. A non-positive limit
// falls back to DefaultMessageLimit.
func NewThrottleHandler(handler slog.Handler, limit int) *ThrottleHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return &ThrottleHandler{
		handler: handler,
		limit:   limit,
		seen:    make(map[string]int),
	}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *ThrottleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle passes the record through until its message has reached the limit,
// then drops it. The record at exactly the limit is annotated so readers know
// suppression starts here.
func (h *ThrottleHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	h.seen[r.Message]++
	n := h.seen[r.Message]
	h.mu.Unlock()

	switch {
	case n < h.limit:
		return h.handler.Handle(ctx, r)
	case n == h.limit:
		annotated := r.Clone()
		annotated.AddAttrs(slog.String("note", "further repeats of this message are suppressed"))
		return h.handler.Handle(ctx, annotated)
	default:
		return nil
	}
}

// WithAttrs returns a new handler with the given attributes added.
// The suppression counters are shared with the parent so a message stays
// throttled across derived loggers.
func (h *ThrottleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedThrottleHandler{
		root:    h,
		handler: h.handler.WithAttrs(attrs),
	}
}

// WithGroup returns a new handler with the given group name.
func (h *ThrottleHandler) WithGroup(name string) slog.Handler {
	return &derivedThrottleHandler{
		root:    h,
		handler: h.handler.WithGroup(name),
	}
}

// Flush emits one summary record per suppressed message to the underlying
// handler and resets the counters. Call it at the end of a run so drop
// counts are reported.
func (h *ThrottleHandler) Flush(ctx context.Context) error {
	h.mu.Lock()
	suppressed := make(map[string]int)
	for msg, n := range h.seen {
		if n > h.limit {
			suppressed[msg] = n - h.limit
		}
	}
	h.seen = make(map[string]int)
	h.mu.Unlock()

	for msg, dropped := range suppressed {
		r := slog.Record{Level: slog.LevelWarn, Message: msg}
		r.AddAttrs(slog.Int(suppressedKey, dropped))
		if err := h.handler.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// derivedThrottleHandler is produced by WithAttrs/WithGroup. It forwards to
// its own underlying handler but consults the root's shared counters.
type derivedThrottleHandler struct {
	root    *ThrottleHandler
	handler slog.Handler
}

func (d *derivedThrottleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.handler.Enabled(ctx, level)
}

func (d *derivedThrottleHandler) Handle(ctx context.Context, r slog.Record) error {
	d.root.mu.Lock()
	d.root.seen[r.Message]++
	n := d.root.seen[r.Message]
	limit := d.root.limit
	d.root.mu.Unlock()

	switch {
	case n < limit:
		return d.handler.Handle(ctx, r)
	case n == limit:
		annotated := r.Clone()
		annotated.AddAttrs(slog.String("note", "further repeats of this message are suppressed"))
		return d.handler.Handle(ctx, annotated)
	default:
		return nil
	}
}

func (d *derivedThrottleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedThrottleHandler{root: d.root, handler: d.handler.WithAttrs(attrs)}
}

func (d *derivedThrottleHandler) WithGroup(name string) slog.Handler {
	return &derivedThrottleHandler{root: d.root, handler: d.handler.WithGroup(name)}
}

// NewThrottledLogger creates a *slog.Logger whose output is flood-controlled.
//
// Parameters:
//   - w: the io.Writer to write log output to (typically os.Stderr)
//   - verbose: if true, sets log level to Debug; otherwise Warn
//
// The returned logger can be used with slog.SetDefault() or passed to
// components that accept *slog.Logger.
func NewThrottledLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewThrottleHandler(textHandler, DefaultMessageLimit))
}
