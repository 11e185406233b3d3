package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPipe        = "pipe"
	KeyProcessor   = "processor"
	KeyWrapper     = "wrapper"
	KeyStep        = "step"
	KeyDestination = "destination"
	KeyPath        = "path"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
	KeyChanges     = "metadata_changes"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Pipe(name string) slog.Attr         { return slog.String(KeyPipe, name) }
func Processor(name string) slog.Attr    { return slog.String(KeyProcessor, name) }
func Wrapper(name string) slog.Attr      { return slog.String(KeyWrapper, name) }
func Step(i int) slog.Attr               { return slog.Int(KeyStep, i) }
func Destination(d string) slog.Attr     { return slog.String(KeyDestination, d) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Changes(m map[string]any) slog.Attr { return slog.Any(KeyChanges, m) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
