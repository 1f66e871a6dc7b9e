package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyComponent  = "component"
	KeyVersion    = "version"
	KeyModule     = "module"
	KeySource     = "source"
	KeyRef        = "ref"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyCount      = "count"
	KeyProvider   = "provider"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Component(c string) slog.Attr    { return slog.String(KeyComponent, c) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Module(m string) slog.Attr       { return slog.String(KeyModule, m) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
