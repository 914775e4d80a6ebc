package logfields

import "log/slog"

// Canonical log field names shared by every package.
const (
	KeyRunID       = "run_id"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeySourceType  = "source_type"
	KeyCatalogName = "catalog_name"
	KeyKind        = "kind"
	KeyCount       = "count"
	KeyURL         = "url"
	KeyStatus      = "status"
	KeyProject     = "project"
	KeyRepo        = "repository"
	KeyError       = "error"
)

func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func SourceType(t string) slog.Attr     { return slog.String(KeySourceType, t) }
func CatalogName(name string) slog.Attr { return slog.String(KeyCatalogName, name) }
func Kind(k string) slog.Attr           { return slog.String(KeyKind, k) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func Project(p string) slog.Attr        { return slog.String(KeyProject, p) }
func Repository(r string) slog.Attr     { return slog.String(KeyRepo, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
