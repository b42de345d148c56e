package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage     = "stage"
	KeyTag       = "tag"
	KeyAttribute = "attribute"
	KeyKind      = "kind"
	KeyOffset    = "offset"
	KeyPath      = "path"
	KeyBytesIn   = "bytes_in"
	KeyBytesOut  = "bytes_out"
	KeyWorker    = "worker"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Tag(name string) slog.Attr       { return slog.String(KeyTag, name) }
func Attribute(name string) slog.Attr { return slog.String(KeyAttribute, name) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Offset(o int) slog.Attr          { return slog.Int(KeyOffset, o) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func BytesIn(n int) slog.Attr         { return slog.Int(KeyBytesIn, n) }
func BytesOut(n int) slog.Attr        { return slog.Int(KeyBytesOut, n) }
func Worker(id int) slog.Attr         { return slog.Int(KeyWorker, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
