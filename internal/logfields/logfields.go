package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyComponent = "component"
	KeySlug      = "slug"
	KeyLocale    = "locale"
	KeyPage      = "page"
	KeyPath      = "path"
	KeyStatus    = "status"
	KeyError     = "error"
)

func Component(c string) slog.Attr { return slog.String(KeyComponent, c) }
func Slug(s string) slog.Attr      { return slog.String(KeySlug, s) }
func Locale(l string) slog.Attr    { return slog.String(KeyLocale, l) }
func Page(p int) slog.Attr         { return slog.Int(KeyPage, p) }
func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr    { return slog.Int(KeyStatus, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
