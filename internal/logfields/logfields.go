package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPhase      = "phase"
	KeyRecipe     = "recipe"
	KeyReference  = "reference"
	KeyPackageID  = "package_id"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyPattern    = "pattern"
	KeyDst        = "dst"
	KeyCount      = "count"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyBuildType  = "build_type"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }
func Phase(p string) slog.Attr { return slog.String(KeyPhase, p) }
func Recipe(name string) slog.Attr { return slog.String(KeyRecipe, name) }
func Reference(ref string) slog.Attr { return slog.String(KeyReference, ref) }
func PackageID(id string) slog.Attr { return slog.String(KeyPackageID, id) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Pattern(p string) slog.Attr { return slog.String(KeyPattern, p) }
func Dst(d string) slog.Attr { return slog.String(KeyDst, d) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func Command(c string) slog.Attr { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr { return slog.Int(KeyExitCode, code) }
func BuildType(bt string) slog.Attr { return slog.String(KeyBuildType, bt) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
