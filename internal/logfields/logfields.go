package logfields

import (
	"log/slog"
	"strings"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyImage      = "image"
	KeyTag        = "tag"
	KeyPlatforms  = "platforms"
	KeyAttempt    = "attempt"
	KeyMaxAttempt = "max_attempts"
	KeyPattern    = "pattern"
	KeyDurationMS = "duration_ms"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyPath       = "path"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Image(name string) slog.Attr     { return slog.String(KeyImage, name) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func MaxAttempts(n int) slog.Attr     { return slog.Int(KeyMaxAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }

// Pattern names the transient failure text a retry was triggered by.
func Pattern(p string) slog.Attr { return slog.String(KeyPattern, p) }

// Platforms renders the platform list the same way buildx receives it.
func Platforms(p []string) slog.Attr { return slog.String(KeyPlatforms, strings.Join(p, ",")) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
