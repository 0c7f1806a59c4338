package docker

import (
	"errors"
	"strings"

	"imgbuild/internal/executil"
)

// TransientPatterns are stderr fragments that mark a buildx failure as
// transient. A new transient failure mode is handled by adding its
// fragment here.
var TransientPatterns = []string{
	"unexpected status: 400 Bad Request", // registry hiccup while exporting cache
	": no response",                      // dropped connection to the registry
	"error writing layer blob",           // interrupted layer upload
}

// Class is the outcome of classifying a failed build attempt.
type Class int

const (
	Fatal Class = iota
	Retryable
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// Classify reports whether err is a runner failure worth retrying. Only
// *executil.ExecError values whose captured stderr contains one of
// TransientPatterns are retryable.
func Classify(err error) Class {
	if _, ok := MatchedPattern(err); ok {
		return Retryable
	}
	return Fatal
}

// MatchedPattern returns the first entry of TransientPatterns found in the
// stderr of err.
func MatchedPattern(err error) (string, bool) {
	var execErr *executil.ExecError
	if !errors.As(err, &execErr) {
		return "", false
	}
	for _, p := range TransientPatterns {
		if strings.Contains(execErr.Stderr, p) {
			return p, true
		}
	}
	return "", false
}
