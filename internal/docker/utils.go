package docker

import (
	"regexp"
	"strings"
)

// ---- Redaction ----

const buildArgFlag = "--build-arg="

// RedactBuildArgs masks the values of build args whose key looks secret.
// The input slice is not modified.
func RedactBuildArgs(args []string) []string {
	// broaden secret heuristics
	sus := func(k string) bool {
		k = strings.ToUpper(k)
		return strings.Contains(k, "PASSWORD") ||
			strings.Contains(k, "TOKEN") ||
			strings.Contains(k, "SECRET") ||
			k == "DOCKER_AUTH_CONFIG" ||
			k == "AWS_SECRET_ACCESS_KEY" ||
			k == "GOOGLE_APPLICATION_CREDENTIALS" ||
			k == "KUBECONFIG"
	}
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		kv, ok := strings.CutPrefix(a, buildArgFlag)
		if !ok {
			continue
		}
		key, val, found := strings.Cut(kv, "=")
		if found && key != "" && val != "" && sus(key) {
			out[i] = buildArgFlag + key + "=REDACTED"
		}
	}
	return out
}

// ---- Tag validation ----

var tagAllowed = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,127}$`)

// ValidTag reports whether docker would accept tag. Args does not call it;
// build files are checked with it before any build starts.
func ValidTag(tag string) bool {
	return tagAllowed.MatchString(tag)
}
