// Package version implements versioning schemes for base image tags.
package version

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrUnknownRelease is returned when a release identifier is not in the
// scheme's table.
var ErrUnknownRelease = errors.New("unknown release")

// Scheme is the versioning API a tag scheme exposes.
type Scheme interface {
	ID() string
	Parse(v string) (Release, error)
	IsValid(v string) bool
	Compare(a, b string) int
	Equals(a, b string) bool
	IsGreaterThan(a, b string) bool
	IsCompatible(v, r string) bool
	Sort(vs []string)
}

// Release is a parsed release: numeric components, most significant first.
type Release []int

func (r Release) String() string {
	parts := make([]string, len(r))
	for i, n := range r {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// compareReleases orders two releases component by component. On a common
// prefix the shorter release is the greater one (2.1 > 2.1.1).
func compareReleases(a, b Release) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		if i >= len(a) {
			return 1
		}
		if i >= len(b) {
			return -1
		}
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return 0
}

// table is a Scheme backed by a fixed identifier→release mapping.
type table struct {
	id       string
	releases map[string]Release
}

func (t table) ID() string { return t.id }

func (t table) Parse(v string) (Release, error) {
	r, ok := t.releases[v]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", t.id, v, ErrUnknownRelease)
	}
	return slices.Clone(r), nil
}

func (t table) IsValid(v string) bool {
	_, ok := t.releases[v]
	return ok
}

// Compare returns a negative number when a < b, zero when equal and a
// positive number when a > b. Unknown identifiers on either side compare as 1.
func (t table) Compare(a, b string) int {
	ra, okA := t.releases[a]
	rb, okB := t.releases[b]
	if !okA || !okB {
		return 1
	}
	return compareReleases(ra, rb)
}

func (t table) Equals(a, b string) bool        { return t.Compare(a, b) == 0 }
func (t table) IsGreaterThan(a, b string) bool { return t.Compare(a, b) > 0 }

// IsCompatible reports whether both identifiers are known releases.
func (t table) IsCompatible(v, r string) bool {
	return t.IsValid(v) && t.IsValid(r)
}

// Sort orders vs ascending in place. Sorting is stable so unknown
// identifiers keep their relative order.
func (t table) Sort(vs []string) {
	slices.SortStableFunc(vs, t.Compare)
}
