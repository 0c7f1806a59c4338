package docker

import "strings"

// CacheKey is the registry location of the layer cache for one image.
// Keys for individual tags share the same base and differ only in the
// trailing tag: <base>-<tag>.
type CacheKey struct {
	base string
}

// NewCacheKey derives the cache base for image under cache.
//
// A cache reference whose first path segment contains '.' or ':' names a
// registry host and is used as is; any other reference is placed under
// prefix.
func NewCacheKey(prefix, cache, image string) CacheKey {
	cachePrefix := prefix + "/"
	if first, _, _ := strings.Cut(cache, "/"); strings.ContainsAny(first, ".:") {
		cachePrefix = ""
	}
	return CacheKey{base: cachePrefix + cache + ":" + strings.ReplaceAll(image, "/", "-")}
}

// For returns the full cache reference for tag.
func (k CacheKey) For(tag string) string {
	return k.base + "-" + tag
}

// cacheTo formats a registry cache export directive.
func cacheTo(ref string) string {
	return "--cache-to=type=registry,ref=" + ref + ",mode=max"
}
