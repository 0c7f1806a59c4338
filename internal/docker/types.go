// internal/docker/types.go
package docker

// DefaultTag is used when a BuildRequest leaves Tag empty.
const DefaultTag = "latest"

// BuildRequest describes one `docker buildx build` call.
// Optional slices may be nil; empty values simply suppress their flags.
type BuildRequest struct {
	Image       string // e.g. "foo" or "tools/foo"
	ImagePrefix string // registry/org, e.g. "ghcr.io/org"
	Tag         string // primary tag, default "latest"
	Tags        []string

	Cache         string   // cache reference name, e.g. "buildcache" or "ghcr.io/org/cache"
	CacheFromTags []string // extra cache-read tag suffixes
	CacheToTags   []string // extra cache-write tag suffixes

	BuildArgs []string // raw KEY=VALUE, passed verbatim
	Platforms []string // e.g. ["linux/amd64","linux/arm64"]

	DryRun bool // build locally, never push or write cache
	Push   bool
}

// PrimaryTag returns Tag, or DefaultTag when unset.
func (r BuildRequest) PrimaryTag() string {
	if r.Tag == "" {
		return DefaultTag
	}
	return r.Tag
}

// Ref returns the fully qualified image reference for tag.
func (r BuildRequest) Ref(tag string) string {
	return r.ImagePrefix + "/" + r.Image + ":" + tag
}

// Refs returns every reference the build tags, primary first.
func (r BuildRequest) Refs() []string {
	refs := make([]string, 0, 1+len(r.Tags))
	refs = append(refs, r.Ref(r.PrimaryTag()))
	for _, t := range r.Tags {
		refs = append(refs, r.Ref(t))
	}
	return refs
}

// pushing reports whether the build publishes images and cache.
func (r BuildRequest) pushing() bool {
	return !r.DryRun && r.Push
}
