package docker

import "strings"

// BuildContext is the trailing build context argument: the working directory.
const BuildContext = "."

// Args turns a request into the argument list for the docker CLI.
//
// Order is fixed: tags, build args, cache-from, cache-to, platform, push,
// context. Calling Args twice with the same request yields the same slice
// contents.
func Args(req BuildRequest) []string {
	tag := req.PrimaryTag()
	args := []string{"buildx", "build", "--tag=" + req.Ref(tag)}

	for _, t := range req.Tags {
		args = append(args, "--tag="+req.Ref(t))
	}

	for _, b := range req.BuildArgs {
		args = append(args, "--build-arg="+b)
	}

	if req.Cache != "" {
		key := NewCacheKey(req.ImagePrefix, req.Cache, req.Image)
		args = append(args, "--cache-from="+key.For(tag))
		for _, t := range req.CacheFromTags {
			args = append(args, "--cache-from="+key.For(t))
		}

		if req.pushing() {
			args = append(args, cacheTo(key.For(tag)))
			for _, t := range req.CacheToTags {
				args = append(args, cacheTo(key.For(t)))
			}
		}
	}

	if len(req.Platforms) > 0 {
		args = append(args, "--platform="+strings.Join(req.Platforms, ","))
	}

	if req.pushing() {
		args = append(args, "--push", "--provenance=false")
	}

	return append(args, BuildContext)
}
