package config

import (
	"slices"

	"imgbuild/internal/docker"
)

// Request merges img with the file defaults into a docker.BuildRequest.
// Scalars and lists on the image replace the defaults; build args are
// concatenated, defaults first.
func (f *File) Request(img Image) docker.BuildRequest {
	d := f.Defaults
	req := docker.BuildRequest{
		Image:         img.Name,
		ImagePrefix:   pick(img.ImagePrefix, d.ImagePrefix),
		Tag:           pick(img.Tag, d.Tag),
		Tags:          pickList(img.Tags, d.Tags),
		Cache:         pick(img.Cache, d.Cache),
		CacheFromTags: pickList(img.CacheFromTags, d.CacheFromTags),
		CacheToTags:   pickList(img.CacheToTags, d.CacheToTags),
		BuildArgs:     slices.Concat(d.BuildArgs, img.BuildArgs),
		Platforms:     pickList(img.Platforms, d.Platforms),
		DryRun:        f.DryRun,
	}
	switch {
	case img.Push != nil:
		req.Push = *img.Push
	case d.Push != nil:
		req.Push = *d.Push
	}
	return req
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func pickList(v, fallback []string) []string {
	if v != nil {
		return slices.Clone(v)
	}
	return slices.Clone(fallback)
}
