package config

import "errors"

var (
	// ErrNotFound is returned by Find when no build file exists.
	ErrNotFound = errors.New("build file not found")

	// ErrNoImages is returned when a build file declares no images.
	ErrNoImages = errors.New("no images declared")

	// ErrInvalidImage is returned for an image entry that cannot be built.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnknownImage is returned when a selected image is not declared.
	ErrUnknownImage = errors.New("unknown image")

	// ErrInvalidRetry is returned for unusable retry settings.
	ErrInvalidRetry = errors.New("invalid retry settings")

	// ErrInvalidEnv is returned for an IMGBUILD_* override that cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment override")
)
