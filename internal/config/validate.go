package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"imgbuild/internal/docker"
	"imgbuild/internal/retry"
)

// imageName follows the docker reference path grammar: lowercase components
// separated by '/'.
var imageName = regexp.MustCompile(`^[a-z0-9]+(?:(?:[._]|__|-+)[a-z0-9]+)*(?:/[a-z0-9]+(?:(?:[._]|__|-+)[a-z0-9]+)*)*$`)

// Validate checks that every image can be turned into a build request.
func (f *File) Validate() error {
	if len(f.Images) == 0 {
		return ErrNoImages
	}
	seen := make(map[string]bool, len(f.Images))
	for i, img := range f.Images {
		if img.Name == "" {
			return fmt.Errorf("%w: images[%d]: name is required", ErrInvalidImage, i)
		}
		if !imageName.MatchString(img.Name) {
			return fmt.Errorf("%w: %q: name must be lowercase path components", ErrInvalidImage, img.Name)
		}
		if seen[img.Name] {
			return fmt.Errorf("%w: %q: declared twice", ErrInvalidImage, img.Name)
		}
		seen[img.Name] = true

		req := f.Request(img)
		for _, tag := range append([]string{req.PrimaryTag()}, req.Tags...) {
			if !docker.ValidTag(tag) {
				return fmt.Errorf("%w: %q: invalid tag %q", ErrInvalidImage, img.Name, tag)
			}
		}
		if req.ImagePrefix == "" {
			return fmt.Errorf("%w: %q: imagePrefix is required (set it in the build file, %s or CI_REGISTRY_IMAGE)", ErrInvalidImage, img.Name, EnvImagePrefix)
		}
		// KEY alone is valid: docker reads the value from its environment.
		for _, arg := range req.BuildArgs {
			if strings.TrimSpace(arg) == "" {
				return fmt.Errorf("%w: %q: empty build arg", ErrInvalidImage, img.Name)
			}
		}
	}
	_, err := f.Retry.Policy()
	return err
}

// Policy converts the retry settings. Missing values take the defaults and
// maxRetries is clamped so a build never runs more than three attempts.
func (r Retry) Policy() (retry.Policy, error) {
	mode := retry.BackoffFixed
	if strings.TrimSpace(r.Backoff) != "" {
		mode = retry.NormalizeBackoff(r.Backoff)
		if mode == "" {
			return retry.Policy{}, fmt.Errorf("%w: unknown backoff %q", ErrInvalidRetry, r.Backoff)
		}
	}
	initial, err := parseDelay("delay", r.Delay)
	if err != nil {
		return retry.Policy{}, err
	}
	maxDelay, err := parseDelay("maxDelay", r.MaxDelay)
	if err != nil {
		return retry.Policy{}, err
	}
	maxRetries := -1
	if r.MaxRetries != nil {
		if *r.MaxRetries < 0 {
			return retry.Policy{}, fmt.Errorf("%w: maxRetries must not be negative", ErrInvalidRetry)
		}
		maxRetries = *r.MaxRetries
	}
	p := retry.NewPolicy(mode, initial, maxDelay, maxRetries)
	if err := p.Validate(); err != nil {
		return retry.Policy{}, fmt.Errorf("%w: %w", ErrInvalidRetry, err)
	}
	return p, nil
}

func parseDelay(field, raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s: invalid duration %q", ErrInvalidRetry, field, raw)
	}
	return d, nil
}
