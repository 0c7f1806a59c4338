package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment overrides, applied after the build file is parsed.
const (
	EnvDryRun      = "IMGBUILD_DRY_RUN"
	EnvPush        = "IMGBUILD_PUSH"
	EnvImagePrefix = "IMGBUILD_IMAGE_PREFIX"
)

// ApplyEnv overrides file settings from IMGBUILD_* variables. IMGBUILD_PUSH
// forces push on or off for every image.
func (f *File) ApplyEnv() error {
	if v, ok, err := envBool(EnvDryRun); err != nil {
		return err
	} else if ok {
		f.DryRun = v
	}

	if v, ok, err := envBool(EnvPush); err != nil {
		return err
	} else if ok {
		f.Defaults.Push = &v
		for i := range f.Images {
			f.Images[i].Push = nil
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvImagePrefix)); v != "" {
		f.Defaults.ImagePrefix = v
	}
	return nil
}

func envBool(key string) (value, ok bool, err error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, false, nil
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%w: %s: invalid boolean %q", ErrInvalidEnv, key, raw)
	}
	return value, true, nil
}
