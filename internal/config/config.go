// Package config loads imgbuild build files.
//
// A build file is YAML with CI variables (${SHORT_SHA}, ${SHA}, ${REF_NAME},
// ${COMMIT_TAG}, ${REGISTRY_IMAGE}) and environment variables expanded before
// parsing. $$ stands for a literal dollar sign:
//
//	defaults:
//	  imagePrefix: registry.example.com/org
//	  tag: ${SHORT_SHA}
//	  cache: buildcache
//	  push: true
//	images:
//	  - name: api
//	    context: ./api
//	    tags: [latest]
//	retry:
//	  delay: 5s
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"imgbuild/internal/runtime"
)

const (
	// DefaultFileName is looked up in the working directory first.
	DefaultFileName = "imgbuild.yaml"
	appName         = "imgbuild"
)

// File is a parsed build file.
type File struct {
	Defaults Defaults `yaml:"defaults"`
	Images   []Image  `yaml:"images"`
	Retry    Retry    `yaml:"retry"`
	DryRun   bool     `yaml:"dryRun"`
}

// Defaults apply to every image unless the image overrides them.
type Defaults struct {
	ImagePrefix   string   `yaml:"imagePrefix"`
	Tag           string   `yaml:"tag"`
	Tags          []string `yaml:"tags"`
	Cache         string   `yaml:"cache"`
	CacheFromTags []string `yaml:"cacheFromTags"`
	CacheToTags   []string `yaml:"cacheToTags"`
	BuildArgs     []string `yaml:"buildArgs"`
	Platforms     []string `yaml:"platforms"`
	Push          *bool    `yaml:"push"`
}

// Image is one image to build.
type Image struct {
	Name          string   `yaml:"name"`
	Context       string   `yaml:"context"`
	ImagePrefix   string   `yaml:"imagePrefix"`
	Tag           string   `yaml:"tag"`
	Tags          []string `yaml:"tags"`
	Cache         string   `yaml:"cache"`
	CacheFromTags []string `yaml:"cacheFromTags"`
	CacheToTags   []string `yaml:"cacheToTags"`
	BuildArgs     []string `yaml:"buildArgs"`
	Platforms     []string `yaml:"platforms"`
	Push          *bool    `yaml:"push"`
}

// Retry holds raw retry settings; see Policy.
type Retry struct {
	Backoff    string `yaml:"backoff"`
	Delay      string `yaml:"delay"`
	MaxDelay   string `yaml:"maxDelay"`
	MaxRetries *int   `yaml:"maxRetries"`
}

// Load reads the build file at path, expands variables from rc and the
// environment, and fills defaults. The result is not validated.
func Load(path string, rc runtime.Context) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read build file: %w", err)
	}
	f, err := Parse(data, rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse is Load for in-memory content.
func Parse(data []byte, rc runtime.Context) (*File, error) {
	expanded := os.Expand(string(data), func(name string) string {
		if name == "$" {
			return "$"
		}
		return rc.Lookup(name)
	})

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal build file: %w", err)
	}
	if f.Defaults.ImagePrefix == "" {
		f.Defaults.ImagePrefix = rc.RegistryImage
	}
	return &f, nil
}

// Find returns the build file to use when none was given: DefaultFileName
// in the working directory, then imgbuild/imgbuild.yaml under the XDG config
// directories.
func Find() (string, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, nil
	}
	path, err := xdg.SearchConfigFile(filepath.Join(appName, DefaultFileName))
	if err != nil {
		return "", fmt.Errorf("%w: looked for ./%s and $XDG_CONFIG_HOME/%s/%s", ErrNotFound, DefaultFileName, appName, DefaultFileName)
	}
	return path, nil
}

// Select returns the images named in only, in build file order. An empty
// selection returns every image.
func (f *File) Select(only []string) ([]Image, error) {
	if len(only) == 0 {
		return f.Images, nil
	}
	want := make(map[string]bool, len(only))
	for _, name := range only {
		want[name] = false
	}
	var out []Image
	for _, img := range f.Images {
		if _, ok := want[img.Name]; ok {
			want[img.Name] = true
			out = append(out, img)
		}
	}
	for _, name := range only {
		if !want[name] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownImage, name)
		}
	}
	return out, nil
}
