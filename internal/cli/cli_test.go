package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgbuild/internal/config"
	"imgbuild/internal/docker"
	"imgbuild/internal/executil"
)

const buildFile = `
defaults:
  imagePrefix: registry.example.com/org
  tag: ${SHORT_SHA}
  cache: buildcache
  push: true
images:
  - name: api
    context: ./api
  - name: worker
    tags: [latest]
`

type call struct {
	dir  string
	args []string
}

type harness struct {
	mu     sync.Mutex
	calls  []call
	errs   map[string][]error // per image, consumed in order
	sleeps []time.Duration
	stdout bytes.Buffer
	stderr bytes.Buffer
	exited []int
}

type harnessRunner struct {
	h   *harness
	dir string
}

func (r harnessRunner) Run(_ context.Context, args ...string) error {
	r.h.mu.Lock()
	defer r.h.mu.Unlock()
	r.h.calls = append(r.h.calls, call{dir: r.dir, args: args})
	image := imageOf(args)
	if errs := r.h.errs[image]; len(errs) > 0 {
		r.h.errs[image] = errs[1:]
		return errs[0]
	}
	return nil
}

// imageOf extracts the image name from the primary --tag argument.
func imageOf(args []string) string {
	for _, a := range args {
		if ref, ok := strings.CutPrefix(a, "--tag=registry.example.com/org/"); ok {
			name, _, _ := strings.Cut(ref, ":")
			return name
		}
	}
	return ""
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("GITLAB_CI", "true")
	t.Setenv("CI_COMMIT_SHA", "0123456789abcdef0123456789abcdef01234567")
	t.Setenv("CI_COMMIT_SHORT_SHA", "01234567")
	t.Setenv("CI_COMMIT_REF_NAME", "main")
	t.Setenv("CI_REGISTRY_IMAGE", "")
	t.Setenv(config.EnvDryRun, "")
	t.Setenv(config.EnvPush, "")
	t.Setenv(config.EnvImagePrefix, "")
	return &harness{errs: map[string][]error{}}
}

func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()
	e := &env{
		stdout: &h.stdout,
		stderr: &h.stderr,
		exit:   func(code int) { h.exited = append(h.exited, code) },
		runner: func(_ *Globals, dir string) docker.Runner { return harnessRunner{h: h, dir: dir} },
		sleep: func(_ context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
	}
	return run(context.Background(), args, e)
}

func writeBuildFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imgbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execErr(code int, stderr string) error {
	return &executil.ExecError{Cmd: "docker buildx build", ExitCode: code, Stderr: stderr, Err: fmt.Errorf("exit status %d", code)}
}

func TestBuildRunsEveryImage(t *testing.T) {
	h := newHarness(t)
	path := writeBuildFile(t, buildFile)

	require.Equal(t, 0, h.run(t, "--file", path, "build"))
	require.Len(t, h.calls, 2)

	assert.Equal(t, "./api", h.calls[0].dir)
	assert.Equal(t, []string{
		"buildx", "build",
		"--tag=registry.example.com/org/api:01234567",
		"--cache-from=registry.example.com/org/buildcache:api-01234567",
		"--cache-to=type=registry,ref=registry.example.com/org/buildcache:api-01234567,mode=max",
		"--push", "--provenance=false",
		".",
	}, h.calls[0].args)

	assert.Empty(t, h.calls[1].dir)
	assert.Contains(t, h.calls[1].args, "--tag=registry.example.com/org/worker:latest")
	assert.Contains(t, h.stderr.String(), "all images built")
}

func TestBuildStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t)
	h.errs["api"] = []error{execErr(3, "failed to solve: dockerfile parse error")}
	path := writeBuildFile(t, buildFile)

	assert.Equal(t, 3, h.run(t, "--file", path, "build"))
	assert.Len(t, h.calls, 1, "worker is never built")
	assert.Empty(t, h.sleeps)
	assert.Contains(t, h.stderr.String(), "build api")
}

func TestBuildRetriesTransientFailure(t *testing.T) {
	h := newHarness(t)
	h.errs["worker"] = []error{execErr(1, "error writing layer blob: broken pipe")}
	path := writeBuildFile(t, buildFile)

	require.Equal(t, 0, h.run(t, "--file", path, "build", "--only", "worker"))
	assert.Len(t, h.calls, 2)
	assert.Equal(t, []time.Duration{5 * time.Second}, h.sleeps)
	assert.Contains(t, h.stderr.String(), "level=WARN")
}

func TestBuildRetryDelayFromFile(t *testing.T) {
	h := newHarness(t)
	h.errs["api"] = []error{execErr(1, ": no response"), execErr(1, ": no response"), execErr(1, ": no response")}
	path := writeBuildFile(t, buildFile+"retry:\n  delay: 250ms\n  maxRetries: 1\n")

	assert.Equal(t, 1, h.run(t, "--file", path, "build", "--only", "api"))
	assert.Len(t, h.calls, 2)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, h.sleeps)
}

func TestBuildDryRunFlag(t *testing.T) {
	h := newHarness(t)
	path := writeBuildFile(t, buildFile)

	require.Equal(t, 0, h.run(t, "--file", path, "build", "--dry-run"))
	for _, c := range h.calls {
		assert.NotContains(t, c.args, "--push")
	}
	assert.Contains(t, h.stderr.String(), "[DRY_RUN] would push")
}

func TestBuildDryRunFromEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvDryRun, "true")
	path := writeBuildFile(t, buildFile)

	require.Equal(t, 0, h.run(t, "--file", path, "build", "--only", "api"))
	assert.NotContains(t, h.calls[0].args, "--push")
}

func TestBuildPushFlagOverridesFile(t *testing.T) {
	h := newHarness(t)
	path := writeBuildFile(t, "images:\n  - name: api\n    imagePrefix: registry.example.com/org\n    push: false\n")

	require.Equal(t, 0, h.run(t, "--file", path, "build", "--push"))
	assert.Contains(t, h.calls[0].args, "--push")
}

func TestBuildPrintDoesNotRun(t *testing.T) {
	h := newHarness(t)
	path := writeBuildFile(t, buildFile)

	require.Equal(t, 0, h.run(t, "--file", path, "build", "--print", "--only", "api"))
	assert.Empty(t, h.calls)
	assert.Contains(t, h.stdout.String(), "[PLAN] docker buildx build --tag=registry.example.com/org/api:01234567")
}

func TestBuildWritesMetricsFile(t *testing.T) {
	h := newHarness(t)
	h.errs["api"] = []error{execErr(1, "unexpected status: 400 Bad Request")}
	path := writeBuildFile(t, buildFile)
	metricsPath := filepath.Join(t.TempDir(), "imgbuild.prom")

	require.Equal(t, 0, h.run(t, "--file", path, "build", "--metrics-file", metricsPath))

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `imgbuild_build_outcomes_total{image="api",outcome="success"} 1`)
	assert.Contains(t, out, `imgbuild_build_retries_total{image="api"} 1`)
	assert.Contains(t, out, `imgbuild_build_outcomes_total{image="worker",outcome="success"} 1`)
}

func TestBuildConfigErrorsExitTwo(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
	}{
		{"no images", "defaults: {tag: latest}\n", nil},
		{"invalid name", "images:\n  - name: API\n", nil},
		{"unknown selection", buildFile, []string{"--only", "web"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			path := writeBuildFile(t, tt.content)
			args := append([]string{"--file", path, "build"}, tt.args...)
			assert.Equal(t, 2, h.run(t, args...))
			assert.Empty(t, h.calls)
		})
	}
}

func TestBuildMissingFileExitTwo(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 2, h.run(t, "--file", filepath.Join(t.TempDir(), "missing.yaml"), "build"))
}

func TestBuildInvalidEnvOverrideExitTwo(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvPush, "sometimes")
	path := writeBuildFile(t, buildFile)
	assert.Equal(t, 2, h.run(t, "--file", path, "build"))
}

func TestUnknownFlagExitTwo(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 2, h.run(t, "build", "--no-such-flag"))
}

func TestPlanPrintsInvocations(t *testing.T) {
	h := newHarness(t)
	path := writeBuildFile(t, buildFile)

	require.Equal(t, 0, h.run(t, "--file", path, "plan", "--dry-run"))
	out := h.stdout.String()
	assert.Contains(t, out, "Ref             : main")
	assert.Contains(t, out, "# api (context ./api)")
	assert.Contains(t, out, "# worker\n")
	assert.NotContains(t, out, "--push")
	assert.Equal(t, 2, strings.Count(out, "[PLAN] docker buildx build"))
	assert.Empty(t, h.calls)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"focal", "bionic", "focal > bionic\n"},
		{"18.04", "focal", "18.04 < focal\n"},
		{"20.04", "focal", "20.04 = focal\n"},
		{"jammy", "focal", "jammy > focal\n"},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			h := newHarness(t)
			require.Equal(t, 0, h.run(t, "compare", tt.a, tt.b))
			assert.Equal(t, tt.want, h.stdout.String())
		})
	}
}

func TestCompareWarnsOnUnknown(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run(t, "compare", "jammy", "focal"))
	assert.Contains(t, h.stderr.String(), "unknown release")
}

func TestSort(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run(t, "sort", "focal", "bionic"))
	assert.Equal(t, "bionic\nfocal\n", h.stdout.String())

	h = newHarness(t)
	assert.Equal(t, 1, h.run(t, "sort", "focal", "jammy"))
	assert.Contains(t, h.stderr.String(), "unknown release")
}

func TestSortVerboseLogsParsedReleases(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run(t, "-v", "sort", "20.04", "bionic"))
	assert.Contains(t, h.stderr.String(), "version=20.4")
	assert.Contains(t, h.stderr.String(), "version=18.4")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run(t, "version"))
	assert.Equal(t, "imgbuild dev\n", h.stdout.String())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"exec", fmt.Errorf("build api: %w", execErr(7, "")), 7},
		{"exec without code", execErr(-1, ""), 1},
		{"config", fmt.Errorf("x: %w", config.ErrNoImages), 2},
		{"env", config.ErrInvalidEnv, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
