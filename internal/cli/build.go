package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"imgbuild/internal/config"
	"imgbuild/internal/docker"
	"imgbuild/internal/logfields"
	"imgbuild/internal/metrics"
	"imgbuild/internal/retry"
)

// BuildCmd builds every selected image in build file order and stops at the
// first failure.
type BuildCmd struct {
	Only        []string `short:"o" help:"Only build the named images." placeholder:"IMAGE"`
	DryRun      bool     `help:"Build without pushing images or registry cache."`
	Push        bool     `help:"Push every image, overriding the build file."`
	Print       bool     `help:"Print docker invocations instead of running them."`
	MetricsFile string   `help:"Write Prometheus metrics to this textfile when done." type:"path" placeholder:"PATH"`
}

func (c *BuildCmd) Run(ctx context.Context, g *Globals, e *env) error {
	f, _, err := loadFile(g, e.logger, c.override)
	if err != nil {
		return err
	}
	images, err := f.Select(c.Only)
	if err != nil {
		return err
	}
	policy, err := f.Retry.Policy()
	if err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var reg *prom.Registry
	if c.MetricsFile != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	start := time.Now()
	err = c.buildAll(ctx, g, e, f, images, policy, recorder)

	if reg != nil {
		if werr := metrics.WriteTextfile(c.MetricsFile, reg); werr != nil {
			e.logger.Warn("failed to write metrics", logfields.Path(c.MetricsFile), logfields.Error(werr))
			err = errors.Join(err, werr)
		}
	}
	if err != nil {
		return err
	}

	e.logger.Info("all images built",
		"images", len(images),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

func (c *BuildCmd) override(f *config.File) {
	if c.DryRun {
		f.DryRun = true
	}
	if c.Push {
		push := true
		f.Defaults.Push = &push
		for i := range f.Images {
			f.Images[i].Push = nil
		}
	}
}

func (c *BuildCmd) buildAll(ctx context.Context, g *Globals, e *env, f *config.File, images []config.Image, policy retry.Policy, recorder metrics.Recorder) error {
	for _, img := range images {
		req := f.Request(img)

		var runner docker.Runner
		if c.Print {
			runner = e.newPrinter(g)
		} else {
			runner = e.newRunner(g, img.Context)
		}

		b := docker.NewBuilder(runner)
		b.Logger = e.logger
		b.Policy = policy
		b.Sleep = e.sleep
		b.Recorder = recorder

		if err := b.Build(ctx, req); err != nil {
			return fmt.Errorf("build %s: %w", img.Name, err)
		}
	}
	return nil
}
