package cli

import (
	"context"
	"fmt"

	"imgbuild/internal/docker"
)

// PlanCmd prints the build context and the docker invocation for each image.
type PlanCmd struct {
	Only   []string `short:"o" help:"Only plan the named images." placeholder:"IMAGE"`
	DryRun bool     `help:"Plan as a dry run."`
}

func (c *PlanCmd) Run(ctx context.Context, g *Globals, e *env) error {
	f, rc, err := loadFile(g, e.logger, nil)
	if err != nil {
		return err
	}
	if c.DryRun {
		f.DryRun = true
	}
	images, err := f.Select(c.Only)
	if err != nil {
		return err
	}

	rc.PrintSummary(e.stdout)
	printer := e.newPrinter(g)
	for _, img := range images {
		req := f.Request(img)
		if img.Context != "" {
			fmt.Fprintf(e.stdout, "# %s (context %s)\n", img.Name, img.Context)
		} else {
			fmt.Fprintf(e.stdout, "# %s\n", img.Name)
		}
		if err := printer.Run(ctx, docker.Args(req)...); err != nil {
			return err
		}
	}
	return nil
}
