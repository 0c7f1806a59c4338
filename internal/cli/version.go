package cli

import (
	"context"
	"fmt"
)

// VersionCmd prints the imgbuild version.
type VersionCmd struct{}

func (c *VersionCmd) Run(_ context.Context, e *env) error {
	_, err := fmt.Fprintf(e.stdout, "%s %s\n", name, Version)
	return err
}
