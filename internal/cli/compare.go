package cli

import (
	"context"
	"fmt"

	"imgbuild/internal/version"
)

// CompareCmd prints how two release identifiers order.
type CompareCmd struct {
	Scheme string `help:"Versioning scheme." default:"ubuntu" enum:"ubuntu"`
	A      string `arg:"" help:"First release."`
	B      string `arg:"" help:"Second release."`
}

func (c *CompareCmd) Run(_ context.Context, e *env) error {
	s, err := lookupScheme(c.Scheme)
	if err != nil {
		return err
	}
	if !s.IsCompatible(c.A, c.B) {
		e.logger.Warn("unknown release, comparing as greater", "scheme", s.ID(), "a", c.A, "b", c.B)
	} else {
		ra, _ := s.Parse(c.A)
		rb, _ := s.Parse(c.B)
		e.logger.Debug("comparing releases", "a", ra.String(), "b", rb.String())
	}

	op := "="
	switch n := s.Compare(c.A, c.B); {
	case n < 0:
		op = "<"
	case n > 0:
		op = ">"
	}
	_, err = fmt.Fprintf(e.stdout, "%s %s %s\n", c.A, op, c.B)
	return err
}

// SortCmd prints release identifiers in ascending order.
type SortCmd struct {
	Scheme   string   `help:"Versioning scheme." default:"ubuntu" enum:"ubuntu"`
	Releases []string `arg:"" help:"Releases to sort."`
}

func (c *SortCmd) Run(_ context.Context, e *env) error {
	s, err := lookupScheme(c.Scheme)
	if err != nil {
		return err
	}
	for _, r := range c.Releases {
		parsed, err := s.Parse(r)
		if err != nil {
			return err
		}
		e.logger.Debug("release", "id", r, "version", parsed.String())
	}
	s.Sort(c.Releases)
	for _, r := range c.Releases {
		if _, err := fmt.Fprintln(e.stdout, r); err != nil {
			return err
		}
	}
	return nil
}

func lookupScheme(id string) (version.Scheme, error) {
	s, ok := version.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown versioning scheme %q", id)
	}
	return s, nil
}
