package runtime

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Context captures the CI/CD state that build files may refer to.
// GitLab and GitHub variables are both understood; outside CI the commit is
// read from the enclosing git repository.
type Context struct {
	SHA           string
	ShortSHA      string
	RefName       string
	CommitTag     string
	RegistryImage string
	Source        string // "gitlab", "github", "git" or "" when nothing was found
}

const shortSHALen = 8

// LoadContext constructs a Context from CI environment variables, falling
// back to HEAD of the git repository containing dir.
func LoadContext(dir string) (Context, error) {
	ctx := Context{
		SHA:           firstNonEmpty(os.Getenv("CI_COMMIT_SHA"), os.Getenv("GITHUB_SHA")),
		ShortSHA:      os.Getenv("CI_COMMIT_SHORT_SHA"),
		RefName:       firstNonEmpty(os.Getenv("CI_COMMIT_REF_NAME"), os.Getenv("GITHUB_REF_NAME")),
		CommitTag:     os.Getenv("CI_COMMIT_TAG"),
		RegistryImage: strings.TrimRight(os.Getenv("CI_REGISTRY_IMAGE"), "/"),
	}
	switch {
	case os.Getenv("GITLAB_CI") == "true":
		ctx.Source = "gitlab"
	case os.Getenv("GITHUB_ACTIONS") == "true":
		ctx.Source = "github"
		if os.Getenv("GITHUB_REF_TYPE") == "tag" {
			ctx.CommitTag = ctx.RefName
		}
	}

	if ctx.SHA == "" {
		if err := ctx.fromGit(dir); err != nil {
			return ctx, err
		}
	}

	// Ensure ShortSHA is populated
	if ctx.ShortSHA == "" {
		ctx.ShortSHA = ctx.SHA
		if len(ctx.SHA) > shortSHALen {
			ctx.ShortSHA = ctx.SHA[:shortSHALen]
		}
	}
	return ctx, nil
}

// fromGit fills SHA and RefName from the repository HEAD. A directory that is
// not inside a repository is not an error.
func (c *Context) fromGit(dir string) error {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open git repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		// fresh repository without commits
		return nil
	}
	c.SHA = head.Hash().String()
	if c.RefName == "" && head.Name().IsBranch() {
		c.RefName = head.Name().Short()
	}
	if c.Source == "" {
		c.Source = "git"
	}
	return nil
}

// Vars exposes the context as variables for build file expansion.
func (c Context) Vars() map[string]string {
	return map[string]string{
		"SHA":            c.SHA,
		"SHORT_SHA":      c.ShortSHA,
		"REF_NAME":       c.RefName,
		"COMMIT_TAG":     c.CommitTag,
		"REGISTRY_IMAGE": c.RegistryImage,
	}
}

// Lookup resolves name from the context first, then the process environment.
func (c Context) Lookup(name string) string {
	if v, ok := c.Vars()[name]; ok && v != "" {
		return v
	}
	return os.Getenv(name)
}

// PrintSummary writes a short, scannable report of the context.
func (c Context) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "Build Context")
	fmt.Fprintln(w, "-------------")
	fmt.Fprintf(w, "  Source          : %s\n", formatOrNone(c.Source))
	fmt.Fprintf(w, "  Ref             : %s\n", formatOrNone(c.RefName))
	if c.CommitTag != "" {
		fmt.Fprintf(w, "  Tag             : %s\n", c.CommitTag)
	}
	fmt.Fprintf(w, "  Commit          : %s\n", formatOrNone(c.SHA))
	fmt.Fprintf(w, "  Registry Image  : %s\n", formatOrNone(c.RegistryImage))
	fmt.Fprintln(w)
}
