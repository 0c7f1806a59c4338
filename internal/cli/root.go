package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"imgbuild/internal/config"
	"imgbuild/internal/docker"
	"imgbuild/internal/executil"
	"imgbuild/internal/logfields"
	"imgbuild/internal/retry"
	"imgbuild/internal/runtime"
)

const name = "imgbuild"

// Version is set at link time with -ldflags "-X imgbuild/internal/cli.Version=...".
var Version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	File    string `short:"f" help:"Build file. Defaults to ./imgbuild.yaml, then imgbuild/imgbuild.yaml under the XDG config dir." type:"path" placeholder:"PATH"`
	Verbose bool   `short:"v" help:"Enable debug output."`
	Quiet   bool   `short:"q" help:"Only print warnings and errors."`
	Docker  string `help:"Docker binary to invoke." default:"docker" env:"IMGBUILD_DOCKER"`
}

// CLI is the root command.
type CLI struct {
	Globals

	Build   BuildCmd   `cmd:"" help:"Build (and push) the images declared in the build file."`
	Plan    PlanCmd    `cmd:"" help:"Print the docker invocations without running them."`
	Compare CompareCmd `cmd:"" help:"Compare two release identifiers."`
	Sort    SortCmd    `cmd:"" help:"Sort release identifiers ascending."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// env carries process collaborators so tests can replace them.
type env struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	exit   func(int)

	// runner returns the docker runner for a build context directory.
	runner func(g *Globals, dir string) docker.Runner
	sleep  func(ctx context.Context, d time.Duration) error
}

func defaultEnv() *env {
	return &env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		exit:   os.Exit,
		sleep:  retry.Sleep,
	}
}

func (e *env) newRunner(g *Globals, dir string) docker.Runner {
	if e.runner != nil {
		return e.runner(g, dir)
	}
	return executil.Command{
		Name:   g.Docker,
		Dir:    dir,
		Stdout: e.stdout,
		Stderr: e.stderr,
		Redact: docker.RedactBuildArgs,
		Logger: e.logger,
	}
}

func (e *env) newPrinter(g *Globals) docker.Runner {
	return executil.Printer{Name: g.Docker, Out: e.stdout, Redact: docker.RedactBuildArgs}
}

// Execute parses os.Args, runs the selected command and returns the process
// exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return run(ctx, os.Args[1:], defaultEnv())
}

func run(ctx context.Context, args []string, e *env) int {
	var root CLI
	parser, err := kong.New(&root,
		kong.Name(name),
		kong.Description("Build container images with docker buildx, a registry layer cache and retries."),
		kong.UsageOnError(),
		kong.Writers(e.stdout, e.stderr),
		kong.Exit(e.exit),
		kong.Bind(&root.Globals, e),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	e.logger = newLogger(e.stderr, root.Verbose, root.Quiet)
	if e.stderr == os.Stderr {
		slog.SetDefault(e.logger)
	}

	if err := kctx.Run(); err != nil {
		code := ExitCode(err)
		e.logger.Error("command failed", logfields.Error(err), logfields.ExitCode(code))
		return code
	}
	return 0
}

func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ExitCode maps a command error to a process exit code: 0 for nil, 2 for
// build file problems, the docker exit code for failed builds, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, target := range []error{
		config.ErrNotFound,
		config.ErrNoImages,
		config.ErrInvalidImage,
		config.ErrUnknownImage,
		config.ErrInvalidRetry,
		config.ErrInvalidEnv,
	} {
		if errors.Is(err, target) {
			return 2
		}
	}
	var execErr *executil.ExecError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	return 1
}

// loadFile resolves, loads and validates the build file.
func loadFile(g *Globals, logger *slog.Logger, override func(*config.File)) (*config.File, runtime.Context, error) {
	path := g.File
	if path == "" {
		found, err := config.Find()
		if err != nil {
			return nil, runtime.Context{}, err
		}
		path = found
	}

	rc, err := runtime.LoadContext(".")
	if err != nil {
		return nil, rc, err
	}
	logger.Debug("loaded build context", "source", rc.Source, "ref", rc.RefName, "sha", rc.ShortSHA)

	f, err := config.Load(path, rc)
	if err != nil {
		return nil, rc, err
	}
	if err := f.ApplyEnv(); err != nil {
		return nil, rc, err
	}
	if override != nil {
		override(f)
	}
	if err := f.Validate(); err != nil {
		return nil, rc, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("loaded build file", logfields.Path(path), "images", len(f.Images))
	return f, rc, nil
}
