// internal/docker/build.go
package docker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"imgbuild/internal/logfields"
	"imgbuild/internal/metrics"
	"imgbuild/internal/retry"
)

// Runner executes the docker CLI with the given arguments.
// Failures carrying captured stderr should be *executil.ExecError.
type Runner interface {
	Run(ctx context.Context, args ...string) error
}

// Builder runs buildx builds and retries transient failures.
// A Builder holds no per-build state and may be shared between goroutines.
type Builder struct {
	Runner   Runner
	Logger   *slog.Logger
	Policy   retry.Policy
	Sleep    func(ctx context.Context, d time.Duration) error
	Recorder metrics.Recorder
}

// NewBuilder returns a Builder with the default retry policy.
func NewBuilder(r Runner) *Builder {
	return &Builder{
		Runner:   r,
		Policy:   retry.DefaultPolicy(),
		Sleep:    retry.Sleep,
		Recorder: metrics.NoopRecorder{},
	}
}

// Build runs one build for req.
//
// Transient failures (see Classify) are retried after the policy delay
// until the attempts run out. The error returned is the runner's own
// error from the last attempt, unchanged.
func (b *Builder) Build(ctx context.Context, req BuildRequest) error {
	logger, policy, sleep, rec := b.deps()
	logger = logger.With(
		logfields.BuildID(uuid.NewString()),
		logfields.Image(req.Image),
		logfields.Tag(req.PrimaryTag()),
	)
	if len(req.Platforms) > 0 {
		logger = logger.With(logfields.Platforms(req.Platforms))
	}
	args := Args(req)

	if req.DryRun {
		logger.Info("[DRY_RUN] would push", slog.Any("refs", req.Refs()))
	}

	start := time.Now()
	defer func() { rec.ObserveBuildDuration(req.Image, time.Since(start)) }()

	for attempt := 0; ; attempt++ {
		err := b.Runner.Run(ctx, args...)
		if err == nil {
			rec.IncBuildOutcome(req.Image, metrics.OutcomeSuccess)
			logger.Debug("build finished", logfields.Attempt(attempt),
				logfields.DurationMS(float64(time.Since(start).Milliseconds())))
			return nil
		}

		if Classify(err) == Fatal {
			rec.IncBuildOutcome(req.Image, metrics.OutcomeFailed)
			return err
		}
		if attempt >= policy.MaxRetries {
			rec.IncBuildRetryExhausted(req.Image)
			rec.IncBuildOutcome(req.Image, metrics.OutcomeFailed)
			return err
		}

		pattern, _ := MatchedPattern(err)
		logger.Warn("docker build error, retrying",
			logfields.Attempt(attempt),
			logfields.MaxAttempts(policy.Attempts()),
			logfields.Pattern(pattern),
			logfields.Error(err))
		rec.IncBuildRetry(req.Image)
		if serr := sleep(ctx, policy.Delay(attempt+1)); serr != nil {
			// canceled while waiting; report what the build itself said
			rec.IncBuildOutcome(req.Image, metrics.OutcomeFailed)
			return err
		}
	}
}

func (b *Builder) deps() (*slog.Logger, retry.Policy, func(context.Context, time.Duration) error, metrics.Recorder) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := b.Policy
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}
	policy.MaxRetries = min(max(policy.MaxRetries, 0), retry.DefaultMaxRetries)
	sleep := b.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}
	rec := b.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return logger, policy, sleep, rec
}
