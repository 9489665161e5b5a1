package build

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/imagebuilder/internal/dockerfile"
	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
	"git.home.luguber.info/inful/imagebuilder/internal/logfields"
	"git.home.luguber.info/inful/imagebuilder/internal/metrics"
)

// Pipeline stage names used in logs and metrics.
const (
	StagePrepare    = "prepare"
	StageClone      = "clone"
	StageDockerfile = "dockerfile"
	StageImageBuild = "image_build"
)

// Request contains the inputs for one build.
type Request struct {
	RepoURL string `json:"repo_url"`
}

// Result is the outcome of a successful build.
type Result struct {
	ImageTag   string
	Logs       []string
	RunCommand string
	Duration   time.Duration
}

// Workspaces is the slice of the workspace manager the pipeline needs.
type Workspaces interface {
	Lock(name string) func()
	Prepare(name string) (string, error)
	Teardown(name string)
}

// Fetcher clones a repository into a prepared directory.
type Fetcher interface {
	Clone(ctx context.Context, url, dest string) error
}

// ImageBuilder drives the container engine.
type ImageBuilder interface {
	Available(ctx context.Context) bool
	Build(ctx context.Context, dir, name string) (tag string, logs []string, err error)
}

// Service sequences the build pipeline. One Run call is one build; calls are
// independent and block until the build finishes or fails.
type Service struct {
	workspaces Workspaces
	fetcher    Fetcher
	builder    ImageBuilder
	recorder   metrics.Recorder
	timeout    time.Duration
}

// NewService creates a build service over the given collaborators.
func NewService(workspaces Workspaces, fetcher Fetcher, builder ImageBuilder) *Service {
	return &Service{
		workspaces: workspaces,
		fetcher:    fetcher,
		builder:    builder,
		recorder:   metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithTimeout bounds the whole pipeline per build; zero disables the bound.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WorkspaceName derives a build's directory name from the repository URL's
// path stem. URLs without a scheme or host are rejected here, before any
// filesystem or network work starts.
func WorkspaceName(repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", apperrors.InvalidRepositoryURL(repoURL)
	}
	return stem(parsed.Path), nil
}

// stem is the final path segment with its extension stripped ("app.git"
// becomes "app"). Empty or directory-traversal stems fall back to "unnamed".
func stem(p string) string {
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "/" || base == "." || base == ".." {
		return "unnamed"
	}
	return base
}

// RunCommand is the docker invocation suggested to callers. The fixed
// 8080→80 mapping matches the port the synthesized templates expose.
func RunCommand(tag string) string {
	return "docker run -p 8080:80 " + tag
}

// Run executes the pipeline in strict order, short-circuiting on the first
// failure: validate the URL, gate on engine availability, prepare the
// workspace, clone, synthesize a Dockerfile, build the image. The workspace
// is torn down exactly once on every path after preparation begins.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	repoURL := strings.TrimSpace(req.RepoURL)
	log := slog.With(logfields.BuildID(uuid.NewString()), logfields.RepoURL(repoURL))

	name, err := WorkspaceName(repoURL)
	if err != nil {
		log.Warn("Rejected build request", logfields.Error(err))
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// A downed engine fails the build before anything is cloned or written.
	if !s.builder.Available(ctx) {
		log.Error("Container engine unavailable, refusing build")
		return s.fail(ctx, log, start, apperrors.EngineUnavailable())
	}

	log.Info("Starting build", logfields.Name(name))

	// Builds deriving the same name serialize on it; the lock is held
	// through teardown so the next build sees a clean slate.
	unlock := s.workspaces.Lock(name)
	defer unlock()
	defer s.workspaces.Teardown(name)

	var dir string
	if err := s.stage(ctx, log, StagePrepare, func() error {
		var err error
		dir, err = s.workspaces.Prepare(name)
		return err
	}); err != nil {
		return s.fail(ctx, log, start, err)
	}

	if err := s.stage(ctx, log, StageClone, func() error {
		cloneStart := time.Now()
		err := s.fetcher.Clone(ctx, repoURL, dir)
		s.recorder.ObserveCloneDuration(time.Since(cloneStart), err == nil)
		return err
	}); err != nil {
		return s.fail(ctx, log, start, err)
	}

	if err := s.stage(ctx, log, StageDockerfile, func() error {
		return ensureDockerfile(repoURL, dir)
	}); err != nil {
		return s.fail(ctx, log, start, err)
	}

	var tag string
	var logs []string
	if err := s.stage(ctx, log, StageImageBuild, func() error {
		var err error
		tag, logs, err = s.builder.Build(ctx, dir, name)
		return err
	}); err != nil {
		return s.fail(ctx, log, start, err)
	}

	result := &Result{
		ImageTag:   tag,
		Logs:       logs,
		RunCommand: RunCommand(tag),
		Duration:   time.Since(start),
	}

	s.recorder.ObserveLogTailLines(len(logs))
	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	log.Info("Build succeeded",
		logfields.ImageTag(tag),
		logfields.LogLines(len(logs)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

// ensureDockerfile applies the static-hosting override, then generic
// detection. A Dockerfile the repository ships is never replaced.
func ensureDockerfile(repoURL, dir string) error {
	if dockerfile.WantsStaticOverride(repoURL) {
		generated, err := dockerfile.EnsureStatic(dir)
		if err != nil {
			return apperrors.InternalError("failed to write Dockerfile", err)
		}
		if generated {
			return nil
		}
	}
	if _, _, err := dockerfile.Ensure(dir); err != nil {
		return apperrors.InternalError("failed to write Dockerfile", err)
	}
	return nil
}

// stage runs fn, timing it and recording its result.
func (s *Service) stage(ctx context.Context, log *slog.Logger, name string, fn func() error) error {
	stageStart := time.Now()
	err := fn()
	s.recorder.ObserveStageDuration(name, time.Since(stageStart))

	switch {
	case err == nil:
		s.recorder.IncStageResult(name, metrics.ResultSuccess)
	case ctx.Err() != nil:
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		s.recorder.IncStageResult(name, metrics.ResultFatal)
	}

	if err != nil {
		log.Error("Build stage failed", logfields.Stage(name), logfields.Error(err))
	}
	return err
}

// fail records the terminal outcome for a failed build and passes err through.
func (s *Service) fail(ctx context.Context, log *slog.Logger, start time.Time, err error) (*Result, error) {
	duration := time.Since(start)
	s.recorder.ObserveBuildDuration(duration)
	if ctx.Err() != nil {
		s.recorder.IncBuildOutcome(metrics.OutcomeCanceled)
	} else {
		s.recorder.IncBuildOutcome(metrics.OutcomeFailed)
	}
	log.Error("Build failed",
		logfields.Error(err),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return nil, err
}
