package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/imagebuilder/internal/build"
	"git.home.luguber.info/inful/imagebuilder/internal/config"
	"git.home.luguber.info/inful/imagebuilder/internal/engine"
	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
	"git.home.luguber.info/inful/imagebuilder/internal/git"
	"git.home.luguber.info/inful/imagebuilder/internal/janitor"
	"git.home.luguber.info/inful/imagebuilder/internal/metrics"
	"git.home.luguber.info/inful/imagebuilder/internal/retry"
	"git.home.luguber.info/inful/imagebuilder/internal/server/httpserver"
	"git.home.luguber.info/inful/imagebuilder/internal/version"
	"git.home.luguber.info/inful/imagebuilder/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`
	Debug   bool   `env:"IMAGEBUILDER_DEBUG" help:"Enable debug logging"`

	Serve struct {
		Addr string `short:"a" help:"Listen address override (host:port)"`
	} `cmd:"" help:"Run the HTTP build service"`

	Build struct {
		RepoURL string `arg:"" name:"repo-url" help:"Repository URL to clone and build"`
	} `cmd:"" help:"Build a single repository and print the resulting image"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	kctx := kong.Parse(&CLI)

	switch kctx.Command() {
	case "serve":
		cfg := mustLoadConfig()
		setupLogging(cfg.Logging)
		if err := runServe(cfg); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "build <repo-url>":
		cfg := mustLoadConfig()
		setupLogging(cfg.Logging)
		runBuildOnce(cfg, CLI.Build.RepoURL)
	case "init":
		setupLogging(config.Default().Logging)
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// preparePolicy translates the workspace retry settings into the policy the
// manager retries Prepare with. Attempts counts the first try.
func preparePolicy(cfg *config.Config) retry.Policy {
	return retry.NewPolicy(
		config.NormalizeRetryBackoff(cfg.Workspace.Retry.Backoff),
		cfg.RetryDelay(),
		cfg.RetryMaxDelay(),
		cfg.Workspace.Retry.Attempts-1,
	)
}

// setupLogging installs the process-wide logger. The CLI verbosity flags win
// over the configured level.
func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if CLI.Verbose || CLI.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// runServe wires the pipeline behind the HTTP API and blocks until a
// shutdown signal arrives.
func runServe(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := cfg.Server.Addr
	if CLI.Serve.Addr != "" {
		addr = CLI.Serve.Addr
	}

	slog.Info("Starting image build service",
		slog.String("version", version.Version),
		slog.String("commit", version.GitCommit),
		slog.String("addr", addr),
		slog.String("scratch_root", cfg.Workspace.Root))

	// The scratch root must exist before the first build lands and before
	// the health endpoint statfs-probes it.
	if err := os.MkdirAll(cfg.Workspace.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch root %s: %w", cfg.Workspace.Root, err)
	}

	engineClient, err := engine.New(cfg.Engine)
	if err != nil {
		slog.Error("Failed to create engine client, builds will fail until the engine returns", "error", err)
	} else if err := engineClient.Ping(ctx); err != nil {
		slog.Warn("Container engine not answering, builds will fail until it returns", "error", err)
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	workspaces := workspace.NewManager(cfg.Workspace.Root).WithPolicy(preparePolicy(cfg))
	service := build.NewService(workspaces, git.NewClient(), engineClient).
		WithRecorder(recorder).
		WithTimeout(cfg.BuildTimeout())

	srv := httpserver.New(addr, httpserver.Options{
		Service:     service,
		Engine:      engineClient,
		ScratchRoot: cfg.Workspace.Root,
		Registry:    registry,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if interval := cfg.SweepInterval(); interval > 0 {
		j, err := janitor.New(workspaces, interval, cfg.SweepMaxAge())
		if err != nil {
			return fmt.Errorf("failed to create janitor: %w", err)
		}
		j.Start(ctx)
		defer func() {
			if err := j.Stop(context.Background()); err != nil {
				slog.Warn("Failed to stop janitor", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		return err
	}

	slog.Info("Service stopped successfully")
	return nil
}

// runBuildOnce runs the same pipeline the HTTP endpoint uses for a single
// repository and prints the result. Exit codes come from the CLI error
// adapter.
func runBuildOnce(cfg *config.Config, repoURL string) {
	adapter := apperrors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.Workspace.Root, 0o755); err != nil {
		adapter.HandleError(apperrors.WorkspacePrepareFailed(cfg.Workspace.Root, 1, err))
		return
	}

	engineClient, err := engine.New(cfg.Engine)
	if err != nil {
		slog.Warn("Failed to create engine client", "error", err)
	}

	workspaces := workspace.NewManager(cfg.Workspace.Root).WithPolicy(preparePolicy(cfg))
	service := build.NewService(workspaces, git.NewClient(), engineClient).
		WithTimeout(cfg.BuildTimeout())

	result, err := service.Run(ctx, build.Request{RepoURL: repoURL})
	if err != nil {
		adapter.HandleError(err)
		return
	}

	for _, line := range result.Logs {
		fmt.Println(line)
	}
	fmt.Printf("\nBuilt %s in %s\n", result.ImageTag, result.Duration.Round(time.Millisecond))
	fmt.Printf("Run: %s\n", result.RunCommand)
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", "path", configPath, "force", force)
	return config.Init(configPath, force)
}
