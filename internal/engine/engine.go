// Package engine builds container images through the Docker daemon.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	units "github.com/docker/go-units"

	"git.home.luguber.info/inful/imagebuilder/internal/config"
	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
	"git.home.luguber.info/inful/imagebuilder/internal/logfields"
)

// ImageRepository prefixes every tag this service produces.
const ImageRepository = "builder"

// Client wraps the Docker daemon connection. A Client with no underlying
// connection still answers calls; it just reports the engine unavailable,
// so the HTTP service can keep serving health and validation traffic.
type Client struct {
	cli *client.Client
}

// New connects to the container engine. The returned Client is usable even
// when err is non-nil; it reports Available() == false until the daemon
// comes back and a new client is constructed.
func New(cfg config.EngineConfig) (*Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return &Client{}, err
	}
	return &Client{cli: cli}, nil
}

// Ping probes the daemon. Returns the raw transport error for logging.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.cli == nil {
		return apperrors.EngineUnavailable()
	}
	_, err := c.cli.Ping(ctx)
	return err
}

// Available reports whether the daemon currently answers.
func (c *Client) Available(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}

// ImageTag derives the tag for a repository name. Dots would read as
// registry port separators, so they become dashes.
func ImageTag(name string) string {
	return ImageRepository + "/" + strings.ReplaceAll(name, ".", "-") + ":latest"
}

// Build tars dir, submits it to the daemon, and streams the build to
// completion. Returns the image tag and the trailing build log lines.
func (c *Client) Build(ctx context.Context, dir, name string) (string, []string, error) {
	if c == nil || c.cli == nil {
		return "", nil, apperrors.EngineUnavailable()
	}

	tag := ImageTag(name)

	buildContext, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return "", nil, apperrors.InternalError("failed to create build context", err)
	}
	defer buildContext.Close()

	resp, err := c.cli.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:        []string{tag},
		Dockerfile:  "Dockerfile",
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		slog.Error("Docker API error", logfields.ImageTag(tag), logfields.Error(err))
		return "", nil, apperrors.EngineAPIError(err)
	}
	defer resp.Body.Close()

	logs, imageID, err := processBuildStream(resp.Body)
	if err != nil {
		slog.Error("Build failed", logfields.ImageTag(tag), logfields.Error(err))
		return "", logs, err
	}

	c.logBuiltImage(ctx, tag, imageID)
	return tag, logs, nil
}

// logBuiltImage reports the result with its size when the daemon can tell us.
func (c *Client) logBuiltImage(ctx context.Context, tag, imageID string) {
	ref := imageID
	if ref == "" {
		ref = tag
	}
	if inspect, _, err := c.cli.ImageInspectWithRaw(ctx, ref); err == nil {
		slog.Info("Successfully built image",
			logfields.ImageTag(tag),
			slog.String("size", units.HumanSize(float64(inspect.Size))))
		return
	}
	slog.Info("Successfully built image", logfields.ImageTag(tag))
}
