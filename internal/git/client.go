// Package git fetches repositories into build workspaces.
package git

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
	"git.home.luguber.info/inful/imagebuilder/internal/logfields"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Client handles Git operations.
type Client struct {
	depth int
}

// NewClient creates a Git client. Clones are shallow; builds only need the
// current tree, never history.
func NewClient() *Client {
	return &Client{depth: 1}
}

// Clone fetches the repository's default branch into dest. dest must be an
// empty directory; Prepare guarantees that for build workspaces.
func (c *Client) Clone(ctx context.Context, url, dest string) error {
	slog.Debug("Cloning repository", logfields.RepoURL(url), logfields.Path(dest))

	_, err := gogit.PlainCloneContext(ctx, dest, false, c.cloneOptions(url))
	if err != nil {
		return classifyCloneError(url, err)
	}

	slog.Info("Repository cloned", logfields.RepoURL(url), logfields.Path(dest))
	return nil
}

func (c *Client) cloneOptions(url string) *gogit.CloneOptions {
	return &gogit.CloneOptions{
		URL:          url,
		Depth:        c.depth,
		SingleBranch: true,
	}
}

// classifyCloneError wraps go-git failures into the classified errors the
// build API reports. Sentinel errors are checked first; the message
// heuristics cover transports that only surface text.
func classifyCloneError(url string, err error) error {
	if stderrors.Is(err, transport.ErrRepositoryNotFound) {
		return apperrors.RepositoryNotFound(url, err)
	}
	if stderrors.Is(err, transport.ErrAuthenticationRequired) || stderrors.Is(err, transport.ErrAuthorizationFailed) {
		return apperrors.AuthenticationRequired(url, err)
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "repository not found") || strings.Contains(l, "repository does not exist") || strings.Contains(l, "not found"):
		return apperrors.RepositoryNotFound(url, err)
	case strings.Contains(l, "could not read username") || strings.Contains(l, "authentication") || strings.Contains(l, "authorization") || strings.Contains(l, "invalid credentials"):
		return apperrors.AuthenticationRequired(url, err)
	default:
		return apperrors.CloneFailed(err.Error(), err)
	}
}
