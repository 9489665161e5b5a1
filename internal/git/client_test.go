package git

import (
	"fmt"
	"testing"

	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

func TestCloneOptions(t *testing.T) {
	c := NewClient()
	opts := c.cloneOptions("https://example.com/team/app.git")

	if opts.URL != "https://example.com/team/app.git" {
		t.Errorf("URL = %s", opts.URL)
	}
	if opts.Depth != 1 {
		t.Errorf("Depth = %d, want 1 (clones must be shallow)", opts.Depth)
	}
	if !opts.SingleBranch {
		t.Error("SingleBranch should be set")
	}
	if opts.ReferenceName != "" {
		t.Errorf("ReferenceName = %s, want empty (default branch)", opts.ReferenceName)
	}
}

func TestClassifyCloneError(t *testing.T) {
	const url = "https://example.com/team/app.git"

	tests := []struct {
		name     string
		err      error
		category apperrors.ErrorCategory
		message  string
	}{
		{
			name:     "go-git not found sentinel",
			err:      transport.ErrRepositoryNotFound,
			category: apperrors.CategoryRepoNotFound,
			message:  "Repository not found or private (needs access token)",
		},
		{
			name:     "wrapped not found sentinel",
			err:      fmt.Errorf("clone: %w", transport.ErrRepositoryNotFound),
			category: apperrors.CategoryRepoNotFound,
			message:  "Repository not found or private (needs access token)",
		},
		{
			name:     "go-git authentication sentinel",
			err:      transport.ErrAuthenticationRequired,
			category: apperrors.CategoryAuth,
			message:  "Authentication failed - use HTTPS with token",
		},
		{
			name:     "go-git authorization sentinel",
			err:      transport.ErrAuthorizationFailed,
			category: apperrors.CategoryAuth,
			message:  "Authentication failed - use HTTPS with token",
		},
		{
			name:     "not found in message text",
			err:      fmt.Errorf("fatal: Repository not found"),
			category: apperrors.CategoryRepoNotFound,
			message:  "Repository not found or private (needs access token)",
		},
		{
			name:     "credential prompt in message text",
			err:      fmt.Errorf("fatal: could not read Username for 'https://example.com'"),
			category: apperrors.CategoryAuth,
			message:  "Authentication failed - use HTTPS with token",
		},
		{
			name:     "anything else is a generic clone failure",
			err:      fmt.Errorf("ssh: handshake failed: connection reset"),
			category: apperrors.CategoryGit,
			message:  "Git clone failed: ssh: handshake failed: connection reset",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			classified := classifyCloneError(url, test.err)

			if !apperrors.IsCategory(classified, test.category) {
				t.Errorf("category = %v, want %v", apperrors.GetCategory(classified), test.category)
			}

			ibe, ok := classified.(*apperrors.ImageBuilderError)
			if !ok {
				t.Fatalf("expected *ImageBuilderError, got %T", classified)
			}
			if ibe.Message != test.message {
				t.Errorf("message = %q, want %q", ibe.Message, test.message)
			}
			if ibe.Cause == nil {
				t.Error("classified error should keep its cause")
			}
		})
	}
}
