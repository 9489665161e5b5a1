package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/imagebuilder/internal/build"
	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
	"git.home.luguber.info/inful/imagebuilder/internal/logfields"
	"git.home.luguber.info/inful/imagebuilder/internal/server/responses"
)

// BuildService runs one build pipeline per call.
type BuildService interface {
	Run(ctx context.Context, req build.Request) (*build.Result, error)
}

// BuildHandlers contains the build endpoint.
type BuildHandlers struct {
	service BuildService
}

// NewBuildHandlers creates a build handler over the given pipeline.
func NewBuildHandlers(service BuildService) *BuildHandlers {
	return &BuildHandlers{service: service}
}

// HandleBuild accepts a repository URL, runs the synchronous build pipeline,
// and answers with the image tag, the build log tail, and a run command. The
// request blocks until the build finishes or fails.
func (h *BuildHandlers) HandleBuild(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBuildRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Run(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response := responses.BuildResponse{
		Status:     "success",
		Image:      result.ImageTag,
		Logs:       result.Logs,
		RunCommand: result.RunCommand,
	}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		slog.Error("failed writing build response", logfields.Error(err))
	}
}

// decodeBuildRequest enforces the body contract: a JSON object carrying a
// non-empty repo_url. Contract faults answer 400 directly and report false.
func decodeBuildRequest(w http.ResponseWriter, r *http.Request) (build.Request, bool) {
	if !isJSONRequest(r) {
		writeAppError(w, apperrors.RequestNotJSON())
		return build.Request{}, false
	}

	var req build.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, apperrors.RequestNotJSON())
		return build.Request{}, false
	}

	if strings.TrimSpace(req.RepoURL) == "" {
		writeAppError(w, apperrors.MissingRepoURL())
		return build.Request{}, false
	}

	return req, true
}

// isJSONRequest checks the declared media type, ignoring parameters such as
// charset.
func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
