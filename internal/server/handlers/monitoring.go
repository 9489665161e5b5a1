package handlers

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sys/unix"

	"git.home.luguber.info/inful/imagebuilder/internal/server/responses"
)

// EngineStatus reports whether the container engine answers pings.
type EngineStatus interface {
	Available(ctx context.Context) bool
}

// MonitoringHandlers contains the status and health endpoints.
type MonitoringHandlers struct {
	engine      EngineStatus
	scratchRoot string
}

// NewMonitoringHandlers creates monitoring handlers probing the given engine
// and reporting disk space for the scratch root's filesystem.
func NewMonitoringHandlers(engine EngineStatus, scratchRoot string) *MonitoringHandlers {
	return &MonitoringHandlers{engine: engine, scratchRoot: scratchRoot}
}

// HandleStatus serves the root banner with the advertised endpoints and the
// current engine availability.
func (h *MonitoringHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	available := h.engine.Available(r.Context())
	if err := writeJSONPretty(w, r, http.StatusOK, responses.NewStatusResponse(available)); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// HandleHealth serves the health probe: free disk space on the scratch
// root's filesystem plus engine connectivity. A failing disk probe makes the
// service unhealthy; a down engine alone does not.
func (h *MonitoringHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	free, err := freeDiskSpace(h.scratchRoot)
	if err != nil {
		if werr := writeJSON(w, http.StatusInternalServerError, responses.UnhealthyResponse{
			Status: "unhealthy",
			Error:  err.Error(),
		}); werr != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	docker := "disconnected"
	if h.engine.Available(r.Context()) {
		docker = "connected"
	}

	health := responses.HealthResponse{
		Status:    "healthy",
		DiskSpace: fmt.Sprintf("%.1fGB free", float64(free)/(1<<30)),
		Docker:    docker,
	}
	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// freeDiskSpace returns the bytes available to unprivileged callers on the
// filesystem holding path.
func freeDiskSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	// Statfs_t field types are OS-dependent; normalize before multiplying.
	return stat.Bavail * uint64(stat.Bsize), nil
}
