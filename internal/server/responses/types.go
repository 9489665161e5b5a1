// Package responses defines the JSON response types used by ImageBuilder HTTP handlers.
package responses

// StatusResponse is the service banner returned from the root endpoint.
type StatusResponse struct {
	Status          string            `json:"status"`
	Endpoints       map[string]string `json:"endpoints"`
	DockerAvailable bool              `json:"docker_available"`
}

// NewStatusResponse builds the banner, advertising the service routes.
func NewStatusResponse(dockerAvailable bool) StatusResponse {
	return StatusResponse{
		Status: "ready",
		Endpoints: map[string]string{
			"build":   "POST /build",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
		DockerAvailable: dockerAvailable,
	}
}

// HealthResponse is the healthy body of the health endpoint. DiskSpace is a
// human-readable free-space figure, Docker either "connected" or
// "disconnected".
type HealthResponse struct {
	Status    string `json:"status"`
	DiskSpace string `json:"disk_space"`
	Docker    string `json:"docker"`
}

// UnhealthyResponse is returned with a 500 when the health probe itself fails.
type UnhealthyResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// BuildResponse is the success body of the build endpoint. Logs carries the
// tail of the engine's build output, RunCommand a ready-to-paste docker
// invocation for the produced image.
type BuildResponse struct {
	Status     string   `json:"status"`
	Image      string   `json:"image"`
	Logs       []string `json:"logs"`
	RunCommand string   `json:"run_command"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
