package engine

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"

	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
)

// logTailLines bounds how many trailing build output lines a response carries.
const logTailLines = 20

// processBuildStream decodes the daemon's JSON build stream. Only stream
// payloads become log lines; progress and status events are dropped. The
// returned slice holds at most the final logTailLines non-empty trimmed
// lines, however verbose the build. An in-stream error event means a
// Dockerfile step failed and maps to a build failure; a malformed stream
// maps to an engine API failure.
func processBuildStream(body io.Reader) ([]string, string, error) {
	var lines []string
	var imageID string

	appendLine := func(raw string) {
		line := strings.TrimSpace(raw)
		if line == "" {
			return
		}
		lines = append(lines, line)
		if len(lines) > logTailLines {
			lines = lines[1:]
		}
	}

	decoder := json.NewDecoder(body)
	for {
		var msg jsonmessage.JSONMessage
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return lines, imageID, apperrors.EngineAPIError(err)
		}

		if msg.Error != nil {
			return lines, imageID, apperrors.BuildFailed(msg.Error.Message, msg.Error)
		}

		if msg.Stream != "" {
			for _, raw := range strings.Split(msg.Stream, "\n") {
				appendLine(raw)
			}
		}

		if msg.Aux != nil {
			var aux struct {
				ID string `json:"ID"`
			}
			if err := json.Unmarshal(*msg.Aux, &aux); err == nil && aux.ID != "" {
				imageID = aux.ID
			}
		}
	}

	return lines, imageID, nil
}
