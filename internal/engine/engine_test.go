package engine

import (
	"fmt"
	"strings"
	"testing"

	apperrors "git.home.luguber.info/inful/imagebuilder/internal/errors"
)

func TestImageTag(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"myapp", "builder/myapp:latest"},
		{"my-site.github", "builder/my-site-github:latest"},
		{"v1.2.3", "builder/v1-2-3:latest"},
		{"unnamed", "builder/unnamed:latest"},
	}

	for _, test := range tests {
		if got := ImageTag(test.name); got != test.want {
			t.Errorf("ImageTag(%q) = %q, want %q", test.name, got, test.want)
		}
	}
}

func TestProcessBuildStream(t *testing.T) {
	stream := `{"stream":"Step 1/4 : FROM alpine\n"}
{"status":"Pulling from library/alpine"}
{"stream":" ---> 324bc02ae123\n"}
{"stream":"\n"}
{"stream":"   \n"}
{"stream":"Successfully built 324bc02ae123\n"}
{"aux":{"ID":"sha256:324bc02ae123"}}
`

	logs, imageID, err := processBuildStream(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("processBuildStream() error: %v", err)
	}

	want := []string{
		"Step 1/4 : FROM alpine",
		"---> 324bc02ae123",
		"Successfully built 324bc02ae123",
	}
	if len(logs) != len(want) {
		t.Fatalf("logs = %q, want %q", logs, want)
	}
	for i := range want {
		if logs[i] != want[i] {
			t.Errorf("logs[%d] = %q, want %q", i, logs[i], want[i])
		}
	}

	if imageID != "sha256:324bc02ae123" {
		t.Errorf("imageID = %q, want sha256:324bc02ae123", imageID)
	}
}

func TestProcessBuildStreamBoundsTail(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, `{"stream":"line %d\n"}`+"\n", i)
	}

	logs, _, err := processBuildStream(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("processBuildStream() error: %v", err)
	}

	if len(logs) != logTailLines {
		t.Fatalf("len(logs) = %d, want %d", len(logs), logTailLines)
	}
	if logs[0] != "line 81" || logs[len(logs)-1] != "line 100" {
		t.Errorf("tail window = [%s .. %s], want [line 81 .. line 100]", logs[0], logs[len(logs)-1])
	}
	for _, line := range logs {
		if strings.TrimSpace(line) == "" {
			t.Error("tail contains an empty line")
		}
	}
}

func TestProcessBuildStreamErrorEvent(t *testing.T) {
	stream := `{"stream":"Step 3/5 : RUN npm install\n"}
{"errorDetail":{"message":"The command '/bin/sh -c npm install' returned a non-zero code: 1"},"error":"The command '/bin/sh -c npm install' returned a non-zero code: 1"}
`

	logs, _, err := processBuildStream(strings.NewReader(stream))
	if err == nil {
		t.Fatal("expected a build failure, got nil")
	}
	if !apperrors.IsCategory(err, apperrors.CategoryBuild) {
		t.Errorf("error category = %v, want build", apperrors.GetCategory(err))
	}
	if want := "Docker build failed: The command '/bin/sh -c npm install' returned a non-zero code: 1"; err.(*apperrors.ImageBuilderError).Message != want {
		t.Errorf("message = %q, want %q", err.(*apperrors.ImageBuilderError).Message, want)
	}
	if len(logs) != 1 {
		t.Errorf("logs before failure = %q, want the RUN step line", logs)
	}
}

func TestProcessBuildStreamMalformed(t *testing.T) {
	_, _, err := processBuildStream(strings.NewReader(`{"stream":"ok\n"}` + "\nnot json at all\n"))
	if err == nil {
		t.Fatal("expected an engine API error, got nil")
	}
	if !apperrors.IsCategory(err, apperrors.CategoryEngineAPI) {
		t.Errorf("error category = %v, want engine_api", apperrors.GetCategory(err))
	}
	// The API contract masks transport diagnostics behind a stable message.
	if got := apperrors.UserMessage(err); got != "Docker service error" {
		t.Errorf("user message = %q, want %q", got, "Docker service error")
	}
}
