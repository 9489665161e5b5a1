package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imagebuilder.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	configContent := "version: \"1.0\"\n" +
		"server:\n" +
		"  addr: \":9000\"\n" +
		"workspace:\n" +
		"  root: /var/lib/imagebuilder/builds\n" +
		"  sweep_interval: 10m\n" +
		"  sweep_max_age: 1h\n" +
		"engine:\n" +
		"  host: unix:///var/run/docker.sock\n" +
		"build:\n" +
		"  timeout: 20m\n" +
		"logging:\n" +
		"  level: debug\n" +
		"  format: json\n"

	config, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.Server.Addr != ":9000" {
		t.Errorf("Addr = %v, want :9000", config.Server.Addr)
	}
	if config.Workspace.Root != "/var/lib/imagebuilder/builds" {
		t.Errorf("Root = %v, want /var/lib/imagebuilder/builds", config.Workspace.Root)
	}
	if config.Engine.Host != "unix:///var/run/docker.sock" {
		t.Errorf("Engine host = %v", config.Engine.Host)
	}
	if config.BuildTimeout() != 20*time.Minute {
		t.Errorf("BuildTimeout() = %v, want 20m", config.BuildTimeout())
	}
	if config.SweepInterval() != 10*time.Minute {
		t.Errorf("SweepInterval() = %v, want 10m", config.SweepInterval())
	}
	if config.SweepMaxAge() != time.Hour {
		t.Errorf("SweepMaxAge() = %v, want 1h", config.SweepMaxAge())
	}
	if config.Logging.Level != LogLevelDebug {
		t.Errorf("Level = %v, want debug", config.Logging.Level)
	}
	if config.Logging.Format != LogFormatJSON {
		t.Errorf("Format = %v, want json", config.Logging.Format)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := Load(writeTempConfig(t, "version: \"1.0\"\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %v, want %v", config.Server.Addr, DefaultAddr)
	}
	if config.Workspace.Root != DefaultWorkspaceRoot {
		t.Errorf("Root = %v, want %v", config.Workspace.Root, DefaultWorkspaceRoot)
	}
	if config.BuildTimeout() != 15*time.Minute {
		t.Errorf("BuildTimeout() = %v, want 15m", config.BuildTimeout())
	}
	if config.Logging.Level != LogLevelInfo {
		t.Errorf("Level = %v, want info", config.Logging.Level)
	}
	if config.Logging.Format != LogFormatText {
		t.Errorf("Format = %v, want text", config.Logging.Format)
	}
	if config.Workspace.Retry.Backoff != DefaultRetryBackoff {
		t.Errorf("Retry.Backoff = %v, want %v", config.Workspace.Retry.Backoff, DefaultRetryBackoff)
	}
	if config.RetryDelay() != time.Second {
		t.Errorf("RetryDelay() = %v, want 1s", config.RetryDelay())
	}
	if config.Workspace.Retry.Attempts != DefaultRetryAttempts {
		t.Errorf("Retry.Attempts = %v, want %v", config.Workspace.Retry.Attempts, DefaultRetryAttempts)
	}
}

func TestLoadConfigRetryBlock(t *testing.T) {
	configContent := "workspace:\n" +
		"  retry:\n" +
		"    backoff: Exponential\n" +
		"    delay: 200ms\n" +
		"    max_delay: 5s\n" +
		"    attempts: 5\n"

	config, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := NormalizeRetryBackoff(config.Workspace.Retry.Backoff); got != RetryBackoffExponential {
		t.Errorf("backoff = %v, want exponential", got)
	}
	if config.RetryDelay() != 200*time.Millisecond {
		t.Errorf("RetryDelay() = %v, want 200ms", config.RetryDelay())
	}
	if config.RetryMaxDelay() != 5*time.Second {
		t.Errorf("RetryMaxDelay() = %v, want 5s", config.RetryMaxDelay())
	}
	if config.Workspace.Retry.Attempts != 5 {
		t.Errorf("Attempts = %v, want 5", config.Workspace.Retry.Attempts)
	}
}

func TestLoadConfigBadRetryBlock(t *testing.T) {
	if _, err := Load(writeTempConfig(t, "workspace:\n  retry:\n    backoff: sometimes\n")); err == nil ||
		!strings.Contains(err.Error(), "workspace.retry.backoff") {
		t.Errorf("expected backoff mode error, got: %v", err)
	}

	if _, err := Load(writeTempConfig(t, "workspace:\n  retry:\n    attempts: -1\n")); err == nil ||
		!strings.Contains(err.Error(), "workspace.retry.attempts") {
		t.Errorf("expected attempts error, got: %v", err)
	}

	if _, err := Load(writeTempConfig(t, "workspace:\n  retry:\n    delay: shortly\n")); err == nil ||
		!strings.Contains(err.Error(), "workspace.retry.delay") {
		t.Errorf("expected delay error, got: %v", err)
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("IMAGEBUILDER_TEST_ROOT", "/srv/builds")

	configContent := "workspace:\n" +
		"  root: ${IMAGEBUILDER_TEST_ROOT}\n"

	config, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.Workspace.Root != "/srv/builds" {
		t.Errorf("Root = %v, want /srv/builds", config.Workspace.Root)
	}
}

func TestLoadConfigBadVersion(t *testing.T) {
	_, err := Load(writeTempConfig(t, "version: \"3.0\"\n"))
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
	if !strings.Contains(err.Error(), "unsupported configuration version") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	configContent := "build:\n" +
		"  timeout: soon\n"

	_, err := Load(writeTempConfig(t, configContent))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "build.timeout") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestZeroDisablesTimeout(t *testing.T) {
	configContent := "build:\n" +
		"  timeout: \"0\"\n" +
		"workspace:\n" +
		"  sweep_interval: \"0\"\n"

	config, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if config.BuildTimeout() != 0 {
		t.Errorf("BuildTimeout() = %v, want 0", config.BuildTimeout())
	}
	if config.SweepInterval() != 0 {
		t.Errorf("SweepInterval() = %v, want 0", config.SweepInterval())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	config := Default()
	if config.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %v, want %v", config.Server.Addr, DefaultAddr)
	}
	if config.Workspace.Root != DefaultWorkspaceRoot {
		t.Errorf("Root = %v, want %v", config.Workspace.Root, DefaultWorkspaceRoot)
	}
}

func TestLoadOrDefault(t *testing.T) {
	// Missing file falls back to defaults instead of failing.
	config, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if config.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %v, want %v", config.Server.Addr, DefaultAddr)
	}

	// An existing file is loaded normally, including validation.
	path := writeTempConfig(t, "server:\n  addr: \":7000\"\n")
	config, err = LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if config.Server.Addr != ":7000" {
		t.Errorf("Addr = %v, want :7000", config.Server.Addr)
	}

	if _, err := LoadOrDefault(writeTempConfig(t, "build:\n  timeout: soon\n")); err == nil {
		t.Fatal("expected error for invalid duration in existing file")
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagebuilder.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	// A second Init without force must refuse to overwrite.
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when file exists")
	}

	if err := Init(path, true); err != nil {
		t.Fatalf("Init(force) error: %v", err)
	}

	// The generated file must load cleanly.
	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of generated config error: %v", err)
	}
	if config.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %v, want %v", config.Server.Addr, DefaultAddr)
	}
}

func TestNormalizeRetryBackoff(t *testing.T) {
	cases := []struct {
		raw  string
		want RetryBackoffMode
	}{
		{"fixed", RetryBackoffFixed},
		{" Fixed ", RetryBackoffFixed},
		{"LINEAR", RetryBackoffLinear},
		{"exponential", RetryBackoffExponential},
		{"bogus", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeRetryBackoff(c.raw); got != c.want {
			t.Errorf("NormalizeRetryBackoff(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}
