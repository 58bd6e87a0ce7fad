package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"promptrelay/internal/config"
	"promptrelay/internal/version"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion_Short(t *testing.T) {
	out, err := runCLI(t, "version", "-o", "short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out); got != version.Get().ShortString() {
		t.Errorf("output = %q", got)
	}
}

func TestVersion_JSON(t *testing.T) {
	out, err := runCLI(t, "version", "--output", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if info.GoVersion == "" {
		t.Error("expected go version in output")
	}
}

func TestVersion_Text(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "gitVersion:") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestVersion_UnknownFormat(t *testing.T) {
	if _, err := runCLI(t, "version", "-o", "yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "launch"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestServe_RejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := runCLI(t, "serve", "--config", path, "--watch=false")
	if err == nil || !strings.Contains(err.Error(), "server.port") {
		t.Fatalf("expected port validation error, got %v", err)
	}
}

func TestServe_MissingConfigFile(t *testing.T) {
	_, err := runCLI(t, "serve", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestListenPort_Precedence(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 9000
	resolver := config.NewResolver(config.NewStore(cfg))

	t.Setenv(config.EnvPort, "")
	if got, err := listenPort(0, resolver); err != nil || got != 9000 {
		t.Errorf("file port = %d, %v", got, err)
	}

	t.Setenv(config.EnvPort, "7000")
	if got, err := listenPort(0, resolver); err != nil || got != 7000 {
		t.Errorf("env port = %d, %v", got, err)
	}
	if got, err := listenPort(3000, resolver); err != nil || got != 3000 {
		t.Errorf("flag port = %d, %v", got, err)
	}
	if _, err := listenPort(70000, resolver); err == nil {
		t.Error("expected error for out of range port")
	}

	t.Setenv(config.EnvPort, "abc")
	if _, err := listenPort(0, resolver); err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Errorf("expected malformed PORT error, got %v", err)
	}
	if got, err := listenPort(3000, resolver); err != nil || got != 3000 {
		t.Errorf("flag port with malformed PORT = %d, %v", got, err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered:\n%s", out)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &record); err != nil {
		t.Fatalf("expected one JSON record: %v\n%s", err, out)
	}
	if record["msg"] != "shown" || record["k"] != "v" {
		t.Errorf("unexpected record %v", record)
	}

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "debug", Format: "text"}).Debug("visible")
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Errorf("expected text debug record, got %q", buf.String())
	}
}

func TestNewLogger_DefaultsToInfo(t *testing.T) {
	logger := newLogger(&bytes.Buffer{}, config.LogConfig{})
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled by default")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be enabled by default")
	}
}

func TestMain_ExitCodes(t *testing.T) {
	var stderr bytes.Buffer
	if code := Main(context.Background(), []string{"version", "-o", "yaml"}, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr.String(), "promptrelay: unknown output format") {
		t.Errorf("stderr = %q", stderr.String())
	}

	stderr.Reset()
	if code := Main(context.Background(), []string{"launch"}, &stderr); code != 1 {
		t.Errorf("unknown command exit code = %d, want 1", code)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		wantStderr string
	}{
		{"success", nil, 0, ""},
		{"signal", fmt.Errorf("serve: %w", context.Canceled), 0, "shutdown requested, exiting\n"},
		{"failure", fmt.Errorf("bind: address in use"), 1, "promptrelay: bind: address in use\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(tt.err, &stderr); got != tt.want {
				t.Errorf("exitCode = %d, want %d", got, tt.want)
			}
			if stderr.String() != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
