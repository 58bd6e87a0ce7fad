package version

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"clean", Info{GitVersion: "v1.0.0", GitTreeState: "clean"}, "v1.0.0"},
		{"dirty", Info{GitVersion: "v1.0.0", GitTreeState: "dirty"}, "v1.0.0-dirty"},
		{"unset", Info{GitVersion: "v1.0.0"}, "v1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo_ShortStringIgnoresTreeState(t *testing.T) {
	info := Info{GitVersion: "v2.1.0", GitTreeState: "dirty"}
	if got := info.ShortString(); got != "v2.1.0" {
		t.Errorf("ShortString() = %q", got)
	}
}

func TestInfo_ToJSON(t *testing.T) {
	info := Info{GitVersion: "v1.0.0", GitCommit: "abc123", BuildDate: "2026-01-01T00:00:00Z"}

	out, err := info.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var parsed Info
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if parsed != info {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
	if strings.Contains(out, "gitTreeState") {
		t.Error("empty tree state should be omitted")
	}
}

func TestInfo_TextListsFields(t *testing.T) {
	text := Get().Text()
	for _, field := range []string{"gitVersion:", "gitCommit:", "buildDate:", "goVersion:", "platform:"} {
		if !strings.Contains(text, field) {
			t.Errorf("Text() missing %q:\n%s", field, text)
		}
	}
}

func TestGet_RuntimeFields(t *testing.T) {
	info := Get()
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}
