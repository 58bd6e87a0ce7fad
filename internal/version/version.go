// Package version exposes build metadata injected at link time, e.g.
//
//	go build -ldflags "-X promptrelay/internal/version.gitVersion=v1.2.0"
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/gosuri/uitable"
)

var (
	gitVersion   = "v0.0.0-dev"
	gitCommit    = "unknown"
	gitTreeState = ""
	buildDate    = "1970-01-01T00:00:00Z"
)

// Info describes the running binary.
type Info struct {
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit"`
	GitTreeState string `json:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate"`
	GoVersion    string `json:"goVersion"`
	Platform     string `json:"platform"`
}

// String returns the version, marked when built from a dirty tree.
func (info Info) String() string {
	if info.GitTreeState == "dirty" {
		return info.GitVersion + "-dirty"
	}
	return info.GitVersion
}

// ShortString returns the bare version.
func (info Info) ShortString() string {
	return info.GitVersion
}

// ToJSON returns the info as indented JSON.
func (info Info) ToJSON() (string, error) {
	s, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal version info: %w", err)
	}
	return string(s), nil
}

// Text renders the info as an aligned table.
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.Separator = " "
	table.AddRow("gitVersion:", info.GitVersion)
	table.AddRow("gitCommit:", info.GitCommit)
	if info.GitTreeState != "" {
		table.AddRow("gitTreeState:", info.GitTreeState)
	}
	table.AddRow("buildDate:", info.BuildDate)
	table.AddRow("goVersion:", info.GoVersion)
	table.AddRow("platform:", info.Platform)
	return table.String()
}

// Get returns the build information of this binary.
func Get() Info {
	return Info{
		GitVersion:   gitVersion,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
