// Package version reports what build of farm-sync is running.
package version

import (
	"fmt"
	"runtime"
)

// Stamped at build time:
//
//	go build -ldflags "-X .../version.Version=v0.3.0 -X .../version.CommitHash=$(git rev-parse HEAD)"
//
// An unstamped binary reports itself as a dev build.
var (
	Version    = "dev"
	CommitHash = "dev"
	BuildTime  = "unknown"
)

// Info is the full build record, shaped for `farm-sync version --json`.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get snapshots the stamped variables together with the runtime environment.
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the one-line form shown by `farm-sync version`.
func (i Info) String() string {
	return fmt.Sprintf("farm-sync %s (commit %s, built %s)", i.Version, i.Short(), i.BuildTime)
}

// Short abbreviates the commit hash to the usual seven characters.
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
