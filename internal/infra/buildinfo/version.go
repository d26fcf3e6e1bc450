package buildinfo

import (
	"fmt"
	"runtime"
)

// Overridden at build time, e.g.:
//
//	go build -ldflags "-X github.com/seralo/botcore/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/seralo/botcore/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
var (
	// Version is the release version; "dev" for local builds.
	Version = "dev"

	// Commit is the git revision the binary was built from.
	Commit = "unknown"

	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)

// Info is a snapshot of the binary's build identity, suitable for
// startup logs and the ops endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build identity of the running binary. The Go
// version comes from the runtime rather than an injected value.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String renders the build identity on one line, as shown by
// `botcore-server --version`.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", Version, Commit, BuildTime, runtime.Version())
}
