// Package version reports the build of the running resolvd binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/example/resolvd/internal/version.Version=v1.2.0" and
// likewise for Commit and BuildTime. Unset values fall back to the VCS stamp
// the go tool embeds in the binary.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info is the resolved build description.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	Modified  bool
}

// Get resolves the build description.
func Get() Info {
	return resolve(debug.ReadBuildInfo)
}

func resolve(read func() (*debug.BuildInfo, bool)) Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
	if bi, ok := read(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// String renders the build for logs, the health endpoint and --version.
func (i Info) String() string {
	commit := i.Commit
	if commit == "" {
		commit = "unknown"
	}
	if i.Modified {
		commit += "-dirty"
	}
	if i.BuildTime == "" {
		return fmt.Sprintf("resolvd %s (%s)", i.Version, commit)
	}
	return fmt.Sprintf("resolvd %s (%s, %s)", i.Version, commit, i.BuildTime)
}

// String returns the build description of the running binary.
func String() string {
	return Get().String()
}
