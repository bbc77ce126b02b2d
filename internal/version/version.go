package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// GitVersion is a version as described by Git (passed in at build via -ldflags).
var GitVersion string

const revisionLength = 7

// Info describes the running binary.
type Info struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
	Platform  string
}

// Read collects version information from the embedded build info.
func Read() Info {
	info := Info{Version: GitVersion}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = build.GoVersion

	var goos, goarch string
	for _, kv := range build.Settings {
		switch kv.Key {
		case "GOOS":
			goos = kv.Value
		case "GOARCH":
			goarch = kv.Value
		case "vcs.revision":
			info.Revision = kv.Value
			if len(info.Revision) > revisionLength {
				info.Revision = info.Revision[:revisionLength]
			}
		case "vcs.modified":
			info.Modified = kv.Value == "true"
		}
	}
	if goos != "" {
		info.Platform = goos + "/" + goarch
	}
	return info
}

// Short returns only the version number.
func (i Info) Short() string {
	if i.Version != "" && i.Modified {
		return i.Version + "+dirty"
	}
	return i.Version
}

func (i Info) String() string {
	var sb strings.Builder

	version := i.Short()
	if version == "" {
		version = "(untagged)"
	}
	sb.WriteString("vpick version " + version)

	if i.Revision != "" {
		sb.WriteString(" from " + i.Revision)
	}
	if i.GoVersion != "" {
		sb.WriteString(" with " + i.GoVersion)
	}
	if i.Platform != "" {
		sb.WriteString(fmt.Sprintf(" on %s", i.Platform))
	}

	return sb.String()
}
