package version

import "runtime/debug"

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
	// BuildTime is the build timestamp (set via -ldflags).
	BuildTime = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

// Resolve returns the ldflags values, filling gaps from the binary's
// embedded build info.
func Resolve() Info {
	resolved := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if resolved.Commit == "" {
					resolved.Commit = s.Value
				}
			case "vcs.time":
				if resolved.BuildTime == "" {
					resolved.BuildTime = s.Value
				}
			}
		}
		if resolved.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			resolved.Version = bi.Main.Version
		}
	}

	if resolved.Version == "" {
		resolved.Version = "dev"
	}
	return resolved
}

func String() string {
	info := Resolve()
	if info.Commit == "" {
		return info.Version
	}
	return info.Version + " (" + shortCommit(info.Commit) + ")"
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
