// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "runtime/debug"

// Inject via: -X github.com/decoders-hk/centre-assistant-go/internal/buildinfo.Version=...
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// Release returns the identifier reported to Sentry and on /livez:
// Version when injected, else the VCS revision stamped by the Go
// toolchain, else "dev".
func Release() string {
	if Version != "" {
		return Version
	}
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return "dev"
}
