package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/ggonzalez94/xswap-sdk/internal/version.Commit=...".
var (
	CLIName    = "xswap"
	CLIVersion = "0.1.0"
	Commit     = "unknown"
	BuildDate  = "unknown"
)

// Long adds build metadata. A binary built without ldflags falls back to the VCS revision
// recorded by the Go toolchain.
func Long() string {
	commit := Commit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" && setting.Value != "" {
					commit = setting.Value
				}
			}
		}
	}
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s %s/%s)", CLIName, CLIVersion, commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
