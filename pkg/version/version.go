// Copyright (c) OpenMMLab. All rights reserved.

package version

import (
	"fmt"
	"runtime/debug"
)

// Variables injected at compile time
var (
	Version   = ""        // launcher version v1.0.0
	Commit    = "unknown" // Git commit hash
	BuildTime = "unset"   // Build time
	BuildTag  = "beta"    // Build tag dev alpha beta rc stable hotfix
)

// Get version information from binary
func GetVersionInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Sprintf("%s-%s (built: %s)", Version, BuildTag, BuildTime)
	}

	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}

	if revision != "" {
		if modified == "true" {
			revision += "+localmod"
		}
		return fmt.Sprintf("%s-%s (commit: %s, built: %s)",
			Version, BuildTag, revision, BuildTime)
	}

	return fmt.Sprintf("%s-%s (built: %s)", Version, BuildTag, BuildTime)
}
