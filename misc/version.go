// Package misc keeps program identity, values are set at build time with
// -ldflags "-X cssb/misc.version=... -X cssb/misc.gitHash=...".
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

var (
	version = "dev"
	gitHash = "unknown"
	appName = ""
)

// GetAppName returns program name derived from executable.
func GetAppName() string {
	if appName != "" {
		return appName
	}
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
