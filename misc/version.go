// Package misc keeps program identity values set at build time.
package misc

import (
	"path/filepath"
	"strings"
)

var (
	appName = "cssinjs"
	version = "dev"
	gitHash = "unknown"
)

// GetAppName returns program name without extension.
func GetAppName() string {
	return strings.TrimSuffix(filepath.Base(appName), filepath.Ext(appName))
}

// GetVersion returns program version, overwritten with -ldflags "-X cssinjs/misc.version=...".
func GetVersion() string {
	return version
}

// GetGitHash returns source revision program was built from.
func GetGitHash() string {
	return gitHash
}
