// Package appfs ships the assets the binaries need at runtime: page templates,
// seed profiles, the default navigation and the common passwords list.
package appfs

import "embed"

//go:embed templates seed
var FS embed.FS
