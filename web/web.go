// Package web embeds the daemon's static single-page fallback (spec §6:
// "non-/api paths return the embedded index.html").
package web

import "embed"

//go:embed index.html
var files embed.FS

// Files is the embedded static asset tree, rooted at this package's
// directory.
var Files = files
