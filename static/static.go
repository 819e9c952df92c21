// Package static holds the embedded management page.
package static

import "embed"

//go:embed index.html
var FS embed.FS
