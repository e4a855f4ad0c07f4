// Package migrations embeds the per-driver schema migrations so that a
// deployed binary never depends on an on-disk migrations directory.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
