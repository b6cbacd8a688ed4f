// Package migrations holds the users collection schema.
package migrations

import "embed"

//go:embed *.json
var FS embed.FS
