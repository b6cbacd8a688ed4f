// Package migrations holds the listings collection indexes.
package migrations

import "embed"

//go:embed *.json
var FS embed.FS
