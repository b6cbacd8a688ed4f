// Package migrations holds the bookings collection indexes.
package migrations

import "embed"

//go:embed *.json
var FS embed.FS
