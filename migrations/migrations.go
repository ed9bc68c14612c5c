// Package migrations embeds the SQL schema migrations for the capability hub.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
