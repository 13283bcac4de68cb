// Package migrations embeds the SQL schema migrations for the report archive.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
