// Package migrations embeds the SQL schema migrations applied by goose.
package migrations

import "embed"

// FS holds every versioned migration file.
//
//go:embed *.sql
var FS embed.FS
