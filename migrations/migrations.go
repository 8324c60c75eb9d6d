// Package migrations embeds the ClickHouse schema migrations run by goose.
package migrations

import "embed"

// FS holds the *.sql migration files
//
//go:embed *.sql
var FS embed.FS
