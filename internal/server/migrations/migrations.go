// Package migrations embeds the goose SQL migrations for the template store.
// The statements stay within the subset shared by PostgreSQL, MySQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
