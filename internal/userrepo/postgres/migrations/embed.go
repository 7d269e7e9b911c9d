package migrations

import "embed"

// Migrations holds the goose SQL migrations of the users table.
//
//go:embed *.sql
var Migrations embed.FS
