package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema history applied by `migrate` and on start.
var Migrations = migrate.NewMigrations()
