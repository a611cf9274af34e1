package postgres

import "embed"

// Migrations holds the schema, applied at startup through
// pgutil.RunMigrations(dsn, Migrations, MigrationsDir).
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
