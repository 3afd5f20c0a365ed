// Package db embeds the goose SQL migrations into the binary.
package db

import "embed"

// MigrationsDir is the directory of the migrations inside Migrations.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var Migrations embed.FS
