// Package db embeds the versioned SQL migrations of the registrar schema.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
