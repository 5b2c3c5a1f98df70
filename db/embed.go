package db

import "embed"

// MigrationsFS contains the per-driver SQL migration sets embedded at compile
// time, laid out as migrations/<driver>/<schema>/*.sql.
//
//go:embed migrations
var MigrationsFS embed.FS
