package db

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlserver"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/filedepot/filedepot/internal/config"
)

// schemaSet is one independently versioned migration set. The server schema
// holds identity tables, the content schema holds asset tables; each tracks
// its own version in a dedicated migrations table.
type schemaSet struct {
	name  string
	table string
}

var schemaSets = []schemaSet{
	{name: "server", table: "server_schema_migrations"},
	{name: "content", table: "content_schema_migrations"},
}

// Migrate applies all pending migrations for both schema sets against the
// configured backend. It runs synchronously at startup; any failure is fatal
// to the caller. The migrationsFS must contain <driver>/<set>/*.sql files.
func Migrate(logger *slog.Logger, cfg config.DatabaseConfig, migrationsFS fs.FS) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}

	for _, set := range schemaSets {
		if err := migrateSet(logger, cfg, migrationsFS, set); err != nil {
			return fmt.Errorf("%s schema: %w", set.name, err)
		}
	}
	return nil
}

func migrateSet(logger *slog.Logger, cfg config.DatabaseConfig, migrationsFS fs.FS, set schemaSet) error {
	sourceDriver, err := iofs.New(migrationsFS, path.Join("migrations", cfg.Driver, set.name))
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	// Both backend DSNs already carry a query string, so append with "&".
	dsn := DSN(cfg) + "&x-migrations-table=" + set.table

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{logger: logger.With(slog.String("schema", set.name))}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	ver, dirty, _ := m.Version()
	logger.Info("migration complete",
		slog.String("schema", set.name),
		slog.Uint64("version", uint64(ver)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
