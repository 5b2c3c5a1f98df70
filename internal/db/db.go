// Package db provides database connections, DSN construction, and schema migrations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/filedepot/filedepot/internal/config"
)

// OpenPostgres opens a pgx connection pool for the PostgreSQL backend.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, DSN(cfg))
}

// OpenSQLServer opens a database/sql handle for the SQL Server backend.
func OpenSQLServer(cfg config.DatabaseConfig) (*sql.DB, error) {
	return sql.Open("sqlserver", DSN(cfg))
}

// DSN builds a connection string for the configured backend driver.
func DSN(cfg config.DatabaseConfig) string {
	switch cfg.Driver {
	case config.DriverSQLServer:
		return fmt.Sprintf(
			"sqlserver://%s:%s@%s:%d?database=%s",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Database,
		)
	default:
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Database,
			cfg.SSLMode,
		)
	}
}

// SQL Server error numbers for unique constraint violations.
const (
	mssqlUniqueConstraint = 2627
	mssqlUniqueIndex      = 2601
)

// IsUniqueViolation reports whether err is a unique constraint violation from
// either backend (PostgreSQL SQLSTATE 23505, SQL Server errors 2627/2601).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlUniqueConstraint || msErr.Number == mssqlUniqueIndex
	}
	return false
}
