// Package postgres implements the asset and account stores on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filedepot/filedepot/internal/accounts"
	"github.com/filedepot/filedepot/internal/assets"
	"github.com/filedepot/filedepot/internal/db"
)

// Store implements assets.Store and accounts.Store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const assetColumns = "id, type_id, description, file_name, media_type, content, created_at, updated_at"

// GetByID returns the full asset, content included.
func (s *Store) GetByID(ctx context.Context, id int64) (assets.Asset, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id = $1", id)
	return scanAsset(row)
}

// GetByFileName returns the full asset matching the unique file name.
func (s *Store) GetByFileName(ctx context.Context, fileName string) (assets.Asset, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE file_name = $1", fileName)
	return scanAsset(row)
}

// List returns asset summaries ordered by file name ascending.
func (s *Store) List(ctx context.Context, offset, limit int) ([]assets.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, type_id, description, file_name, media_type
		 FROM assets ORDER BY file_name ASC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]assets.Summary, 0, limit)
	for rows.Next() {
		var item assets.Summary
		if err := rows.Scan(&item.ID, &item.TypeID, &item.Description, &item.FileName, &item.MediaType); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the total number of stored assets.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM assets").Scan(&total)
	return total, err
}

// FileNameExists reports whether any asset uses the given file name.
func (s *Store) FileNameExists(ctx context.Context, fileName string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM assets WHERE file_name = $1)", fileName).Scan(&exists)
	return exists, err
}

// Insert persists a new asset and fills its ID and timestamps.
func (s *Store) Insert(ctx context.Context, asset *assets.Asset) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO assets (type_id, description, file_name, media_type, content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		asset.TypeID, asset.Description, asset.FileName, asset.MediaType, asset.Content,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return assets.ErrDuplicateFileName
	}
	return err
}

// Update replaces all fields of the asset identified by asset.ID.
func (s *Store) Update(ctx context.Context, asset *assets.Asset) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE assets
		 SET type_id = $1, description = $2, file_name = $3, media_type = $4, content = $5, updated_at = now()
		 WHERE id = $6
		 RETURNING updated_at`,
		asset.TypeID, asset.Description, asset.FileName, asset.MediaType, asset.Content, asset.ID,
	).Scan(&asset.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return assets.ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return assets.ErrDuplicateFileName
	}
	return err
}

// Delete removes the asset by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM assets WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return assets.ErrNotFound
	}
	return nil
}

// GetAccountByID returns the account record by id.
func (s *Store) GetAccountByID(ctx context.Context, id string) (accounts.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, is_active, created_at, updated_at
		 FROM accounts WHERE id = $1::uuid`, id)
	return scanAccount(row)
}

// GetAccountByUsername returns the account record by username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (accounts.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, is_active, created_at, updated_at
		 FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// CountAccounts returns the number of account rows.
func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM accounts").Scan(&total)
	return total, err
}

// InsertAccount persists a new account record.
func (s *Store) InsertAccount(ctx context.Context, record accounts.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, username, password_hash, role, is_active)
		 VALUES ($1::uuid, $2, $3, $4, $5)`,
		record.ID, record.Username, record.PasswordHash, record.Role, record.IsActive)
	return err
}

func scanAsset(row pgx.Row) (assets.Asset, error) {
	var asset assets.Asset
	err := row.Scan(&asset.ID, &asset.TypeID, &asset.Description, &asset.FileName,
		&asset.MediaType, &asset.Content, &asset.CreatedAt, &asset.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return assets.Asset{}, assets.ErrNotFound
	}
	return asset, err
}

func scanAccount(row pgx.Row) (accounts.Record, error) {
	var record accounts.Record
	err := row.Scan(&record.ID, &record.Username, &record.PasswordHash,
		&record.Role, &record.IsActive, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return accounts.Record{}, accounts.ErrNotFound
	}
	return record, err
}
