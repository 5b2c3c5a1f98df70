// Package sqlserver implements the asset and account stores on SQL Server.
package sqlserver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/filedepot/filedepot/internal/accounts"
	"github.com/filedepot/filedepot/internal/assets"
	"github.com/filedepot/filedepot/internal/db"
)

// Store implements assets.Store and accounts.Store over a database/sql handle
// using the go-mssqldb driver.
type Store struct {
	handle *sql.DB
}

// NewStore creates a SQL Server-backed store.
func NewStore(handle *sql.DB) *Store {
	return &Store{handle: handle}
}

const assetColumns = "id, type_id, description, file_name, media_type, content, created_at, updated_at"

// GetByID returns the full asset, content included.
func (s *Store) GetByID(ctx context.Context, id int64) (assets.Asset, error) {
	row := s.handle.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id = @p1", id)
	return scanAsset(row)
}

// GetByFileName returns the full asset matching the unique file name.
func (s *Store) GetByFileName(ctx context.Context, fileName string) (assets.Asset, error) {
	row := s.handle.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE file_name = @p1", fileName)
	return scanAsset(row)
}

// List returns asset summaries ordered by file name ascending.
func (s *Store) List(ctx context.Context, offset, limit int) ([]assets.Summary, error) {
	rows, err := s.handle.QueryContext(ctx,
		`SELECT id, type_id, description, file_name, media_type
		 FROM assets ORDER BY file_name ASC
		 OFFSET @p1 ROWS FETCH NEXT @p2 ROWS ONLY`, offset, limit)
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
	err := s.handle.QueryRowContext(ctx, "SELECT count_big(*) FROM assets").Scan(&total)
	return total, err
}

// FileNameExists reports whether any asset uses the given file name.
func (s *Store) FileNameExists(ctx context.Context, fileName string) (bool, error) {
	var flag int
	err := s.handle.QueryRowContext(ctx,
		`SELECT CASE WHEN EXISTS (SELECT 1 FROM assets WHERE file_name = @p1) THEN 1 ELSE 0 END`,
		fileName).Scan(&flag)
	return flag == 1, err
}

// Insert persists a new asset and fills its ID and timestamps.
func (s *Store) Insert(ctx context.Context, asset *assets.Asset) error {
	err := s.handle.QueryRowContext(ctx,
		`INSERT INTO assets (type_id, description, file_name, media_type, content)
		 OUTPUT INSERTED.id, INSERTED.created_at, INSERTED.updated_at
		 VALUES (@p1, @p2, @p3, @p4, @p5)`,
		asset.TypeID, asset.Description, asset.FileName, asset.MediaType, asset.Content,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return assets.ErrDuplicateFileName
	}
	return err
}

// Update replaces all fields of the asset identified by asset.ID.
func (s *Store) Update(ctx context.Context, asset *assets.Asset) error {
	err := s.handle.QueryRowContext(ctx,
		`UPDATE assets
		 SET type_id = @p1, description = @p2, file_name = @p3, media_type = @p4, content = @p5, updated_at = SYSDATETIMEOFFSET()
		 OUTPUT INSERTED.updated_at
		 WHERE id = @p6`,
		asset.TypeID, asset.Description, asset.FileName, asset.MediaType, asset.Content, asset.ID,
	).Scan(&asset.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return assets.ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return assets.ErrDuplicateFileName
	}
	return err
}

// Delete removes the asset by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.handle.ExecContext(ctx, "DELETE FROM assets WHERE id = @p1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return assets.ErrNotFound
	}
	return nil
}

// GetAccountByID returns the account record by id.
func (s *Store) GetAccountByID(ctx context.Context, id string) (accounts.Record, error) {
	row := s.handle.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, is_active, created_at, updated_at
		 FROM accounts WHERE id = @p1`, id)
	return scanAccount(row)
}

// GetAccountByUsername returns the account record by username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (accounts.Record, error) {
	row := s.handle.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, is_active, created_at, updated_at
		 FROM accounts WHERE username = @p1`, username)
	return scanAccount(row)
}

// CountAccounts returns the number of account rows.
func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	var total int64
	err := s.handle.QueryRowContext(ctx, "SELECT count_big(*) FROM accounts").Scan(&total)
	return total, err
}

// InsertAccount persists a new account record.
func (s *Store) InsertAccount(ctx context.Context, record accounts.Record) error {
	_, err := s.handle.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, role, is_active)
		 VALUES (@p1, @p2, @p3, @p4, @p5)`,
		record.ID, record.Username, record.PasswordHash, record.Role, record.IsActive)
	return err
}

func scanAsset(row *sql.Row) (assets.Asset, error) {
	var asset assets.Asset
	err := row.Scan(&asset.ID, &asset.TypeID, &asset.Description, &asset.FileName,
		&asset.MediaType, &asset.Content, &asset.CreatedAt, &asset.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return assets.Asset{}, assets.ErrNotFound
	}
	return asset, err
}

func scanAccount(row *sql.Row) (accounts.Record, error) {
	var record accounts.Record
	err := row.Scan(&record.ID, &record.Username, &record.PasswordHash,
		&record.Role, &record.IsActive, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return accounts.Record{}, accounts.ErrNotFound
	}
	return record, err
}
