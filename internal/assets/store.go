package assets

import (
	"context"
	"errors"
)

// Errors returned by asset operations.
var (
	ErrNotFound          = errors.New("asset not found")
	ErrDuplicateFileName = errors.New("an asset with this file name already exists")
)

// Store is the persistence boundary for assets. One implementation is chosen
// at startup from configuration (PostgreSQL or SQL Server); callers never
// branch on the backend again.
type Store interface {
	// GetByID returns the full asset, content included. ErrNotFound when absent.
	GetByID(ctx context.Context, id int64) (Asset, error)
	// GetByFileName returns the full asset matching the unique file name.
	GetByFileName(ctx context.Context, fileName string) (Asset, error)
	// List returns summaries ordered by file name ascending.
	List(ctx context.Context, offset, limit int) ([]Summary, error)
	// Count returns the total number of stored assets.
	Count(ctx context.Context) (int64, error)
	// FileNameExists reports whether any asset uses the given file name.
	FileNameExists(ctx context.Context, fileName string) (bool, error)
	// Insert persists a new asset and fills its ID and timestamps.
	// Unique file name violations surface as ErrDuplicateFileName.
	Insert(ctx context.Context, asset *Asset) error
	// Update replaces all fields of the asset identified by asset.ID.
	Update(ctx context.Context, asset *Asset) error
	// Delete removes the asset by id. ErrNotFound when no row matches.
	Delete(ctx context.Context, id int64) error
}
