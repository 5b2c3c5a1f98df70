// Package assets implements the asset CRUD service and its persistence boundary.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// List defaults applied when the caller omits or mangles paging parameters.
const (
	DefaultPageSize = 10
	FallbackMedia   = "application/octet-stream"
)

// Service validates inputs, enforces file name uniqueness, and maps uploads
// to asset records. All blob content is stripped from metadata responses.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates an asset service over the configured store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "assets")),
	}
}

// List returns one page of asset summaries ordered by file name ascending,
// plus the total count. page is zero-based; count is the page size.
func (s *Service) List(ctx context.Context, page, count int) (Page, error) {
	if s.store == nil {
		return Page{}, errors.New("asset store not configured")
	}
	if page < 0 {
		page = 0
	}
	if count <= 0 {
		count = DefaultPageSize
	}
	items, err := s.store.List(ctx, page*count, count)
	if err != nil {
		return Page{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: page, Count: count}, nil
}

// Get resolves an asset by numeric id or file name and returns it with content.
func (s *Service) Get(ctx context.Context, identifier string) (Asset, error) {
	if s.store == nil {
		return Asset{}, errors.New("asset store not configured")
	}
	return s.resolve(ctx, identifier)
}

// Detail resolves an asset by numeric id or file name and returns its
// metadata record.
func (s *Service) Detail(ctx context.Context, identifier string) (Asset, error) {
	return s.Get(ctx, identifier)
}

// Add persists a new asset from an upload. The file name comes from the
// explicit parameter or the upload's original name; the media type likewise.
// A resolved file name already in use yields ErrDuplicateFileName. The
// returned record has its content cleared.
func (s *Service) Add(ctx context.Context, input Input) (Asset, error) {
	if s.store == nil {
		return Asset{}, errors.New("asset store not configured")
	}
	fileName := resolveFileName(input)
	if fileName == "" {
		return Asset{}, errors.New("file name is required")
	}
	exists, err := s.store.FileNameExists(ctx, fileName)
	if err != nil {
		return Asset{}, err
	}
	if exists {
		return Asset{}, ErrDuplicateFileName
	}

	asset := Asset{
		TypeID:      input.TypeID,
		Description: input.Description,
		FileName:    fileName,
		MediaType:   resolveMediaType(input),
		Content:     input.Content,
	}
	if err := s.store.Insert(ctx, &asset); err != nil {
		return Asset{}, err
	}
	s.logger.Info("asset created", slog.Int64("id", asset.ID), slog.String("file_name", asset.FileName))
	asset.Content = nil
	return asset, nil
}

// Update resolves the target by id or file name and replaces all fields and
// content unconditionally. File name uniqueness is re-checked only when the
// resolved name differs from the identifier the caller used; a name already
// held by a different asset yields ErrDuplicateFileName. The returned record
// has its content cleared.
func (s *Service) Update(ctx context.Context, identifier string, input Input) (Asset, error) {
	if s.store == nil {
		return Asset{}, errors.New("asset store not configured")
	}
	target, err := s.resolve(ctx, identifier)
	if err != nil {
		return Asset{}, err
	}

	fileName := resolveFileName(input)
	if fileName == "" {
		fileName = target.FileName
	}
	if fileName != strings.TrimSpace(identifier) {
		existing, err := s.store.GetByFileName(ctx, fileName)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Asset{}, err
		}
		if err == nil && existing.ID != target.ID {
			return Asset{}, ErrDuplicateFileName
		}
	}

	target.TypeID = input.TypeID
	target.Description = input.Description
	target.FileName = fileName
	target.MediaType = resolveMediaType(input)
	target.Content = input.Content
	if err := s.store.Update(ctx, &target); err != nil {
		return Asset{}, err
	}
	s.logger.Info("asset updated", slog.Int64("id", target.ID), slog.String("file_name", target.FileName))
	target.Content = nil
	return target, nil
}

// Remove resolves the target by id or file name and deletes it.
// TODO: remove dependent child records once the tagging tables land.
func (s *Service) Remove(ctx context.Context, identifier string) error {
	if s.store == nil {
		return errors.New("asset store not configured")
	}
	target, err := s.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, target.ID); err != nil {
		return err
	}
	s.logger.Info("asset deleted", slog.Int64("id", target.ID), slog.String("file_name", target.FileName))
	return nil
}

// resolve tries a numeric id first and falls back to a file name match.
func (s *Service) resolve(ctx context.Context, identifier string) (Asset, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Asset{}, fmt.Errorf("identifier is required: %w", ErrNotFound)
	}
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return s.store.GetByID(ctx, id)
	}
	return s.store.GetByFileName(ctx, identifier)
}

func resolveFileName(input Input) string {
	if name := strings.TrimSpace(input.FileName); name != "" {
		return name
	}
	return strings.TrimSpace(input.UploadName)
}

func resolveMediaType(input Input) string {
	if mt := strings.TrimSpace(input.MediaType); mt != "" {
		return mt
	}
	if mt := strings.TrimSpace(input.UploadMediaType); mt != "" {
		return mt
	}
	return FallbackMedia
}
