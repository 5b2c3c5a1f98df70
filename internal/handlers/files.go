package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/filedepot/filedepot/internal/accounts"
	"github.com/filedepot/filedepot/internal/assets"
	"github.com/filedepot/filedepot/internal/auth"
)

// FilesHandler serves the asset CRUD surface under /Files and /api/Files.
type FilesHandler struct {
	service        *assets.Service
	accountService *accounts.Service
	logger         *slog.Logger
}

// NewFilesHandler creates the files handler.
func NewFilesHandler(log *slog.Logger, service *assets.Service, accountService *accounts.Service) *FilesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FilesHandler{
		service:        service,
		accountService: accountService,
		logger:         log.With(slog.String("handler", "files")),
	}
}

// Register mounts the asset routes under both route prefixes.
func (h *FilesHandler) Register(e *echo.Echo) {
	for _, g := range []*echo.Group{e.Group("/Files"), e.Group("/api/Files")} {
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:value", h.Get)
		g.GET("/:value/detail", h.Detail)
		g.PUT("/:value", h.Update)
		g.DELETE("/:value", h.Delete)
	}
}

// List returns a page of asset summaries ordered by file name. An empty store
// yields a 200 soft-error body instead of an empty list.
func (h *FilesHandler) List(c echo.Context) error {
	h.logRequest(c)
	if err := h.requireCapability(c, auth.CapAssetsRead); err != nil {
		return err
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	count, _ := strconv.Atoi(c.QueryParam("count"))
	result, err := h.service.List(c.Request().Context(), page, count)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(result.Items) == 0 {
		return c.JSON(http.StatusOK, StatusResponse{Success: false, Message: "No Data Available"})
	}
	return c.JSON(http.StatusOK, result)
}

// Get resolves an asset by id or file name and returns the raw content bytes
// with the stored media type.
func (h *FilesHandler) Get(c echo.Context) error {
	h.logRequest(c)
	if err := h.requireCapability(c, auth.CapAssetsRead); err != nil {
		return err
	}
	asset, err := h.service.Get(c.Request().Context(), c.Param("value"))
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "File Not Found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, asset.MediaType, asset.Content)
}

// Detail resolves an asset by id or file name and returns its metadata record.
func (h *FilesHandler) Detail(c echo.Context) error {
	h.logRequest(c)
	if err := h.requireCapability(c, auth.CapAssetsRead); err != nil {
		return err
	}
	asset, err := h.service.Detail(c.Request().Context(), c.Param("value"))
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "File Not Found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, asset)
}

// Create stores a new asset from a multipart upload. A duplicate resolved
// file name is a 200 soft error, not an HTTP error.
func (h *FilesHandler) Create(c echo.Context) error {
	if err := h.requireCapability(c, auth.CapAssetsWrite); err != nil {
		return err
	}
	if err := h.refreshCaller(c); err != nil {
		return err
	}
	input, err := h.bindUpload(c)
	if err != nil {
		return err
	}
	asset, err := h.service.Add(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, assets.ErrDuplicateFileName) {
			return c.JSON(http.StatusOK, StatusResponse{Success: false, Message: err.Error()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, asset)
}

// Update replaces an existing asset's fields and content from a multipart upload.
func (h *FilesHandler) Update(c echo.Context) error {
	if err := h.requireCapability(c, auth.CapAssetsWrite); err != nil {
		return err
	}
	if err := h.refreshCaller(c); err != nil {
		return err
	}
	input, err := h.bindUpload(c)
	if err != nil {
		return err
	}
	asset, err := h.service.Update(c.Request().Context(), c.Param("value"), input)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "File Not Found")
		}
		if errors.Is(err, assets.ErrDuplicateFileName) {
			return c.JSON(http.StatusOK, StatusResponse{Success: false, Message: err.Error()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, asset)
}

// Delete removes an asset by id or file name.
func (h *FilesHandler) Delete(c echo.Context) error {
	if err := h.requireCapability(c, auth.CapAssetsDelete); err != nil {
		return err
	}
	if err := h.refreshCaller(c); err != nil {
		return err
	}
	if err := h.service.Remove(c.Request().Context(), c.Param("value")); err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "File Not Found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, StatusResponse{Success: true, Message: "Delete Successful"})
}

// bindUpload maps the multipart form (typeId, description, content,
// mediaType?, fileName?) to an asset input, reading the whole upload into
// memory. A negative declared length is a bad request.
func (h *FilesHandler) bindUpload(c echo.Context) (assets.Input, error) {
	typeID, _ := strconv.Atoi(c.FormValue("typeId"))
	input := assets.Input{
		TypeID:      typeID,
		Description: c.FormValue("description"),
		FileName:    c.FormValue("fileName"),
		MediaType:   c.FormValue("mediaType"),
	}

	fileHeader, err := c.FormFile("content")
	if err != nil {
		return assets.Input{}, echo.NewHTTPError(http.StatusBadRequest, "content file is required")
	}
	if fileHeader.Size < 0 {
		return assets.Input{}, echo.NewHTTPError(http.StatusBadRequest, "invalid content length")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return assets.Input{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return assets.Input{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	input.Content = content
	input.UploadName = fileHeader.Filename
	input.UploadMediaType = fileHeader.Header.Get("Content-Type")
	return input, nil
}

func (h *FilesHandler) requireCapability(c echo.Context, cap auth.Capability) error {
	role, err := auth.RoleFromContext(c)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	if !auth.Allowed(role, cap) {
		return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
	}
	return nil
}

// refreshCaller re-validates the caller's account before a write runs; a
// vanished or deactivated account short-circuits the request.
func (h *FilesHandler) refreshCaller(c echo.Context) error {
	if h.accountService == nil {
		return nil
	}
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	if _, err := h.accountService.Refresh(c.Request().Context(), userID); err != nil {
		if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, accounts.ErrInactiveAccount) {
			return echo.NewHTTPError(http.StatusUnauthorized, "account access expired")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return nil
}

func (h *FilesHandler) logRequest(c echo.Context) {
	h.logger.Info("asset request",
		slog.String("method", c.Request().Method),
		slog.String("path", c.Request().URL.Path),
		slog.String("value", c.Param("value")),
	)
}
