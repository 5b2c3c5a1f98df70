package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/internal/accounts"
	"github.com/filedepot/filedepot/internal/assets"
	"github.com/filedepot/filedepot/internal/auth"
)

const testAccountID = "8f9f0c7e-1c1b-4f4a-9a84-3f1f6e1a2b3c"

type fakeAssetStore struct {
	nextID int64
	items  map[int64]assets.Asset
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{nextID: 1, items: map[int64]assets.Asset{}}
}

func (f *fakeAssetStore) GetByID(_ context.Context, id int64) (assets.Asset, error) {
	asset, ok := f.items[id]
	if !ok {
		return assets.Asset{}, assets.ErrNotFound
	}
	return asset, nil
}

func (f *fakeAssetStore) GetByFileName(_ context.Context, fileName string) (assets.Asset, error) {
	for _, asset := range f.items {
		if asset.FileName == fileName {
			return asset, nil
		}
	}
	return assets.Asset{}, assets.ErrNotFound
}

func (f *fakeAssetStore) List(_ context.Context, offset, limit int) ([]assets.Summary, error) {
	all := make([]assets.Asset, 0, len(f.items))
	for _, asset := range f.items {
		all = append(all, asset)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FileName < all[j].FileName })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	summaries := make([]assets.Summary, len(all))
	for i, asset := range all {
		summaries[i] = assets.Summary{ID: asset.ID, TypeID: asset.TypeID, Description: asset.Description, FileName: asset.FileName, MediaType: asset.MediaType}
	}
	return summaries, nil
}

func (f *fakeAssetStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.items)), nil
}

func (f *fakeAssetStore) FileNameExists(_ context.Context, fileName string) (bool, error) {
	_, err := f.GetByFileName(context.Background(), fileName)
	if errors.Is(err, assets.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeAssetStore) Insert(_ context.Context, asset *assets.Asset) error {
	asset.ID = f.nextID
	f.nextID++
	asset.CreatedAt = time.Now()
	asset.UpdatedAt = asset.CreatedAt
	f.items[asset.ID] = *asset
	return nil
}

func (f *fakeAssetStore) Update(_ context.Context, asset *assets.Asset) error {
	if _, ok := f.items[asset.ID]; !ok {
		return assets.ErrNotFound
	}
	f.items[asset.ID] = *asset
	return nil
}

func (f *fakeAssetStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return assets.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeAccountStore struct {
	records map[string]accounts.Record
}

func (f *fakeAccountStore) GetAccountByID(_ context.Context, id string) (accounts.Record, error) {
	record, ok := f.records[id]
	if !ok {
		return accounts.Record{}, accounts.ErrNotFound
	}
	return record, nil
}

func (f *fakeAccountStore) GetAccountByUsername(_ context.Context, username string) (accounts.Record, error) {
	for _, record := range f.records {
		if record.Username == username {
			return record, nil
		}
	}
	return accounts.Record{}, accounts.ErrNotFound
}

func (f *fakeAccountStore) CountAccounts(_ context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeAccountStore) InsertAccount(_ context.Context, record accounts.Record) error {
	f.records[record.ID] = record
	return nil
}

type fixture struct {
	echo       *echo.Echo
	assetStore *fakeAssetStore
	accStore   *fakeAccountStore
}

func newFixture(t *testing.T, role string, active bool) *fixture {
	t.Helper()

	assetStore := newFakeAssetStore()
	accStore := &fakeAccountStore{records: map[string]accounts.Record{
		testAccountID: {ID: testAccountID, Username: "tester", Role: role, IsActive: active},
	}}

	handler := NewFilesHandler(nil, assets.NewService(nil, assetStore), accounts.NewService(nil, accStore))

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user", &jwt.Token{Claims: &auth.Claims{
				Role: role,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject: testAccountID,
				},
			}})
			return next(c)
		}
	})
	handler.Register(e)

	return &fixture{echo: e, assetStore: assetStore, accStore: accStore}
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	part, err := writer.CreateFormFile("content", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func (f *fixture) do(method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set(echo.HeaderContentType, contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	body, contentType := multipartBody(t, map[string]string{
		"typeId":      "1",
		"description": "logo",
		"fileName":    "logo.png",
		"mediaType":   "image/png",
	}, "upload.png", []byte("png-bytes"))

	rec := f.do(http.MethodPost, "/api/Files", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	var created assets.Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "logo.png", created.FileName)
	require.Equal(t, "image/png", created.MediaType)
	require.Empty(t, created.Content, "create response must not carry the blob")

	get := f.do(http.MethodGet, "/Files/logo.png", nil, "")
	require.Equal(t, http.StatusOK, get.Code)
	require.Equal(t, "image/png", get.Header().Get(echo.HeaderContentType))
	require.Equal(t, "png-bytes", get.Body.String())
}

func TestCreateDuplicateIsSoftError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	fields := map[string]string{"typeId": "1", "description": "logo", "fileName": "logo.png"}

	body, contentType := multipartBody(t, fields, "logo.png", []byte("one"))
	rec := f.do(http.MethodPost, "/Files", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	body, contentType = multipartBody(t, fields, "logo.png", []byte("two"))
	rec = f.do(http.MethodPost, "/Files", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, "duplicate is a soft error, not an HTTP error")

	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.False(t, status.Success)
	require.Len(t, f.assetStore.items, 1)
}

func TestListEmptyStoreMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	rec := f.do(http.MethodGet, "/api/Files", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.False(t, status.Success)
	require.Equal(t, "No Data Available", status.Message)
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	for _, name := range []string{"b.txt", "a.txt", "c.txt"} {
		body, contentType := multipartBody(t, map[string]string{"fileName": name}, name, []byte("x"))
		rec := f.do(http.MethodPost, "/Files", body, contentType)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(http.MethodGet, "/Files?page=0&count=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page assets.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	require.Equal(t, int64(3), page.Total)
	require.Equal(t, "a.txt", page.Items[0].FileName)
	require.Equal(t, "b.txt", page.Items[1].FileName)
}

func TestGetMissingIsBadRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	rec := f.do(http.MethodGet, "/Files/nope.txt", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/Files/99/detail", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMissingIsBadRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	rec := f.do(http.MethodDelete, "/Files/nope.txt", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSuccessful(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	body, contentType := multipartBody(t, map[string]string{"fileName": "bye.txt"}, "bye.txt", []byte("x"))
	rec := f.do(http.MethodPost, "/Files", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/Files/bye.txt", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.True(t, status.Success)
	require.Equal(t, "Delete Successful", status.Message)
	require.Empty(t, f.assetStore.items)
}

func TestAuthorRoleCapabilities(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "author", true)

	// Authors can upload.
	body, contentType := multipartBody(t, map[string]string{"fileName": "doc.txt"}, "doc.txt", []byte("x"))
	rec := f.do(http.MethodPost, "/Files", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	// But not read or delete.
	rec = f.do(http.MethodGet, "/Files", nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodDelete, "/Files/doc.txt", nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInactiveAccountShortCircuitsWrites(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", false)
	body, contentType := multipartBody(t, map[string]string{"fileName": "doc.txt"}, "doc.txt", []byte("x"))
	rec := f.do(http.MethodPost, "/Files", body, contentType)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, f.assetStore.items)

	// Reads do not run the refresh step.
	rec = f.do(http.MethodGet, "/Files", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "editor", true)
	body, contentType := multipartBody(t, map[string]string{"fileName": "v1.txt", "typeId": "1"}, "v1.txt", []byte("one"))
	rec := f.do(http.MethodPost, "/Files", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	body, contentType = multipartBody(t, map[string]string{"fileName": "v2.txt", "typeId": "2", "description": "second"}, "v2.txt", []byte("two"))
	rec = f.do(http.MethodPut, "/Files/v1.txt", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated assets.Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "v2.txt", updated.FileName)
	require.Equal(t, 2, updated.TypeID)
	require.Empty(t, updated.Content)

	get := f.do(http.MethodGet, "/Files/v2.txt", nil, "")
	require.Equal(t, http.StatusOK, get.Code)
	require.Equal(t, "two", get.Body.String())

	body, contentType = multipartBody(t, map[string]string{"fileName": "v3.txt"}, "v3.txt", []byte("three"))
	rec = f.do(http.MethodPut, "/Files/missing.txt", body, contentType)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
