package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/filegate"
	filegatehttp "github.com/sagarc03/filegate/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Presign(ctx context.Context, req filegate.PresignRequest) (filegate.PresignResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(filegate.PresignResult), args.Error(1)
}

func (m *MockService) Confirm(ctx context.Context, req filegate.ConfirmRequest) (filegate.FileMeta, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(filegate.FileMeta), args.Error(1)
}

func (m *MockService) List(ctx context.Context, userID string, q filegate.PageQuery) (filegate.Page, error) {
	args := m.Called(ctx, userID, q)
	return args.Get(0).(filegate.Page), args.Error(1)
}

func (m *MockService) Download(ctx context.Context, userID, key string) (filegate.DownloadResult, error) {
	args := m.Called(ctx, userID, key)
	return args.Get(0).(filegate.DownloadResult), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, userID, key string) error {
	args := m.Called(ctx, userID, key)
	return args.Error(0)
}

type stubHealth struct {
	err error
}

func (s stubHealth) Ping(context.Context) error { return s.err }

const testKey = "u1/1700000000000_my_file.pdf"

var testCreatedAt = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

func newTestRouter(service *MockService) http.Handler {
	return filegatehttp.NewHandler(&filegatehttp.HandlerConfig{}, service).Router()
}

func doRequest(h http.Handler, method, target, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		req.Header.Set(filegatehttp.HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandler_Presign_Success(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	service.On("Presign", mock.Anything, filegate.PresignRequest{
		UserID:      "u1",
		Filename:    "my file.pdf",
		ContentType: "application/pdf",
		Size:        12,
	}).Return(filegate.PresignResult{
		URL:       "https://bucket.example/u1/1700000000000_my_file.pdf?X-Amz-Signature=abc",
		Key:       testKey,
		ExpiresIn: 900,
	}, nil)

	rec := doRequest(router, http.MethodPost, "/files/presign", "u1",
		`{"filename":"my file.pdf","contentType":"application/pdf","size":12}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, testKey, body["key"])
	assert.Equal(t, float64(900), body["expiresIn"])
	assert.Contains(t, body["url"], "X-Amz-Signature")

	service.AssertExpectations(t)
}

func TestHandler_Presign_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
	}{
		{
			name:       "blank filename",
			body:       `{"filename":"  ","contentType":"application/pdf","size":12}`,
			wantFields: map[string]string{"filename": "notblank"},
		},
		{
			name:       "missing content type",
			body:       `{"filename":"a.pdf","size":12}`,
			wantFields: map[string]string{"contentType": "notblank"},
		},
		{
			name:       "zero size",
			body:       `{"filename":"a.pdf","contentType":"application/pdf","size":0}`,
			wantFields: map[string]string{"size": "gt"},
		},
		{
			name:       "negative size",
			body:       `{"filename":"a.pdf","contentType":"application/pdf","size":-1}`,
			wantFields: map[string]string{"size": "gt"},
		},
		{
			name: "everything missing",
			body: `{}`,
			wantFields: map[string]string{
				"filename":    "notblank",
				"contentType": "notblank",
				"size":        "gt",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			rec := doRequest(router, http.MethodPost, "/files/presign", "u1", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body filegatehttp.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "validation", body.Error)
			assert.Equal(t, tt.wantFields, body.Fields)

			service.AssertNotCalled(t, "Presign", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Presign_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"malformed", `{"filename":`},
		{"wrong type", `{"filename":"a","contentType":"b","size":"big"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			rec := doRequest(router, http.MethodPost, "/files/presign", "u1", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"validation"`)
			service.AssertNotCalled(t, "Presign", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Presign_UpstreamError(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	service.On("Presign", mock.Anything, mock.Anything).
		Return(filegate.PresignResult{}, fmt.Errorf("presign: %w: signer down", filegate.ErrUpstream))

	rec := doRequest(router, http.MethodPost, "/files/presign", "u1",
		`{"filename":"a.pdf","contentType":"application/pdf","size":1}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"upstream_error"`)
}

func TestHandler_MissingUser(t *testing.T) {
	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/files/presign", `{"filename":"a","contentType":"b","size":1}`},
		{http.MethodPost, "/files/confirm", `{"key":"u1/a","filename":"a","contentType":"b","size":1}`},
		{http.MethodGet, "/files", ""},
		{http.MethodGet, "/files/u1%2Fa.txt/download", ""},
		{http.MethodDelete, "/files/u1%2Fa.txt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			rec := doRequest(router, tt.method, tt.target, "", tt.body)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
			assert.Empty(t, service.Calls)
		})
	}
}

func TestHandler_Confirm_Success(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	service.On("Confirm", mock.Anything, filegate.ConfirmRequest{
		UserID:      "u1",
		Key:         testKey,
		Filename:    "my file.pdf",
		ContentType: "application/pdf",
		Size:        12,
	}).Return(filegate.FileMeta{
		ID:          7,
		Key:         testKey,
		Filename:    "my file.pdf",
		ContentType: "application/pdf",
		Size:        12,
		UserID:      "u1",
		CreatedAt:   testCreatedAt,
	}, nil)

	rec := doRequest(router, http.MethodPost, "/files/confirm", "u1",
		`{"key":"u1/1700000000000_my_file.pdf","filename":"my file.pdf","contentType":"application/pdf","size":12}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, testKey, body["key"])
	assert.Equal(t, "my file.pdf", body["filename"])
	assert.Equal(t, "2023-11-14T22:13:20Z", body["createdAt"])
	assert.NotContains(t, body, "userId")

	service.AssertExpectations(t)
}

func TestHandler_Confirm_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"conflict", filegate.ErrConflict, http.StatusConflict, "conflict"},
		{"forbidden", filegate.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"invalid key", filegate.ErrInvalidInput, http.StatusBadRequest, "validation"},
		{"not uploaded", filegate.ErrNotFound, http.StatusNotFound, "not_found"},
		{"database down", filegate.ErrUpstream, http.StatusInternalServerError, "upstream_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			service.On("Confirm", mock.Anything, mock.Anything).
				Return(filegate.FileMeta{}, fmt.Errorf("confirm: %w", tt.err))

			rec := doRequest(router, http.MethodPost, "/files/confirm", "u1",
				`{"key":"u1/1_a.txt","filename":"a.txt","contentType":"text/plain","size":3}`)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"`+tt.wantKind+`"`)
		})
	}
}

func TestHandler_Confirm_Validation(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	rec := doRequest(router, http.MethodPost, "/files/confirm", "u1",
		`{"key":"","filename":"a.txt","contentType":"text/plain","size":3}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body filegatehttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"key": "notblank"}, body.Fields)
	service.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestHandler_List_Success(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	q := filegate.PageQuery{Page: 1, Size: 5}
	service.On("List", mock.Anything, "u1", q).Return(filegate.NewPage([]filegate.FileMeta{
		{
			ID:          3,
			Key:         testKey,
			Filename:    "my file.pdf",
			ContentType: "application/pdf",
			Size:        12,
			UserID:      "u1",
			CreatedAt:   testCreatedAt,
		},
	}, q, 6), nil)

	rec := doRequest(router, http.MethodGet, "/files?page=1&size=5", "u1", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(5), body["size"])
	assert.Equal(t, float64(2), body["totalPages"])
	assert.Equal(t, float64(6), body["totalElements"])

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(3), item["id"])
	assert.Equal(t, testKey, item["key"])
	assert.Equal(t, "my file.pdf", item["filename"])
	assert.Equal(t, float64(12), item["size"])
	assert.Equal(t, "application/pdf", item["contentType"])
	assert.Equal(t, "2023-11-14T22:13:20Z", item["createdAt"])
	assert.NotContains(t, item, "userId")

	service.AssertExpectations(t)
}

func TestHandler_List_Defaults(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	q := filegate.PageQuery{Page: 0, Size: 20}
	service.On("List", mock.Anything, "u2", q).Return(filegate.NewPage(nil, q, 0), nil)

	for _, target := range []string{"/files", "/files/"} {
		rec := doRequest(router, http.MethodGet, target, "u2", "")

		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"items":[]`, target)
	}

	service.AssertExpectations(t)
}

func TestHandler_List_SizeCapped(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	q := filegate.PageQuery{Page: 0, Size: 1000}
	service.On("List", mock.Anything, "u1", q).Return(filegate.NewPage(nil, q, 0), nil)

	rec := doRequest(router, http.MethodGet, "/files?size=50000", "u1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestHandler_List_InvalidQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantFields map[string]string
	}{
		{"negative page", "?page=-1", map[string]string{"page": "min"}},
		{"zero size", "?size=0", map[string]string{"size": "min"}},
		{"non numeric", "?page=x&size=y", map[string]string{"page": "number", "size": "number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			rec := doRequest(router, http.MethodGet, "/files"+tt.query, "u1", "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body filegatehttp.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantFields, body.Fields)
			service.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Download_Success(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"encoded slash", "/files/u1%2F1700000000000_my_file.pdf/download"},
		{"literal slash", "/files/u1/1700000000000_my_file.pdf/download"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			service.On("Download", mock.Anything, "u1", testKey).Return(filegate.DownloadResult{
				URL:       "https://bucket.example/" + testKey + "?X-Amz-Signature=abc",
				ExpiresIn: 900,
			}, nil)

			rec := doRequest(router, http.MethodGet, tt.target, "u1", "")

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			assert.NotEmpty(t, body["downloadUrl"])
			assert.Equal(t, float64(900), body["expiresIn"])

			service.AssertExpectations(t)
		})
	}
}

func TestHandler_Download_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"forbidden", filegate.ErrForbidden, http.StatusForbidden},
		{"not found", filegate.ErrNotFound, http.StatusNotFound},
		{"upstream", filegate.ErrUpstream, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			service.On("Download", mock.Anything, "u2", testKey).
				Return(filegate.DownloadResult{}, fmt.Errorf("download: %w", tt.err))

			rec := doRequest(router, http.MethodGet, "/files/u1%2F1700000000000_my_file.pdf/download", "u2", "")

			assert.Equal(t, tt.wantCode, rec.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestHandler_Download_NoSuffix(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	rec := doRequest(router, http.MethodGet, "/files/u1%2Fa.txt", "u1", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	service.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Delete_Success(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	service.On("Delete", mock.Anything, "u1", testKey).Return(nil)

	rec := doRequest(router, http.MethodDelete, "/files/u1%2F1700000000000_my_file.pdf", "u1", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	service.AssertExpectations(t)
}

func TestHandler_Delete_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"forbidden", filegate.ErrForbidden, http.StatusForbidden},
		{"not found", filegate.ErrNotFound, http.StatusNotFound},
		{"blob delete failed", filegate.ErrUpstream, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			service.On("Delete", mock.Anything, "u1", testKey).Return(fmt.Errorf("delete: %w", tt.err))

			rec := doRequest(router, http.MethodDelete, "/files/u1/1700000000000_my_file.pdf", "u1", "")

			assert.Equal(t, tt.wantCode, rec.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		name     string
		health   filegatehttp.HealthChecker
		wantCode int
	}{
		{"no checker", nil, http.StatusOK},
		{"healthy", stubHealth{}, http.StatusOK},
		{"unhealthy", stubHealth{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := filegatehttp.NewHandler(&filegatehttp.HandlerConfig{Health: tt.health}, service).Router()

			rec := doRequest(router, http.MethodGet, "/healthz", "", "")

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
			}
		})
	}
}

func TestHandler_RequestIDHeader(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	rec := doRequest(router, http.MethodGet, "/healthz", "", "")

	assert.NotEmpty(t, rec.Header().Get(filegatehttp.HeaderRequestID))
}

func TestHandler_Gzip(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	q := filegate.PageQuery{Page: 0, Size: 100}
	items := make([]filegate.FileMeta, 0, 100)
	for i := range 100 {
		items = append(items, filegate.FileMeta{
			ID:          int64(i + 1),
			Key:         fmt.Sprintf("u1/1700000000000_file_%03d.txt", i),
			Filename:    fmt.Sprintf("file %03d.txt", i),
			ContentType: "text/plain",
			Size:        10,
			UserID:      "u1",
			CreatedAt:   testCreatedAt,
		})
	}
	service.On("List", mock.Anything, "u1", q).Return(filegate.NewPage(items, q, 100), nil)

	req := httptest.NewRequest(http.MethodGet, "/files?size=100", nil)
	req.Header.Set(filegatehttp.HeaderUserID, "u1")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestHandler_CORS_Disabled(t *testing.T) {
	config := &filegatehttp.HandlerConfig{
		CORS: filegatehttp.CORSConfig{Enabled: false},
	}
	service := new(MockService)
	handler := filegatehttp.NewHandler(config, service)

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_CORS_Enabled_Preflight(t *testing.T) {
	config := &filegatehttp.HandlerConfig{
		CORS: filegatehttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-User-Id"},
			MaxAge:         300,
		},
	}
	service := new(MockService)
	handler := filegatehttp.NewHandler(config, service)

	req := httptest.NewRequest("OPTIONS", "/files/presign", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-User-Id")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
}

func TestHandler_CORS_Enabled_ActualRequest(t *testing.T) {
	config := &filegatehttp.HandlerConfig{
		CORS: filegatehttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "DELETE"},
			ExposedHeaders: []string{"X-Request-Id"},
		},
	}
	service := new(MockService)
	handler := filegatehttp.NewHandler(config, service)

	q := filegate.PageQuery{Page: 0, Size: 20}
	service.On("List", mock.Anything, "u1", q).Return(filegate.NewPage(nil, q, 0), nil)

	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set(filegatehttp.HeaderUserID, "u1")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id")
}
