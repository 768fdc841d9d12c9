package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sagarc03/filegate"
)

type Service interface {
	Presign(ctx context.Context, req filegate.PresignRequest) (filegate.PresignResult, error)
	Confirm(ctx context.Context, req filegate.ConfirmRequest) (filegate.FileMeta, error)
	List(ctx context.Context, userID string, q filegate.PageQuery) (filegate.Page, error)
	Download(ctx context.Context, userID, key string) (filegate.DownloadResult, error)
	Delete(ctx context.Context, userID, key string) error
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// RequestTimeout bounds each request's context. Zero disables it.
	RequestTimeout time.Duration
	// Health is pinged by GET /healthz. Nil always reports ok.
	Health HealthChecker
}

// Handler provides HTTP handlers for the file API.
type Handler struct {
	config    HandlerConfig
	service   Service
	validator *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:    *config,
		service:   service,
		validator: newValidator(),
	}
}

// Router returns the gzip-wrapped http.Handler serving /healthz and /files.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	if h.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(h.config.RequestTimeout))
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)

	r.Route("/files", func(r chi.Router) {
		r.Use(UserIDMiddleware)
		r.Post("/presign", h.handlePresign)
		r.Post("/confirm", h.handleConfirm)
		r.Get("/", h.handleList)
		r.Get("/*", h.handleDownload)
		r.Delete("/*", h.handleDelete)
	})

	return gzhttp.GzipHandler(r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.config.Health != nil {
		if err := h.config.Health.Ping(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "unavailable", "Database unreachable")
			return
		}
	}
	_ = WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) handlePresign(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	res, err := h.service.Presign(r.Context(), filegate.PresignRequest{
		UserID:      UserIDFrom(r.Context()),
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, presignResponse{
		URL:       res.URL,
		Key:       res.Key,
		ExpiresIn: res.ExpiresIn,
	})
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	meta, err := h.service.Confirm(r.Context(), filegate.ConfirmRequest{
		UserID:      UserIDFrom(r.Context()),
		Key:         req.Key,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, confirmResponse{
		ID:        meta.ID,
		Key:       meta.Key,
		Filename:  meta.Filename,
		CreatedAt: meta.CreatedAt,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parsePageQuery(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	page, err := h.service.List(r.Context(), UserIDFrom(r.Context()), q)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, newListResponse(page))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutSuffix(chi.URLParam(r, "*"), "/download")
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "Route not found")
		return
	}

	key, err := unescapeKey(key)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	res, err := h.service.Download(r.Context(), UserIDFrom(r.Context()), key)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, downloadResponse{
		DownloadURL: res.URL,
		ExpiresIn:   res.ExpiresIn,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := unescapeKey(chi.URLParam(r, "*"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), UserIDFrom(r.Context()), key); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// unescapeKey decodes a wildcard segment. Keys may arrive with "/" sent
// literally or as %2F.
func unescapeKey(raw string) (string, error) {
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed key escape", filegate.ErrInvalidInput)
	}
	if key == "" {
		return "", fmt.Errorf("%w: key cannot be empty", filegate.ErrInvalidInput)
	}
	return key, nil
}
