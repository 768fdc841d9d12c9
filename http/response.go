package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sagarc03/filegate"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type presignResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

type confirmResponse struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
}

type fileItem struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

type listResponse struct {
	Items         []fileItem `json:"items"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
	TotalPages    int        `json:"totalPages"`
	TotalElements int64      `json:"totalElements"`
}

type downloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func newListResponse(p filegate.Page) listResponse {
	items := make([]fileItem, 0, len(p.Items))
	for _, m := range p.Items {
		items = append(items, fileItem{
			ID:          m.ID,
			Key:         m.Key,
			Filename:    m.Filename,
			Size:        m.Size,
			ContentType: m.ContentType,
			CreatedAt:   m.CreatedAt,
		})
	}
	return listResponse{
		Items:         items,
		Page:          p.Page,
		Size:          p.Size,
		TotalPages:    p.TotalPages,
		TotalElements: p.TotalElements,
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	writeErrorResponse(w, code, ErrorResponse{Error: errCode, Message: message})
}

func writeErrorResponse(w http.ResponseWriter, code int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := slog.With("request_id", RequestIDFrom(r.Context()), "error", err)

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Debug("request rejected")
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation",
			Message: "Validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, filegate.ErrUnauthorized):
		logger.Debug("request rejected")
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing or blank X-User-Id header")
	case errors.Is(err, filegate.ErrInvalidInput):
		logger.Debug("request rejected")
		WriteError(w, http.StatusBadRequest, "validation", invalidInputMessage(err))
	case errors.Is(err, filegate.ErrForbidden):
		logger.Debug("request rejected")
		WriteError(w, http.StatusForbidden, "forbidden", "File belongs to another user")
	case errors.Is(err, filegate.ErrNotFound):
		logger.Debug("request rejected")
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	case errors.Is(err, filegate.ErrConflict):
		logger.Debug("request rejected")
		WriteError(w, http.StatusConflict, "conflict", "File already confirmed")
	case errors.Is(err, filegate.ErrUpstream):
		logger.Error("upstream failure")
		WriteError(w, http.StatusInternalServerError, "upstream_error", "Storage backend failure")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timed out")
		WriteError(w, http.StatusGatewayTimeout, "timeout", "Request timed out")
	default:
		logger.Error("request error")
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// invalidInputMessage returns the detail wrapped after ErrInvalidInput,
// dropping the operation prefixes in front of it.
func invalidInputMessage(err error) string {
	prefix := filegate.ErrInvalidInput.Error() + ": "
	msg := err.Error()
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		if detail := msg[i+len(prefix):]; detail != "" {
			return detail
		}
	}
	return "Invalid input"
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
