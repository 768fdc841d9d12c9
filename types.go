package filegate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FileMeta is the metadata record stored for every confirmed upload.
type FileMeta struct {
	ID           int64     `json:"id"`
	Key          string    `json:"key"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	UserID       string    `json:"userId"`
	ThumbnailKey *string   `json:"thumbnailKey,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate reports whether m satisfies the invariants every stored record must hold.
// The ID is not checked since it is assigned by the repository on insert.
func (m FileMeta) Validate() error {
	switch {
	case strings.TrimSpace(m.Key) == "":
		return fmt.Errorf("validate file meta: %w: key cannot be empty", ErrInvalidInput)
	case strings.TrimSpace(m.Filename) == "":
		return fmt.Errorf("validate file meta: %w: filename cannot be empty", ErrInvalidInput)
	case strings.TrimSpace(m.ContentType) == "":
		return fmt.Errorf("validate file meta: %w: content type cannot be empty", ErrInvalidInput)
	case strings.TrimSpace(m.UserID) == "":
		return fmt.Errorf("validate file meta: %w: user id cannot be empty", ErrInvalidInput)
	case m.Size <= 0:
		return fmt.Errorf("validate file meta: %w: size must be positive", ErrInvalidInput)
	case m.CreatedAt.IsZero():
		return fmt.Errorf("validate file meta: %w: created at cannot be zero", ErrInvalidInput)
	}
	return nil
}

// PageQuery selects one zero-indexed page of a listing.
type PageQuery struct {
	Page int
	Size int
}

// Validate checks that the page is non-negative and the size positive.
func (q PageQuery) Validate() error {
	if q.Page < 0 {
		return fmt.Errorf("validate page query: %w: page must be >= 0", ErrInvalidInput)
	}
	if q.Size < 1 {
		return fmt.Errorf("validate page query: %w: size must be >= 1", ErrInvalidInput)
	}
	return nil
}

// Offset returns the number of rows skipped before the page starts.
func (q PageQuery) Offset() int64 {
	return int64(q.Page) * int64(q.Size)
}

// Page is a single page of FileMeta records plus the pagination envelope.
type Page struct {
	Items         []FileMeta
	Page          int
	Size          int
	TotalPages    int
	TotalElements int64
}

// NewPage builds a Page for q given the items on it and the total element count.
func NewPage(items []FileMeta, q PageQuery, total int64) Page {
	if items == nil {
		items = []FileMeta{}
	}

	totalPages := 0
	if q.Size > 0 {
		totalPages = int((total + int64(q.Size) - 1) / int64(q.Size))
	}

	return Page{
		Items:         items,
		Page:          q.Page,
		Size:          q.Size,
		TotalPages:    totalPages,
		TotalElements: total,
	}
}

// ScanQuery walks every record in id order, independent of owner.
type ScanQuery struct {
	Cursor string
	Limit  int
}

type ScanResult struct {
	Items      []FileMeta
	NextCursor string
}

type PresignRequest struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
}

type PresignResult struct {
	URL       string
	Key       string
	ExpiresIn int64
}

type ConfirmRequest struct {
	UserID      string
	Key         string
	Filename    string
	ContentType string
	Size        int64
}

type DownloadResult struct {
	URL       string
	ExpiresIn int64
}

// ReconcileOptions controls a reconcile run.
type ReconcileOptions struct {
	Limit  int
	DryRun bool
}

// ReconcileReport summarises a reconcile run.
type ReconcileReport struct {
	Scanned int
	Missing int
	Removed int
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	FileMeta string `mapstructure:"file_meta"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.FileMeta == "" {
		return errors.New("validate tables: file meta table name cannot be empty")
	}

	if !IsValidTableName(t.FileMeta) {
		return fmt.Errorf("validate tables: invalid file meta table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.FileMeta)
	}

	return nil
}
