package clientcli

import (
	"time"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	ContentType string // optional, auto-detect if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string    `json:"local_path"`
	Key         string    `json:"key"`
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	Err         error     `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Key       string
	LocalPath string // empty = derive from key, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Key         string `json:"key"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Keys []string
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListOptions configures a list operation.
type ListOptions struct {
	Page int
	Size int
	All  bool // fetch every page starting at Page
}

// ListResult contains one page, or all pages when ListOptions.All is set.
type ListResult struct {
	Items         []FileInfo `json:"items"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
	TotalPages    int        `json:"total_pages"`
	TotalElements int64      `json:"total_elements"`
}

// FileInfo represents metadata for a single confirmed file.
type FileInfo struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Wire shapes of the server API.

type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type presignResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

type confirmRequest struct {
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type confirmResponse struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
}

type serverFile struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

type serverListResult struct {
	Items         []serverFile `json:"items"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalPages    int          `json:"totalPages"`
	TotalElements int64        `json:"totalElements"`
}

type downloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type serverError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
