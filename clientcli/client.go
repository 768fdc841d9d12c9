package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the page size used when ListOptions.Size is unset.
	DefaultPageSize = 20

	// MaxPageSize is the largest page the server returns.
	MaxPageSize = 1000

	headerUserID = "X-User-Id"
)

// Client performs operations against a Filegate server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	// Apply defaults
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			UserID:   cfg.UserID,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload uploads file(s): presign, PUT to the signed URL, then confirm.
// For recursive uploads, walks the directory and uploads every regular file.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, filepath.Base(opts.LocalPath), opts.ContentType)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadRecursive walks a directory and uploads all files.
// The path relative to the directory becomes the filename.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, filepath.Base(opts.LocalPath), opts.ContentType)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult
	baseDir := opts.LocalPath

	walkErr := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(baseDir, path)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: path,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		result, uploadErr := c.uploadSingle(ctx, path, filepath.ToSlash(relPath), "")
		if uploadErr != nil {
			result = UploadResult{
				LocalPath: path,
				Filename:  filepath.ToSlash(relPath),
				Err:       uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle uploads a single file through the presign/confirm flow.
func (c *Client) uploadSingle(ctx context.Context, localPath, filename, contentType string) (UploadResult, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() == 0 {
		return UploadResult{}, fmt.Errorf("upload %s: empty files cannot be uploaded", localPath)
	}

	if contentType == "" {
		contentType = detectContentType(localPath)
	}

	// 1. Ask for a signed PUT URL
	var presigned presignResponse
	err = c.doJSON(ctx, http.MethodPost, "/files/presign", presignRequest{
		Filename:    filename,
		ContentType: contentType,
		Size:        info.Size(),
	}, &presigned, http.StatusOK)
	if err != nil {
		return UploadResult{}, fmt.Errorf("presign: %w", err)
	}

	// 2. Stream the file straight to the object store
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presigned.URL, file)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload object: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return UploadResult{}, fmt.Errorf("upload object: %w", parseServerError(resp.StatusCode, body))
	}

	// 3. Record the upload
	var confirmed confirmResponse
	err = c.doJSON(ctx, http.MethodPost, "/files/confirm", confirmRequest{
		Key:         presigned.Key,
		Filename:    filename,
		ContentType: contentType,
		Size:        info.Size(),
	}, &confirmed, http.StatusCreated)
	if err != nil {
		return UploadResult{}, fmt.Errorf("confirm: %w", err)
	}

	return UploadResult{
		LocalPath:   localPath,
		Key:         confirmed.Key,
		ID:          confirmed.ID,
		Filename:    confirmed.Filename,
		ContentType: contentType,
		Size:        info.Size(),
		CreatedAt:   confirmed.CreatedAt,
	}, nil
}

// Download fetches a signed GET URL for the key and downloads the object.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Key == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyKey)
	}

	var signed downloadResponse
	if err := c.doJSON(ctx, http.MethodGet, filePath(opts.Key)+"/download", nil, &signed, http.StatusOK); err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed.DownloadURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Key:         opts.Key,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(filepath.FromSlash(opts.Key))
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Delete deletes one or more files from the server.
// Continues on error, collecting results for all keys.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Keys) == 0 {
		return nil, ErrNoKeys
	}

	results := make([]DeleteResult, 0, len(opts.Keys))

	for _, key := range opts.Keys {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := DeleteResult{Key: key, Deleted: true}
		if err := c.doJSON(ctx, http.MethodDelete, filePath(key), nil, nil, http.StatusNoContent); err != nil {
			result.Deleted = false
			result.Err = err
		}
		results = append(results, result)
	}

	return results, nil
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List lists the caller's files, newest first.
// If opts.All is true, fetches every page from opts.Page on.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if opts.All {
		return c.listAll(ctx, opts)
	}
	return c.listPage(ctx, opts)
}

// listPage fetches a single page of results.
func (c *Client) listPage(ctx context.Context, opts ListOptions) (*ListResult, error) {
	size := opts.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)

	query := url.Values{}
	query.Set("page", strconv.Itoa(max(opts.Page, 0)))
	query.Set("size", strconv.Itoa(size))

	var serverResult serverListResult
	if err := c.doJSON(ctx, http.MethodGet, "/files?"+query.Encode(), nil, &serverResult, http.StatusOK); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	items := make([]FileInfo, len(serverResult.Items))
	for i, item := range serverResult.Items {
		items[i] = FileInfo{
			ID:          item.ID,
			Key:         item.Key,
			Filename:    item.Filename,
			ContentType: item.ContentType,
			Size:        item.Size,
			CreatedAt:   item.CreatedAt,
		}
	}

	return &ListResult{
		Items:         items,
		Page:          serverResult.Page,
		Size:          serverResult.Size,
		TotalPages:    serverResult.TotalPages,
		TotalElements: serverResult.TotalElements,
	}, nil
}

// listAll fetches all pages of results.
func (c *Client) listAll(ctx context.Context, opts ListOptions) (*ListResult, error) {
	all := &ListResult{Items: []FileInfo{}, Page: max(opts.Page, 0)}

	for page := all.Page; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.listPage(ctx, ListOptions{Page: page, Size: opts.Size})
		if err != nil {
			return nil, err
		}

		all.Items = append(all.Items, result.Items...)
		all.Size = result.Size
		all.TotalPages = result.TotalPages
		all.TotalElements = result.TotalElements

		if len(result.Items) == 0 || page+1 >= result.TotalPages {
			break
		}
	}

	return all, nil
}

// TotalSize calculates the total size of all items in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Size
	}
	return total
}

// doJSON sends an API request with the user header and decodes the JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, wantStatus ...int) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(headerUserID, c.config.UserID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if !slices.Contains(wantStatus, resp.StatusCode) {
		return parseServerError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// filePath returns the API path for a key with "/" percent-encoded.
func filePath(key string) string {
	return "/files/" + url.PathEscape(key)
}

// detectContentType returns MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}

// parseServerError builds an APIError, reading the server's JSON error body when present.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Kind = se.Error
		apiErr.Message = se.Message
		apiErr.Fields = se.Fields
	}

	return apiErr
}

// APIError represents an error response from the server or object store.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
	Fields     map[string]string
	Body       string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		msg := "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Kind
		if e.Message != "" {
			msg += " - " + e.Message
		}
		return msg
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested file does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the user id header is missing (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the file belongs to another user (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrConflict is returned when the key was already confirmed (409).
	ErrConflict = &APIError{StatusCode: http.StatusConflict}
)
