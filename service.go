package filegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MetaDataRepo defines the interface for FileMeta persistence.
// Implementations must be safe for concurrent use.
//
// All methods accept a context for cancellation and timeout control.
type MetaDataRepo interface {
	// Save inserts a new record and returns it with its assigned ID.
	//
	// Returns:
	//   - FileMeta: The stored record
	//   - error: ErrConflict if the key already exists, or other database errors
	Save(ctx context.Context, meta FileMeta) (FileMeta, error)

	// FindByKey looks up a record by its storage key.
	//
	// Returns:
	//   - FileMeta: The record if found
	//   - error: ErrNotFound if no record has the key, or other database errors
	FindByKey(ctx context.Context, key string) (FileMeta, error)

	// FindByUserID returns one page of the records owned by userID.
	// The order is stable across identical queries.
	FindByUserID(ctx context.Context, userID string, q PageQuery) (Page, error)

	// DeleteByKey removes the record with the given key.
	// Deleting a key that does not exist is not an error.
	DeleteByKey(ctx context.Context, key string) error
}

// MetaDataScanner is implemented by repositories that can walk every record
// regardless of owner. It is used by Reconcile.
type MetaDataScanner interface {
	// Scan returns records in ascending id order starting after q.Cursor.
	// NextCursor is empty when there are no more records.
	Scan(ctx context.Context, q ScanQuery) (ScanResult, error)
}

// BlobGateway defines the interface to the external object store.
// Implementations share one client across all requests and must be safe for
// concurrent use.
type BlobGateway interface {
	// PresignPut returns a URL authorizing a single PUT of contentType to key.
	PresignPut(ctx context.Context, key, contentType string) (string, error)

	// PresignGet returns a URL authorizing a single GET of key.
	PresignGet(ctx context.Context, key string) (string, error)

	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a HEAD on key succeeds. Not found is (false, nil).
	Exists(ctx context.Context, key string) (bool, error)

	// Expiry is the validity applied to every signed URL.
	Expiry() time.Duration
}

// ServiceConfig holds configuration options for FileService.
type ServiceConfig struct {
	// VerifyUpload makes Confirm probe the object store before saving.
	VerifyUpload bool
	// CleanupTimeout bounds the record deletion that follows a successful
	// blob deletion. It runs detached from the request context (default: 30s).
	CleanupTimeout time.Duration
	// Now overrides the wall clock (default: time.Now).
	Now func() time.Time
}

type FileService struct {
	repo           MetaDataRepo
	blobs          BlobGateway
	verifyUpload   bool
	cleanupTimeout time.Duration
	now            func() time.Time
}

func NewFileService(repo MetaDataRepo, blobs BlobGateway, cfg ServiceConfig) (*FileService, error) {
	if repo == nil {
		return nil, errors.New("new file service: repo is required")
	}
	if blobs == nil {
		return nil, errors.New("new file service: blob gateway is required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}

	return &FileService{
		repo:           repo,
		blobs:          blobs,
		verifyUpload:   cfg.VerifyUpload,
		cleanupTimeout: cleanupTimeout,
		now:            now,
	}, nil
}

// Presign generates a fresh key for the upload and returns a signed PUT URL for it.
// Nothing is persisted; the record only appears once the upload is confirmed.
//
// Error types returned:
//   - ErrUnauthorized: Empty user id
//   - ErrInvalidInput: Empty filename or content type, non-positive size,
//     a user id containing "/", or a key over the 1024 byte limit
//   - ErrUpstream: The gateway failed to sign the URL
func (s *FileService) Presign(ctx context.Context, req PresignRequest) (PresignResult, error) {
	if err := ctx.Err(); err != nil {
		return PresignResult{}, fmt.Errorf("presign: %w", err)
	}

	if err := requireUser(req.UserID); err != nil {
		return PresignResult{}, fmt.Errorf("presign: %w", err)
	}

	if isBlank(req.Filename) {
		return PresignResult{}, fmt.Errorf("presign: %w: filename cannot be empty", ErrInvalidInput)
	}

	if isBlank(req.ContentType) {
		return PresignResult{}, fmt.Errorf("presign: %w: content type cannot be empty", ErrInvalidInput)
	}

	if req.Size <= 0 {
		return PresignResult{}, fmt.Errorf("presign: %w: size must be positive", ErrInvalidInput)
	}

	key := GenerateKey(req.UserID, req.Filename, s.now())
	if !IsValidKey(key) {
		return PresignResult{}, fmt.Errorf("presign: %w: generated key exceeds 1024 bytes", ErrInvalidInput)
	}

	url, err := s.blobs.PresignPut(ctx, key, req.ContentType)
	if err != nil {
		return PresignResult{}, fmt.Errorf("presign %s: %w: %w", key, ErrUpstream, err)
	}

	return PresignResult{
		URL:       url,
		Key:       key,
		ExpiresIn: s.expiresIn(),
	}, nil
}

// Confirm records the metadata for an upload the client claims to have completed.
//
// The key must belong to the caller's namespace ({userID}/...). When
// VerifyUpload is set the object store is probed first and a missing object
// yields ErrNotFound; otherwise the client's claim is trusted.
//
// Error types returned:
//   - ErrUnauthorized: Empty user id
//   - ErrInvalidInput: Missing fields, malformed key or non-positive size
//   - ErrForbidden: The key is outside the caller's namespace
//   - ErrNotFound: VerifyUpload is set and the object does not exist
//   - ErrConflict: The key has already been confirmed
//   - ErrUpstream: The gateway or database failed
func (s *FileService) Confirm(ctx context.Context, req ConfirmRequest) (FileMeta, error) {
	if err := ctx.Err(); err != nil {
		return FileMeta{}, fmt.Errorf("confirm: %w", err)
	}

	if err := requireUser(req.UserID); err != nil {
		return FileMeta{}, fmt.Errorf("confirm: %w", err)
	}

	if isBlank(req.Key) || !IsValidKey(req.Key) {
		return FileMeta{}, fmt.Errorf("confirm: %w: invalid key", ErrInvalidInput)
	}

	if !OwnsKey(req.UserID, req.Key) {
		return FileMeta{}, fmt.Errorf("confirm %s: %w", req.Key, ErrForbidden)
	}

	if s.verifyUpload {
		exists, err := s.blobs.Exists(ctx, req.Key)
		if err != nil {
			return FileMeta{}, fmt.Errorf("confirm %s: %w: %w", req.Key, ErrUpstream, err)
		}
		if !exists {
			return FileMeta{}, fmt.Errorf("confirm %s: object not uploaded: %w", req.Key, ErrNotFound)
		}
	}

	meta := FileMeta{
		Key:         req.Key,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
		UserID:      req.UserID,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}

	if err := meta.Validate(); err != nil {
		return FileMeta{}, fmt.Errorf("confirm: %w", err)
	}

	saved, err := s.repo.Save(ctx, meta)
	if err != nil {
		return FileMeta{}, fmt.Errorf("confirm %s: %w", req.Key, classify(err))
	}

	return saved, nil
}

// List returns one page of the caller's files.
func (s *FileService) List(ctx context.Context, userID string, q PageQuery) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, fmt.Errorf("list files: %w", err)
	}

	if err := requireUser(userID); err != nil {
		return Page{}, fmt.Errorf("list files: %w", err)
	}

	if err := q.Validate(); err != nil {
		return Page{}, fmt.Errorf("list files: %w", err)
	}

	page, err := s.repo.FindByUserID(ctx, userID, q)
	if err != nil {
		return Page{}, fmt.Errorf("list files: %w", classify(err))
	}

	return page, nil
}

// Download returns a signed GET URL for a file the caller owns.
func (s *FileService) Download(ctx context.Context, userID, key string) (DownloadResult, error) {
	if err := ctx.Err(); err != nil {
		return DownloadResult{}, fmt.Errorf("download: %w", err)
	}

	meta, err := s.owned(ctx, userID, key)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download: %w", err)
	}

	url, err := s.blobs.PresignGet(ctx, meta.Key)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download %s: %w: %w", key, ErrUpstream, err)
	}

	return DownloadResult{URL: url, ExpiresIn: s.expiresIn()}, nil
}

// Delete removes a file the caller owns: first the blob, then the record.
//
// If the blob deletion fails the record is kept so metadata never points at
// a blob that was never removed. If the record deletion fails after the blob
// is gone the row dangles until Reconcile removes it.
func (s *FileService) Delete(ctx context.Context, userID, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	meta, err := s.owned(ctx, userID, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if err := s.blobs.Delete(ctx, meta.Key); err != nil {
		return fmt.Errorf("delete %s: blob: %w: %w", key, ErrUpstream, err)
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()

	if err := s.repo.DeleteByKey(cleanupCtx, meta.Key); err != nil {
		return fmt.Errorf("delete %s: metadata: %w", key, classify(err))
	}

	return nil
}

// Reconcile removes records whose blob no longer exists in the object store.
// It walks every record through the repo's MetaDataScanner, probing each key.
// With DryRun set the dangling records are only counted.
//
// Returns the report accumulated so far together with any error.
func (s *FileService) Reconcile(ctx context.Context, opts ReconcileOptions) (ReconcileReport, error) {
	var report ReconcileReport

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}

	scanner, ok := s.repo.(MetaDataScanner)
	if !ok {
		return report, fmt.Errorf("reconcile: %w: repository cannot scan records", ErrInternal)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("reconcile: %w", err)
		}

		result, err := scanner.Scan(ctx, ScanQuery{Cursor: cursor, Limit: limit})
		if err != nil {
			return report, fmt.Errorf("reconcile: %w", classify(err))
		}

		for _, meta := range result.Items {
			report.Scanned++

			exists, existsErr := s.blobs.Exists(ctx, meta.Key)
			if existsErr != nil {
				return report, fmt.Errorf("reconcile '%s': %w: %w", meta.Key, ErrUpstream, existsErr)
			}
			if exists {
				continue
			}

			report.Missing++
			if opts.DryRun {
				continue
			}

			if deleteErr := s.repo.DeleteByKey(ctx, meta.Key); deleteErr != nil {
				return report, fmt.Errorf("reconcile '%s': %w", meta.Key, classify(deleteErr))
			}
			report.Removed++
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return report, nil
}

// owned loads the record for key and checks that userID owns it.
func (s *FileService) owned(ctx context.Context, userID, key string) (FileMeta, error) {
	if err := requireUser(userID); err != nil {
		return FileMeta{}, err
	}

	if isBlank(key) {
		return FileMeta{}, fmt.Errorf("%w: key cannot be empty", ErrInvalidInput)
	}

	meta, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return FileMeta{}, fmt.Errorf("find %s: %w", key, classify(err))
	}

	if meta.UserID != userID {
		return FileMeta{}, fmt.Errorf("%s: %w", key, ErrForbidden)
	}

	return meta, nil
}

func (s *FileService) expiresIn() int64 {
	return int64(s.blobs.Expiry() / time.Second)
}

func requireUser(userID string) error {
	return CheckUserID(userID)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// classify tags repository errors that are not already domain errors as upstream failures.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}
