// Package internal holds helpers shared by the SQL metadata backends.
package internal

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

const (
	DefaultScanLimit = 100
	MaxScanLimit     = 1000
)

// EncodeCursor encodes the id of the last record on a scan page as an opaque cursor.
func EncodeCursor(id int64) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeCursor decodes a cursor created by EncodeCursor.
// An empty cursor decodes to 0, meaning "start from the first record".
func DecodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}

	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode cursor: invalid format: %w", err)
	}

	if id <= 0 {
		return 0, fmt.Errorf("decode cursor: invalid id: %d", id)
	}

	return id, nil
}

// ScanLimit clamps a requested scan page size into [1, MaxScanLimit].
func ScanLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultScanLimit
	case limit > MaxScanLimit:
		return MaxScanLimit
	default:
		return limit
	}
}
