package internal_test

import (
	"encoding/base64"
	"testing"

	"github.com/sagarc03/filegate/database/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCursor_DecodeCursor_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   int64
	}{
		{name: "first row", id: 1},
		{name: "typical id", id: 4217},
		{name: "max int64", id: 9223372036854775807},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := internal.EncodeCursor(tt.id)
			assert.NotEmpty(t, encoded, "encoded cursor should not be empty")

			decoded, err := internal.DecodeCursor(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestDecodeCursor_EmptyString(t *testing.T) {
	t.Parallel()

	id, err := internal.DecodeCursor("")
	require.NoError(t, err)
	assert.Zero(t, id, "empty cursor should start from the beginning")
}

func TestDecodeCursor_InvalidBase64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "not-valid-base64!!!"},
		{name: "wrong padding", cursor: "aGVsbG8==="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := internal.DecodeCursor(tt.cursor)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid encoding")
		})
	}
}

func TestDecodeCursor_InvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rawData     string
		errContains string
	}{
		{name: "not a number", rawData: "abc", errContains: "invalid format"},
		{name: "legacy composite cursor", rawData: "2024-01-15T10:30:00Z|file.txt", errContains: "invalid format"},
		{name: "zero id", rawData: "0", errContains: "invalid id"},
		{name: "negative id", rawData: "-5", errContains: "invalid id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := base64.URLEncoding.EncodeToString([]byte(tt.rawData))

			_, err := internal.DecodeCursor(encoded)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestScanLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, internal.DefaultScanLimit, internal.ScanLimit(0))
	assert.Equal(t, internal.DefaultScanLimit, internal.ScanLimit(-3))
	assert.Equal(t, 7, internal.ScanLimit(7))
	assert.Equal(t, internal.MaxScanLimit, internal.ScanLimit(internal.MaxScanLimit+1))
}
