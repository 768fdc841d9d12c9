package filegate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// SanitizeFilename makes name safe to use as a single key segment. Every run
// of whitespace becomes one underscore, and each "/" or control character
// becomes an underscore.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
			continue
		}
		inSpace = false
		if r == '/' || unicode.IsControl(r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// GenerateKey builds the storage key for a new upload.
//
// The format is {userID}/{unixMillis}_{sanitizedFilename}. Two calls for the same
// user and filename within one millisecond produce the same key; the second
// confirm for it then fails with ErrConflict.
func GenerateKey(userID, filename string, now time.Time) string {
	var b strings.Builder
	b.Grow(len(userID) + len(filename) + 15)
	b.WriteString(userID)
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	b.WriteString(SanitizeFilename(filename))
	return b.String()
}

// CheckUserID validates a caller id. A blank id is ErrUnauthorized. An id
// that cannot form a single key segment is ErrInvalidInput.
func CheckUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrUnauthorized)
	}
	if userID == "." || userID == ".." {
		return fmt.Errorf("%w: user id cannot be %q", ErrInvalidInput, userID)
	}
	for _, r := range userID {
		if r == '/' || unicode.IsControl(r) {
			return fmt.Errorf("%w: user id cannot contain '/' or control characters", ErrInvalidInput)
		}
	}
	return nil
}

// OwnsKey reports whether key lives in userID's key namespace.
func OwnsKey(userID, key string) bool {
	return userID != "" && strings.HasPrefix(key, userID+"/")
}

// IsValidKey validates that a key is safe to hand to the object store.
// It checks that the key:
//   - is not empty
//   - is valid UTF-8
//   - has no empty, "." or ".." segments (so no leading, trailing or double slash)
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//   - is at most 1024 bytes, the S3 key limit
func IsValidKey(key string) bool {
	if key == "" || len(key) > 1024 {
		return false
	}

	if !utf8.ValidString(key) {
		return false
	}

	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	for segment := range strings.SplitSeq(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}

	return true
}
