package http

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sagarc03/filegate"
)

// ValidationError reports which request fields failed which rule.
// It matches filegate.ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return filegate.ErrInvalidInput
}
