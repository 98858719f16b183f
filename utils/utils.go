// Package utils provides utility functions for the application.
package utils

import (
	"fmt"
	"strings"
)

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// Deref returns the pointed value or the zero value of T
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// EmptyToNil returns nil for blank strings
func EmptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// EmailLocalPart returns the part of an email address before the @
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// ProgramCacheKey is the client cache key of a program read, dropped after the
// program's settings change
func ProgramCacheKey(programID string, workspaceID uint) string {
	return fmt.Sprintf("/api/programs/%s?workspaceId=%d", programID, workspaceID)
}
