package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh random record ID.
func New() string {
	return uuid.NewString()
}

// Normalize trims whitespace and lowercases a UUID-shaped ID so lookups from
// CSV files and the command line match IDs the stores generated. IDs that are
// not UUIDs are returned trimmed but otherwise untouched.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}

// Require returns an error when an ID is blank after trimming.
func Require(kind, raw string) (string, error) {
	s := Normalize(raw)
	if s == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}
	return s, nil
}

// OrNew returns raw normalized, or a fresh ID when raw is blank.
func OrNew(raw string) string {
	if s := Normalize(raw); s != "" {
		return s
	}
	return New()
}
