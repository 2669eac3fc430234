package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrNameRequired = errors.New("design name is required")
	ErrNoObjects    = errors.New("design has no objects")
	ErrNotFound     = errors.New("not found")
)

// APIError is a request the server rejected.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is lets callers test 401 and 404 responses with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthRequired:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
