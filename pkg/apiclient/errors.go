package apiclient

import (
	stderrors "errors"
	"fmt"

	"DriverOnboard/pkg/errors"
)

// APIError 服务端返回非 2xx 或 success=false
type APIError struct {
	Path       string
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = errors.ServerRejected.Message
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	return errors.ServerRejected
}

func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Server error: %d", e.StatusCode)
}

func networkError(path string, err error) error {
	return fmt.Errorf("%s: %w: %w", path, errors.NetworkUnavailable, err)
}

// IsNotFound 服务端返回 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.StatusCode == 404
}
