package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnavailable = errors.New("service unavailable")
	ErrDecode      = errors.New("decode failure")
	ErrRemote      = errors.New("remote error")
	ErrValidation  = errors.New("validation error")
)

// Wrap builds an error message that includes service context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, service, operation, message string, err error) error {
	detail := buildDetail(service, operation, message)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns the next step a user should take for a classified error.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnavailable):
		return "check that the service is running and the configured URL is reachable"
	case errors.Is(err, ErrDecode):
		return "the service answered with an unexpected payload; check its version"
	case errors.Is(err, ErrRemote):
		return "the service rejected the request; see the error message for details"
	case errors.Is(err, ErrValidation):
		return "fix the input and retry"
	default:
		return "check logs for details"
	}
}

func buildDetail(service, operation, message string) string {
	parts := make([]string, 0, 3)
	if service = strings.TrimSpace(service); service != "" {
		parts = append(parts, service)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
