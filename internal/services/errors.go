package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks HTTP/network layer failures, including non-2xx
	// responses that carry no structured error body.
	ErrTransport = errors.New("transport error")
	// ErrProtocol marks a structured error reported by AnkiConnect.
	ErrProtocol = errors.New("protocol error")
	// ErrAuth marks a rejected credential exchange.
	ErrAuth = errors.New("authentication error")
	// ErrPagination marks the cards fetch guard: the service reported more
	// results than it returned, so the page is incomplete.
	ErrPagination = errors.New("pagination guard")
)

// Wrap builds an error message that includes service context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, service, operation, message string, err error) error {
	detail := buildDetail(service, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
