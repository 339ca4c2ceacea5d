package expense

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// IsQuotaError reports whether a table creation failure was caused by storage quota or
// permission limits. The backend offers no stable error code for this, so the check
// falls back to scanning the error text; nothing outside this file inspects it.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusForbidden {
			return true
		}
		for _, item := range apiErr.Errors {
			if strings.Contains(strings.ToLower(item.Reason), "quota") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "403")
}

// IsTransient reports whether a remote failure is worth one immediate retry
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// dial, read and write failures
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError
	}

	return false
}
