package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
)

// apiErrorResponse mirrors the Bookworm backend's error envelope: a `detail`
// field that is either a plain string or a structured object.
type apiErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The backend returns FastAPI-style `{"detail": ...}`
// bodies; the detail message is preserved when present. The response body is
// fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("server returned status %d (failed to read body: %w)", resp.StatusCode, err)
	}

	message := detailMessage(bodyBytes)
	if message == "" {
		message = fmt.Sprintf("server returned status %d", resp.StatusCode)
	}

	return mapStatusError(resp.StatusCode, message)
}

// detailMessage extracts a human-readable message from an error body, or ""
// when the body carries no usable detail.
func detailMessage(body []byte) string {
	var envelope apiErrorResponse
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Detail) == 0 {
		return ""
	}

	// Plain string detail.
	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return s
	}

	// Structured detail with a message field (e.g. price mismatch payloads).
	var structured struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Detail, &structured) == nil && structured.Message != "" {
		return structured.Message
	}

	return string(envelope.Detail)
}

// mapStatusError translates an HTTP status code into an AppError that
// preserves the error semantics.
func mapStatusError(status int, message string) error {
	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: message,
			Status:  status,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: message,
			Status:  status,
			Err:     apperrors.ErrServiceUnavail,
		}
	case status >= 500:
		return &apperrors.AppError{
			Code:    "SERVER_ERROR",
			Message: message,
			Status:  status,
			Err:     apperrors.ErrInternal,
		}
	default:
		return &apperrors.AppError{
			Code:    "HTTP_ERROR",
			Message: message,
			Status:  status,
		}
	}
}
