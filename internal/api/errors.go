package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx response of the API
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// newError builds an Error from a response body, using its "detail" field when present
func newError(status int, body []byte) *Error {
	return &Error{StatusCode: status, Message: detailMessage(status, body)}
}

func detailMessage(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return fmt.Sprintf("HTTP %d", status)
	}

	// detail is either a message or a list of validation errors
	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil && msg != "" {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return fmt.Sprintf("HTTP %d", status)
}

// StatusCode returns the HTTP status of err, or 0 when err is not an API error
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
