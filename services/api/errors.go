package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrSessionExpired is returned when a 401 could not be recovered by a token refresh.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnexpectedShape is returned when a response body matches none of the accepted shapes.
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// Error is a non-2xx answer from the API.
type Error struct {
	Method string
	Path   string
	Status int
	Detail string // human-readable server message, may be empty
	Code   string
	Body   []byte
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// StatusCode returns the HTTP status of err when it wraps an *Error, otherwise 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message picks the text to show for err: the server detail when present, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrSessionExpired) {
		return "Your session has expired. Please sign in again."
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

// newError builds an *Error from a failed response, extracting the detail from the usual
// {"detail": "..."}, {"detail": [{"msg": ...}]}, {"message": ...} and {"error": ...} bodies.
func newError(method, path string, status int, body []byte) *Error {
	e := &Error{Method: method, Path: path, Status: status, Body: body}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return e
	}
	e.Code = parsed.Code

	if len(parsed.Detail) > 0 {
		var text string
		var items []validationItem
		switch {
		case json.Unmarshal(parsed.Detail, &text) == nil:
			e.Detail = text
		case json.Unmarshal(parsed.Detail, &items) == nil:
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			e.Detail = strings.Join(msgs, "; ")
		}
	}
	if e.Detail == "" {
		e.Detail = parsed.Message
	}
	if e.Detail == "" {
		e.Detail = parsed.Error
	}
	e.Detail = strings.TrimSpace(e.Detail)
	return e
}
