package backend

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Op      string
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && len(e.Errors) > 0 {
		msg = strings.Join(e.Errors, "; ")
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("backend %s: HTTP %d: %s", e.Op, e.Status, msg)
}

// UserMessages returns the server reported messages: every field error, else the message.
func (e *APIError) UserMessages() []string {
	if len(e.Errors) > 0 {
		return e.Errors
	}
	if e.Message != "" {
		return []string{e.Message}
	}
	return nil
}

func (e *APIError) IsRetryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// CircuitOpenError is returned without calling the backend while the breaker is open.
type CircuitOpenError struct{}

func (e *CircuitOpenError) Error() string {
	return "backend temporarily unavailable (circuit open)"
}

func (e *CircuitOpenError) UserMessages() []string {
	return []string{"Service temporarily unavailable. Please try again later."}
}

// decodeError reads `{message}` and `{errors: [...]}` bodies; errors may be strings or `{msg|message}` objects.
func decodeError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, Status: status}
	var payload struct {
		Message string            `json:"message"`
		Error   json.RawMessage   `json:"error"`
		Errors  []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(truncate(body, 200)))
		return apiErr
	}
	apiErr.Message = payload.Message
	if apiErr.Message == "" && len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil {
			apiErr.Message = s
		}
	}
	for _, raw := range payload.Errors {
		if msg := errorMessage(raw); msg != "" {
			apiErr.Errors = append(apiErr.Errors, msg)
		}
	}
	return apiErr
}

func errorMessage(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		if obj.Msg != "" {
			return obj.Msg
		}
		return obj.Message
	}
	return ""
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// isRetryable reports transient failures: 5xx, 429 and network errors.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	var circuitErr *CircuitOpenError
	if errors.As(err, &circuitErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "no such host", "eof"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
