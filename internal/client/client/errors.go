package client

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/glytch/internal/common"
)

var (
	ErrUnavailable  = errors.New("backend unavailable")
	ErrUnauthorized = common.ErrorUnauthorized
)

// GenericFailureMessage is used when an error response carries no message.
const GenericFailureMessage = "backend request failed"

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
	Hint       string
	Code       string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// newAPIError builds an APIError from a response body. Service routes use
// the envelope order [0].message, msg, error_description, message;
// dedicated endpoints use msg, message, error, error_description, meta.msg.
// Fields of the wrong JSON type are skipped.
func newAPIError(status int, body []byte, direct bool, fallback string) *APIError {
	apiErr := &APIError{StatusCode: status}

	var rows []map[string]json.RawMessage
	var obj map[string]json.RawMessage
	switch {
	case json.Unmarshal(body, &rows) == nil:
		if len(rows) > 0 {
			apiErr.Message, _ = stringField(rows[0], "message")
			apiErr.fill(rows[0])
		}
	case json.Unmarshal(body, &obj) == nil:
		if direct {
			apiErr.Message = firstString(obj, "msg", "message", "error", "error_description")
			if apiErr.Message == "" {
				var meta map[string]json.RawMessage
				if raw, ok := obj["meta"]; ok && json.Unmarshal(raw, &meta) == nil {
					apiErr.Message, _ = stringField(meta, "msg")
				}
			}
		} else {
			apiErr.Message = firstString(obj, "msg", "error_description", "message")
		}
		apiErr.fill(obj)
	}

	if apiErr.Message == "" {
		apiErr.Message = fallback
	}
	if apiErr.Message == "" {
		apiErr.Message = GenericFailureMessage
	}
	return apiErr
}

func (e *APIError) fill(obj map[string]json.RawMessage) {
	e.Hint, _ = stringField(obj, "hint")
	e.Code, _ = stringField(obj, "code")
	if raw, ok := obj["details"]; ok && string(raw) != "null" {
		e.Details = raw
	}
}

// firstString returns the first key holding a JSON string, even an empty one.
func firstString(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s, ok := stringField(obj, k); ok {
			return s
		}
	}
	return ""
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
