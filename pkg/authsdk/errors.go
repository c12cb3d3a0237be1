package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized matches any APIError carrying 401. Login and refresh never
// say why they were refused.
var ErrUnauthorized = errors.New("authsdk: unauthorized")

// APIError is a non-2xx response from the service.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// ErrorType and Message come from an ErrorResponse body, when present
	ErrorType string
	Message   string

	// Errors comes from a ValidationErrorResponse body, when present
	Errors map[string][]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case len(e.Errors) > 0:
		keys := make([]string, 0, len(e.Errors))
		for k := range e.Errors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("HTTP %d: validation failed: %s", e.StatusCode, strings.Join(keys, ", "))
	case e.ErrorType != "":
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.ErrorType, e.Message)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// HasError reports whether the validation errors contain key, which is a
// field name for request-shape errors or a code such as "DuplicateEmail".
func (e *APIError) HasError(key string) bool {
	_, ok := e.Errors[key]
	return ok
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	// An ErrorResponse has string values and fails to decode here.
	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && len(valErr) > 0 {
		apiErr.Errors = valErr
		return apiErr
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorType != "" {
		apiErr.ErrorType = errResp.ErrorType
		apiErr.Message = errResp.ErrorMessage
	}
	return apiErr
}
