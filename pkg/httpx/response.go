package httpx

import (
	"encoding/json"
	"net/http"
)

// Error types carried in ErrorDetails.
const (
	ErrorTypeFailure         = "Failure"
	ErrorTypeNotFound        = "Not Found"
	ErrorTypeBadRequest      = "Bad Request"
	ErrorTypeUnauthorized    = "Unauthorized"
	ErrorTypeForbidden       = "Forbidden"
	ErrorTypeTooManyRequests = "Too Many Requests"
)

// ErrorDetails is the JSON body of every non-validation error response.
type ErrorDetails struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorDetails body with the given status code.
func WriteError(w http.ResponseWriter, code int, errorType, message string) {
	WriteJSON(w, code, ErrorDetails{ErrorType: errorType, ErrorMessage: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
