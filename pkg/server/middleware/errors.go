package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// RequestID correlates the error with server logs.
	RequestID string `json:"request_id,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest   = "invalid_request_error"
	ErrorTypeUnprocessable    = "unprocessable_entity"
	ErrorTypeNotFound         = "not_found"
	ErrorTypeMethodNotAllowed = "method_not_allowed"
	ErrorTypeTooLarge         = "request_too_large"
	ErrorTypeRateLimited      = "rate_limit_exceeded"
	ErrorTypeServerError      = "server_error"
)

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{
		Message:   message,
		Type:      errType,
		RequestID: GetRequestID(r.Context()),
	}})
}
