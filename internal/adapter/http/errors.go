package http

import "net/http"

// APIError is a structured error response for the place routes.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeUpstream    = "upstream_error"
	codeUnavailable = "unavailable"
)

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(r.Context()),
	})
}
