// Package dto provides Data Transfer Objects for API requests/responses.
// Entity responses reuse the wire-shaped domain records directly; only
// request bodies and generic envelopes live here.
package dto

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
