package models

import "fmt"

// APIError is the JSON error body for failures the user has to see.
type APIError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"` // upstream, validation, account, auth
	Action   string `json:"action"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

const (
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeViewNotFound        = "VIEW_NOT_FOUND"
	ErrCodeAccountDelete       = "ACCOUNT_DELETE_FAILED"
	ErrCodeUnknownProvider     = "UNKNOWN_PROVIDER"
	ErrCodeAuthStart           = "AUTH_START_FAILED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "Error connecting to server",
		Category: "upstream",
		Action:   "Check your connection and try again in a moment.",
	}
}

func NewViewNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeViewNotFound,
		Message:  fmt.Sprintf("view not found: %s", id),
		Category: "validation",
		Action:   "Open the page again to start a new view.",
	}
}

func NewAccountDeleteError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountDelete,
		Message:  "Failed to delete account. Please try again.",
		Category: "account",
		Action:   "Retry the deletion. If it keeps failing, contact support.",
	}
}

func NewUnknownProviderError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownProvider,
		Message:  fmt.Sprintf("unknown provider: %s", provider),
		Category: "validation",
		Action:   "Use one of google, facebook, instagram, twitter, reddit.",
	}
}

func NewAuthStartError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthStart,
		Message:  fmt.Sprintf("Failed to connect to %s", provider),
		Category: "auth",
		Action:   "Try connecting again.",
	}
}

func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "Fix the request parameters and retry.",
	}
}
