package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrResponse implements the render.Renderer interface for API errors
type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	AppCode        string `json:"code,omitempty"`
	ErrorText      string `json:"error,omitempty"`
}

// Render implements the render.Renderer interface
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// Error codes for license operations
const (
	ErrCodeStructural       = "STRUCTURAL"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeExpired          = "LICENSE_EXPIRED"
	ErrCodeHardwareMismatch = "HARDWARE_MISMATCH"
	ErrCodeHardwareProbe    = "HARDWARE_PROBE"
	ErrCodeNotInitialized   = "NOT_INITIALIZED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
)

// ErrInvalidRequest creates a bad request error
func ErrInvalidRequest(message string) *ErrResponse {
	return &ErrResponse{
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request",
		AppCode:        ErrCodeInvalidRequest,
		ErrorText:      message,
	}
}

// ErrRateLimited is returned when the request rate limit is exceeded
var ErrRateLimited = &ErrResponse{
	HTTPStatusCode: http.StatusTooManyRequests,
	StatusText:     "Too many requests",
	AppCode:        ErrCodeRateLimited,
	ErrorText:      "Too many requests. Please try again later",
}

// ErrInternal creates an internal server error
func ErrInternal(err error) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error",
		ErrorText:      "An unexpected error occurred. Please try again later",
	}
}
