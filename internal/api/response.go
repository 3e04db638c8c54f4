// internal/api/response.go
package api

import (
	"errors"
	"net/http"

	"github.com/tamzrod/mdc-controller/internal/mdc"
	"github.com/tamzrod/mdc-controller/internal/registry"
)

// APIResponse is the envelope of every HTTP reply.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func SuccessResponse(data any) APIResponse {
	return APIResponse{Success: true, Data: data}
}

func ErrorResponse(err string) APIResponse {
	return APIResponse{Success: false, Error: err}
}

func MessageResponse(message string) APIResponse {
	return APIResponse{Success: true, Message: message}
}

// statusFor maps a controller error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrUnknownDisplay):
		return http.StatusNotFound
	case errors.Is(err, mdc.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
