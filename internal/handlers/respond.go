package handlers

import (
	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every endpoint responds with.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewAPIResponse(code int, data any, message string) APIResponse {
	return APIResponse{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    code < 400,
	}
}

func respond(c echo.Context, code int, data any, message string) error {
	return c.JSON(code, NewAPIResponse(code, data, message))
}
