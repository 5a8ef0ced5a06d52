package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Response is the standard envelope for all API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// AppError carries an HTTP status alongside the message so the error
// handler middleware can translate it without string matching.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequest(message string) *AppError {
	return &AppError{Code: fiber.StatusBadRequest, Message: message}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: fiber.StatusUnauthorized, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: fiber.StatusNotFound, Message: message}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: fiber.StatusConflict, Message: message}
}

func NewUnprocessable(message string) *AppError {
	return &AppError{Code: fiber.StatusUnprocessableEntity, Message: message}
}

// ErrorHandlerMiddleware converts errors returned by handlers into the
// standard response envelope. Unknown errors become 500s with the raw
// message hidden behind a generic line.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *AppError
		if errors.As(err, &appErr) {
			return ctx.Status(appErr.Code).JSON(ErrorResponse(appErr.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
