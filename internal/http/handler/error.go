package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docsummarizer/internal/database"
	"docsummarizer/internal/http/middleware"
	"docsummarizer/internal/service"
	"docsummarizer/internal/summarizer"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// serviceErrors maps pipeline failures to responses. First match wins.
var serviceErrors = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{service.ErrReaderNil, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"},
	{service.ErrEmptyInput, fiber.StatusBadRequest, "EMPTY_FILE", "empty file"},
	{service.ErrInvalidID, fiber.StatusBadRequest, "INVALID_ID", "invalid id format"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "document not found"},
	{service.ErrBlobMissing, fiber.StatusInternalServerError, "BLOB_MISSING", "document content is missing"},
	{database.ErrUnavailable, fiber.StatusInternalServerError, "DATABASE_UNAVAILABLE", "database not reachable"},
	{summarizer.ErrInference, fiber.StatusBadGateway, "INFERENCE_ERROR", "summarizer unavailable"},
}

// writeServiceError translates an error returned by the document service.
func writeServiceError(c *fiber.Ctx, err error) error {
	for _, e := range serviceErrors {
		if errors.Is(err, e.target) {
			return writeError(c, e.status, e.code, e.message)
		}
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "file too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
