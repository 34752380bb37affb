package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"propgen/internal/http/middleware"
	"propgen/internal/model"
	"propgen/internal/service"
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

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses and
// stable error codes. Every fatal path produces exactly one human-readable
// failure notice.
func writePipelineError(c *fiber.Ctx, err error) error {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", verr.Reason)
	}
	if errors.Is(err, service.ErrJobNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "job not found")
	}
	if errors.Is(err, service.ErrJobNotReady) {
		return writeError(c, fiber.StatusConflict, "NOT_READY", "job has no generated proposal yet")
	}

	var terr *model.TimeoutError
	if errors.As(err, &terr) {
		return writeError(c, fiber.StatusGatewayTimeout, "TIMEOUT", "the operation timed out")
	}
	var serr *model.StorageError
	if errors.As(err, &serr) {
		return writeError(c, fiber.StatusBadGateway, "UPLOAD_FAILED", "document upload failed")
	}
	var perr *model.PersistenceError
	if errors.As(err, &perr) {
		return writeError(c, fiber.StatusInternalServerError, "PERSISTENCE_ERROR", "could not save job state")
	}
	var gerr *model.GenerationError
	if errors.As(err, &gerr) {
		return writeError(c, fiber.StatusBadGateway, "GENERATION_FAILED", "proposal generation failed")
	}

	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
