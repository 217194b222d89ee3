package rest

import (
	"errors"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders every error returned by a handler as an ErrorDTO.
// Install it in fiber.Config.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			status int
			body   application.ErrorDTO
			reqErr *requestError
			fibErr *fiber.Error
		)
		switch {
		case errors.As(err, &reqErr):
			status = fiber.StatusBadRequest
			body = application.ErrorDTO{Error: reqErr.msg, Reason: reasonInvalidRequest}
		case errors.As(err, &fibErr):
			status = fibErr.Code
			body = application.ErrorDTO{Error: fibErr.Message, Reason: reasonInvalidRequest}
			if status == fiber.StatusNotFound {
				body.Reason = domain.ReasonNotFound
			}
		default:
			status = statusFor(err)
			body = application.NewErrorDTO(err)
		}

		if status == fiber.StatusServiceUnavailable && errors.Is(err, domain.ErrBusy) {
			c.Set(fiber.HeaderRetryAfter, "1")
		}
		if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
			log.Error("HTTP request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(body)
	}
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

// requestError is a malformed request, reported with the INVALID_REQUEST reason
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

const reasonInvalidRequest = "INVALID_REQUEST"

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrSelfBidForbidden), errors.Is(err, domain.ErrNotSeller):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrAuctionNotActive), errors.Is(err, domain.ErrAuctionNotEnded):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrBidTooLow):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBusy):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
