package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/respondent-registry-api/internal/middleware"
	"github.com/noah-isme/respondent-registry-api/internal/service"
	"github.com/noah-isme/respondent-registry-api/internal/utils"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// sendWriteError maps a service error to a status code and the operator-facing message.
func sendWriteError(c *fiber.Ctx, logger zerolog.Logger, op service.Operation, err error) error {
	result := service.Result(op, err)

	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, result.Message, validationErr.Violations)
	case errors.Is(err, service.ErrDuplicatePhone):
		return utils.SendError(c, fiber.StatusConflict, result.Message)
	case errors.Is(err, service.ErrRespondentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, result.Message)
	default:
		requestLogger(logger, c).Error().Err(err).Str("operation", string(op)).Msg("respondent write failed")
		return utils.SendError(c, fiber.StatusInternalServerError, result.Message)
	}
}
