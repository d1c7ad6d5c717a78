package config

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"real-time-messenger/apperror"
	"real-time-messenger/config/common"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/res"
)

// bodyLimit leaves room for the largest attachment (video, 50MB) plus multipart overhead.
const bodyLimit = 55 * 1024 * 1024

func NewFiber(cfg *common.Config, log *logger.AppLogger) *fiber.App {
	appName := cfg.GetAppConfig()
	return fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		AppName:       appName,
		BodyLimit:     bodyLimit,
		ErrorHandler:  NewErrorHandler(log),
	})
}

// NewErrorHandler renders every error returned by a handler as an ErrorResponse.
func NewErrorHandler(log *logger.AppLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := apperror.StatusCode(err)
		message := apperror.Message(err)
		var fiberErr *fiber.Error
		if apperror.KindOf(err) == "" && errors.As(err, &fiberErr) {
			message = fiberErr.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Http.Error.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Request failed")
		} else {
			log.Http.Warning.Warn().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", code).Msg("Request rejected")
		}

		return c.Status(code).JSON(res.ErrorResponse{
			Status:     utils.StatusMessage(code),
			StatusCode: code,
			Error:      message,
		})
	}
}
