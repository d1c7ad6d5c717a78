package handler

import (
	"github.com/gofiber/fiber/v2"

	"real-time-messenger/apperror"
)

func parseBody(c *fiber.Ctx, payload interface{}) error {
	if err := c.BodyParser(payload); err != nil {
		return apperror.Wrap(apperror.ValidationError, "Invalid request body", err)
	}
	return nil
}
