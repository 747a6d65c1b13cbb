package api

import (
	"jobmail/middleware"
	"jobmail/utils"

	"github.com/gofiber/fiber/v2"
)

// parseJSON requires a JSON body so cross-site form posts cannot reach the API
func parseJSON(c *fiber.Ctx, out interface{}) error {
	if !c.Is("json") {
		return utils.NewAppError(fiber.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
	}
	if err := c.BodyParser(out); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	return nil
}

// errorJSON writes err with the status code of its kind
func errorJSON(c *fiber.Ctx, err error) error {
	return c.Status(utils.StatusCode(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func t(c *fiber.Ctx, id string) string {
	return utils.T(middleware.Localizer(c), id)
}
