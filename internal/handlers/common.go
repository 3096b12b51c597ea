package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/nexkart/internal/services"
)

// respondMutation standardizes state-mutating responses on explicit result
// envelopes. Authorization and validation failures abort with a thrown error
// before any mutation; everything else reports through the envelope so
// partial-failure semantics stay visible to callers.
func respondMutation(c *fiber.Ctx, message string, err error) error {
	if err == nil {
		return c.JSON(fiber.Map{"success": true, "message": message})
	}

	switch {
	case services.IsValidation(err):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case services.IsAuthorization(err):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": err.Error()})
	case services.IsConflict(err):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var external *services.ExternalError
	if errors.As(err, &external) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": external.Error()})
	}

	return err
}
