package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// StaffMiddleware allows only users whose token carries the STAFF role.
func StaffMiddleware(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "STAFF" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  false,
			"message": "You do not have permission to access this resource!",
			"data":    nil,
		})
	}
	return c.Next()
}
