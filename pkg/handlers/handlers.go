package handlers

import (
	"errors"
	"log"

	"sos/pkg/envelope"

	"github.com/gofiber/fiber/v2"
)

// fail maps service errors to a status code plus the uniform envelope.
// Unexpected errors are logged server-side and replaced with a generic
// message so internals never leak to clients.
func fail(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(envelope.Fail(fe.Message))
	}
	log.Println("[SOS] unexpected error:", err)
	return c.Status(500).JSON(envelope.Fail("Unexpected error"))
}
