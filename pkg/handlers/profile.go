package handlers

import (
	"encoding/json"

	"sos/pkg/envelope"
	"sos/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	service services.ProfileService
}

func NewProfile(service services.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// GET /profile (bearer)
func (ph *ProfileHandler) Get(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	profile, err := ph.service.Get(userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.OK(profile))
}

// PUT /profile (bearer). The body is decoded as a free-form object so
// the allow-list can drop unknown fields without erroring.
func (ph *ProfileHandler) Update(c *fiber.Ctx) error {
	var fields map[string]any
	if err := json.Unmarshal(c.Body(), &fields); err != nil {
		return c.Status(400).JSON(envelope.Fail("Invalid JSON"))
	}

	userID := c.Locals("user_id").(string)

	profile, err := ph.service.Update(userID, fields)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.OKMessage("Profile updated successfully", profile))
}
