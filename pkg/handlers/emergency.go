package handlers

import (
	"strconv"

	"sos/pkg/envelope"
	"sos/pkg/models"
	"sos/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type EmergencyHandler struct {
	service services.EmergencyService
}

func NewEmergency(service services.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{service: service}
}

// POST /emergencies (bearer). The row is always created with status
// "pending"; the user id comes from the token, never the body.
func (eh *EmergencyHandler) Create(c *fiber.Ctx) error {
	var req models.CreateEmergencyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(envelope.Fail("Invalid JSON"))
	}

	userID := c.Locals("user_id").(string)

	emergency, err := eh.service.Create(userID, req)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(201).JSON(envelope.OKMessage("Emergency created", emergency))
}

// GET /emergencies (bearer), newest first, scoped to the token's user.
func (eh *EmergencyHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	list, err := eh.service.ListByUser(userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.OK(list))
}

// PATCH /internal/emergencies/:id/status (admin key). Status moves are
// made by dispatch tooling, never by the reporting client.
func (eh *EmergencyHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(envelope.Fail("Invalid id"))
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(envelope.Fail("Invalid JSON"))
	}

	emergency, err := eh.service.UpdateStatus(id, req.Status)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.OKMessage("Status updated", emergency))
}
