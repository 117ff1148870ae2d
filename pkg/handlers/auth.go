package handlers

import (
	"sos/pkg/envelope"
	"sos/pkg/models"
	"sos/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	service services.AuthService
}

func NewAuth(service services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// POST /auth/register
func (ah *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(envelope.Fail("Invalid JSON"))
	}

	resp, err := ah.service.Register(req, c.Get("User-Agent"), c.IP())
	if err != nil {
		return fail(c, err)
	}

	return c.Status(201).JSON(envelope.Auth("User registered successfully", resp.User, resp.Session))
}

// POST /auth/login
func (ah *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(envelope.Fail("Invalid JSON"))
	}

	resp, err := ah.service.Login(req, c.Get("User-Agent"), c.IP())
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.Auth("Login successful", resp.User, resp.Session))
}

// POST /auth/refresh
func (ah *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.BodyParser(&req)

	resp, err := ah.service.Refresh(req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.Auth("Session refreshed", resp.User, resp.Session))
}

// GET /auth/session (bearer). Session-restore verification for clients
// coming back from a cold start.
func (ah *AuthHandler) Session(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	user, err := ah.service.Me(userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.Auth("Session valid", user, nil))
}

// POST /auth/logout (bearer). Idempotent.
func (ah *AuthHandler) Logout(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.BodyParser(&req)

	userID, _ := c.Locals("user_id").(string)
	if err := ah.service.Logout(req.RefreshToken, userID); err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.OKMessage("Logged out", nil))
}

// POST /auth/logout-all (bearer). Revokes every refresh session of the
// user, not just the one presented.
func (ah *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := ah.service.LogoutAll(userID); err != nil {
		return fail(c, err)
	}

	return c.JSON(envelope.OKMessage("Logged out everywhere", nil))
}
