package middleware

import (
	"os"
	"strings"

	"sos/pkg/envelope"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func JwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-key-change-in-production"
	}
	return secret
}

// AuthMiddleware resolves `Authorization: Bearer <token>` to a user
// identity once, for every protected route. Writes scoped to a user
// always use the identity set here, never an id from the request body.
func AuthMiddleware(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return c.Status(401).JSON(envelope.Fail("Missing or invalid Authorization header"))
	}

	tokenStr := auth[7:]

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(JwtSecret()), nil
	})
	if err != nil || !token.Valid {
		return c.Status(401).JSON(envelope.Fail("Invalid token"))
	}

	claims := token.Claims.(*jwt.MapClaims)
	userID, _ := (*claims)["sub"].(string)
	email, _ := (*claims)["email"].(string)
	if userID == "" {
		return c.Status(401).JSON(envelope.Fail("Invalid token"))
	}

	c.Locals("user_id", userID)
	c.Locals("email", email)

	return c.Next()
}

// AdminMiddleware guards the internal status-transition route used by
// dispatchers. Not part of the client surface.
func AdminMiddleware(c *fiber.Ctx) error {
	adminKey := c.Get("X-Admin-Key")
	expectedKey := os.Getenv("ADMIN_SECRET_KEY")

	if expectedKey == "" {
		expectedKey = "dev-admin-secret"
	}

	if adminKey != expectedKey {
		return c.Status(403).JSON(envelope.Fail("Access denied: invalid admin key"))
	}

	return c.Next()
}
