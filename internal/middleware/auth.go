package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"college-appointments-api/internal/auth"
	"college-appointments-api/internal/model"
	"college-appointments-api/internal/store"
)

const callerKey = "caller"

// Auth verifies the bearer token and resolves the caller against the
// identity store; role is never taken from the token. The loaded user is
// stashed in request locals for the role gate and handlers.
func Auth(secret string, st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Access denied. No token provided.",
			})
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token.",
			})
		}

		user, err := st.UserByID(c.Context(), claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token.",
			})
		}

		c.Locals(callerKey, user)
		return c.Next()
	}
}

// RequireRole is the capability check applied before role-restricted
// operations.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := Caller(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required.",
			})
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Access denied. Insufficient permissions.",
		})
	}
}

// Caller returns the authenticated user placed by Auth, or nil.
func Caller(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(callerKey).(*model.User)
	return user
}
