package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/shared"
)

type TokenVerifier interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}

// RequiredAuth rejects requests without a valid bearer token and stores the
// caller's id under shared.UserID.
func RequiredAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := verifier.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, err := verifier.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		if strings.TrimSpace(userID) == "" {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

// OptionalAuth sets shared.UserID when a valid token is present and never
// rejects the request.
func OptionalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			if token, err := verifier.ExtractTokenFromHeader(authHeader); err == nil {
				if userID, err := verifier.VerifyJWTToken(token); err == nil && userID != "" {
					c.Locals(shared.UserID, userID)
				}
			}
		}
		return c.Next()
	}
}
