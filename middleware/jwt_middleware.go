package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/AnasElkhodary-69/sales-master-sub001/config"
)

// Protected guards API routes with a bearer token. Tracking and webhook
// endpoints stay open: providers and mail clients cannot authenticate.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Auth is optional outside production so local setups work
		// without minting tokens.
		if config.AppConfig.JWTSecret == "" {
			return c.Next()
		}

		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies("access_token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authorization required",
				})
			}
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(config.AppConfig.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			c.Locals("subject", claims["sub"])
		}

		return c.Next()
	}
}
