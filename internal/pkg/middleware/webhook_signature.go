package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/chatico/mapper/internal/pkg/signature"
)

// WebhookSignatureMiddleware authenticates POSTed webhook bodies against
// the platform app secret before any parsing happens. GET requests (the
// subscription handshake) are unsigned and pass through.
func WebhookSignatureMiddleware(verifier *signature.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		header := c.Get("X-Hub-Signature-256")
		if header == "" {
			// Legacy SHA-1 header from older webhook subscriptions.
			header = c.Get("X-Hub-Signature")
		}

		if err := verifier.Verify(header, c.Body()); err != nil {
			log.Printf("webhook signature rejected: %v", err)
			message := "Invalid signature"
			if errors.Is(err, signature.ErrSignatureMissing) {
				message = "Missing signature header"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": message,
			})
		}

		return c.Next()
	}
}
