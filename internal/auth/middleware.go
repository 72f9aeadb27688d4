package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// WebhookAuth enforces gateway authentication on the webhook route. With
// no secret configured it passes everything through (development only).
type WebhookAuth struct {
	tokens  *TokenManager
	enabled bool
}

// NewWebhookAuth constructs middleware for the given shared secret.
func NewWebhookAuth(secret string) *WebhookAuth {
	return &WebhookAuth{
		tokens:  NewTokenManager(secret),
		enabled: secret != "",
	}
}

// Handle validates the bearer token on protected routes.
func (m *WebhookAuth) Handle(c *fiber.Ctx) error {
	if !m.enabled {
		return c.Next()
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return errorutil.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return errorutil.NewUnauthorized("invalid authorization header")
	}

	if _, err := m.tokens.ParseToken(parts[1]); err != nil {
		return errorutil.NewUnauthorized("invalid token")
	}
	return c.Next()
}
