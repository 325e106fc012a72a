package middleware

import (
	"os"

	jwtPkg "WhatsappReminder/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	APITokenSecret = "API_TOKEN_SECRET"
)

type tokenMiddleware struct {
	secretEnv string
}

func newTokenMiddleware(secretEnv string) *tokenMiddleware {
	return &tokenMiddleware{secretEnv: secretEnv}
}

// NewTokenMiddleware requires a bearer token signed with the API secret.
// Without a configured secret the operator endpoints stay open, matching a
// local single-operator deployment.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	if os.Getenv(m.token.secretEnv) == "" {
		return ctx.Next()
	}

	subject, err := jwtPkg.VerifyTokenHeader(ctx, m.token.secretEnv)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
			"client_ip":  ctx.IP(),
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "Unauthorized, access token invalid or expired",
		})
	}

	ctx.Locals(jwtPkg.SubjectLocalKey, subject)
	return ctx.Next()
}
