package middleware

import (
	"encoding/json"
	"time"

	"WhatsappReminder/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// NewLoggingMiddleware logs one line per request. Media payloads are never
// written to the log.
func (m *middleware) NewLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		logFields := log.Fields{
			"request_id":    m.GetRequestID(c),
			"method":        c.Method(),
			"path":          c.Path(),
			"status":        status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"ip":            c.IP(),
			"user_agent":    c.Get("User-Agent"),
			"response_size": len(c.Response().Body()),
		}

		if body := c.Request().Body(); len(body) > 0 {
			logFields["request_body"] = sanitizeRequestBody(body)
		}

		switch {
		case status >= 500:
			m.log.WithFields(logFields).Error("Server error")
		case status >= 400:
			m.log.WithFields(logFields).Warn("Client error")
		default:
			m.log.WithFields(logFields).Info("Success")
		}

		return err
	}
}

func sanitizeRequestBody(body []byte) string {
	var jsonBody map[string]interface{}
	if err := json.Unmarshal(body, &jsonBody); err != nil {
		return "[non-JSON body]"
	}

	redacted := []string{"mediaBase64", "token", "secret", "password", "authorization"}
	for _, field := range redacted {
		if _, exists := jsonBody[field]; exists {
			jsonBody[field] = "[REDACTED]"
		}
	}

	sanitized, err := json.Marshal(jsonBody)
	if err != nil {
		return "[sanitization-failed]"
	}

	return string(sanitized)
}
