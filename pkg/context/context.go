package context

import (
	"context"
	"github.com/gofiber/fiber/v2"
)

type key string

const (
	RequestIDKey = "request_id"
	TickIDKey    = "tick_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// WithTickID tags a scheduler run. The tick id doubles as the request id so
// repository logs stay correlated with the tick that issued the query.
func WithTickID(ctx context.Context, tickID string) context.Context {
	ctx = context.WithValue(ctx, key(TickIDKey), tickID)
	return WithRequestID(ctx, tickID)
}

func GetTickID(ctx context.Context) string {
	tickID, ok := ctx.Value(key(TickIDKey)).(string)
	if !ok || tickID == "" {
		return "unknown"
	}
	return tickID
}

func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := context.Background()

	requestID, ok := c.Locals("X-Request-ID").(string)
	if !ok || requestID == "" {
		requestID = c.Get("X-Request-ID")

		if requestID == "" {
			requestID = "unknown"
		}
	}

	return WithRequestID(ctx, requestID)
}
