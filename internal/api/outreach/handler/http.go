package outreachHandler

import (
	outreachService "WhatsappReminder/internal/api/outreach/service"
	"WhatsappReminder/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type OutreachHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	outreachService outreachService.IOutreachService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	outreachService outreachService.IOutreachService,
) *OutreachHandler {
	return &OutreachHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		outreachService: outreachService,
	}
}

func (h *OutreachHandler) Start(srv fiber.Router) {
	srv.Get("/qr", h.GetPairingQR)
	srv.Post("/send", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware, h.Send)
}
