package reminderHandler

import (
	reminderService "WhatsappReminder/internal/api/reminder/service"
	"WhatsappReminder/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ReminderHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	reminderService reminderService.IReminderService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	reminderService reminderService.IReminderService,
) *ReminderHandler {
	return &ReminderHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		reminderService: reminderService,
	}
}

func (h *ReminderHandler) Start(srv fiber.Router) {
	reminders := srv.Group("/reminders")
	reminders.Post("/run", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware, h.RunTick)
	reminders.Get("/:id", h.middleware.NewTokenMiddleware, h.GetReminder)
	reminders.Get("/:id/confirm", h.middleware.NewRateLimiter, h.ConfirmFromLink)
}
