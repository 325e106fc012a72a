package reminderHandler

import (
	"time"

	"WhatsappReminder/internal/api/reminder"
	"WhatsappReminder/internal/entity"
	contextPkg "WhatsappReminder/pkg/context"
	"WhatsappReminder/pkg/handlerUtil"
	"WhatsappReminder/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *ReminderHandler) RunTick(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Minute)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Info("Manual reminder tick requested")

	result, err := h.reminderService.RunTick(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "run_tick")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *ReminderHandler) GetReminder(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return errHandler.Handle(ctx, requestID, reminder.ErrInvalidReminder, ctx.Path(), "get_reminder")
	}

	resp, err := h.reminderService.GetReminder(c, int64(id))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_reminder")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *ReminderHandler) ConfirmFromLink(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return errHandler.Handle(ctx, requestID, reminder.ErrInvalidReminder, ctx.Path(), "confirm_reminder")
	}

	var req reminder.ConfirmRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if req.Answer == "" {
		return h.confirmPrompt(ctx, c, requestID, int64(id))
	}

	resp, err := h.reminderService.ConfirmFromLink(c, int64(id), req.Answer)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "confirm_reminder")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *ReminderHandler) confirmPrompt(ctx *fiber.Ctx, c context.Context, requestID string, id int64) error {
	errHandler := handlerUtil.New(h.log)

	resp, err := h.reminderService.GetReminder(c, id)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "confirm_reminder")
	}

	link := ctx.BaseURL() + ctx.Path()
	prompt := reminder.ConfirmPrompt{
		Reminder: resp,
		Choices: map[string]string{
			string(entity.ConfirmationYes): link + "?answer=" + string(entity.ConfirmationYes),
			string(entity.ConfirmationNo):  link + "?answer=" + string(entity.ConfirmationNo),
		},
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, prompt)
	}
}
