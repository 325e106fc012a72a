package outreachHandler

import (
	"fmt"
	"time"

	"WhatsappReminder/internal/api/outreach"
	contextPkg "WhatsappReminder/pkg/context"
	"WhatsappReminder/pkg/handlerUtil"
	"WhatsappReminder/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const qrPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta http-equiv="refresh" content="20"><title>WhatsApp QR</title></head>
<body style="font-family:sans-serif;text-align:center">
<h2>Escanea este código con WhatsApp</h2>
<img src="%s" alt="QR">
</body>
</html>`

func (h *OutreachHandler) Send(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing send request")

	var req outreach.SendRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	recipient, err := h.outreachService.Send(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "send_message")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, outreach.SendResponse{
			Status:    "sent",
			Recipient: recipient,
		})
	}
}

func (h *OutreachHandler) GetPairingQR(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	dataURL, connected, err := h.outreachService.PairingQR(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "render_qr")
	}

	if dataURL == "" {
		message := "QR aún no generado. Intenta en unos segundos."
		if connected {
			message = "La sesión de WhatsApp ya está vinculada."
		}
		return ctx.Status(fiber.StatusOK).SendString(message)
	}

	ctx.Type("html", "utf-8")
	return ctx.Status(fiber.StatusOK).SendString(fmt.Sprintf(qrPage, dataURL))
}
