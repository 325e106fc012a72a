package reminder

import (
	"fmt"
	"strconv"
	"strings"

	"WhatsappReminder/internal/entity"
)

const (
	unknownName     = "Desconocido"
	unknownPhone    = "No registrado"
	unknownCategory = "N/A"

	AckConfirmed = "✅ ¡Gracias por confirmar tu asistencia!"
	AckDeclined  = "❌ Hemos registrado que no asistirás. Por favor contacta para reprogramar."
)

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ConfirmationLink fills the {id} placeholder of template.
func ConfirmationLink(template string, id int64) string {
	return strings.ReplaceAll(template, "{id}", strconv.FormatInt(id, 10))
}

func CustomerMessage(ev entity.ReminderEvent, date, clock, link string) string {
	var b strings.Builder
	b.WriteString("📅 *Recordatorio de Cita*\n\n")
	fmt.Fprintf(&b, "👤 Cliente: *%s*\n", orDefault(ev.SubjectName, unknownName))
	fmt.Fprintf(&b, "📱 Teléfono: %s\n", orDefault(ev.ContactPhone, unknownPhone))
	fmt.Fprintf(&b, "🗓️ Fecha: %s\n", date)
	fmt.Fprintf(&b, "⏰ Hora: %s\n", clock)
	fmt.Fprintf(&b, "📌 Estado: %s\n", orDefault(ev.Category, unknownCategory))
	if link != "" {
		fmt.Fprintf(&b, "\n🔗 Por favor confirma tu asistencia aquí:\n%s\n", link)
	}
	b.WriteString("\nPor favor responde con:\n")
	b.WriteString("✅ *SI* para confirmar\n")
	b.WriteString("❌ *NO* para cancelar o reprogramar\n")
	b.WriteString("Please reply *SI* to confirm or *NO* to cancel or reschedule.\n")
	fmt.Fprintf(&b, "\n(Ref. #%d)", ev.ID)
	return b.String()
}

func OperatorMessage(ev entity.ReminderEvent, date, clock, contactNumber string) string {
	var b strings.Builder
	b.WriteString("📢 *Recordatorio asignado*\n\n")
	fmt.Fprintf(&b, "👤 Cliente: *%s*\n", orDefault(ev.SubjectName, unknownName))
	fmt.Fprintf(&b, "📱 Teléfono: %s\n", orDefault(ev.ContactPhone, unknownPhone))
	fmt.Fprintf(&b, "🗓️ Fecha: %s\n", date)
	fmt.Fprintf(&b, "⏰ Hora: %s\n", clock)
	fmt.Fprintf(&b, "📌 Estado: %s\n\n", orDefault(ev.Category, unknownCategory))
	fmt.Fprintf(&b, "🔗 Contactar cliente: https://wa.me/%s", contactNumber)
	return b.String()
}

func AckFor(answer entity.Confirmation) string {
	if answer == entity.ConfirmationYes {
		return AckConfirmed
	}
	return AckDeclined
}
