package entity

import (
	"fmt"
	"regexp"
	"time"
	_ "time/tzdata"
)

const (
	DateNotRegistered = "Fecha no registrada"
	TimeNotRegistered = "Hora no registrada"
)

var (
	compactDatePattern = regexp.MustCompile(`^\d{8}$`)

	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// Window is an inclusive range of whole minutes before an appointment.
type Window struct {
	Min int
	Max int
}

func (w Window) Contains(minutes int) bool {
	return minutes >= w.Min && minutes <= w.Max
}

func (w Window) Validate() error {
	if w.Min < 0 || w.Max < w.Min {
		return fmt.Errorf("invalid eligibility window [%d,%d]", w.Min, w.Max)
	}
	return nil
}

// ParseSchedule combines a stored date ("YYYY-MM-DD" or "YYYYMMDD") and time
// (only the first five characters, "HH:mm", are read) in loc.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("missing date or time")
	}
	if compactDatePattern.MatchString(date) {
		date = date[0:4] + "-" + date[4:6] + "-" + date[6:8]
	}
	if len(clock) > 5 {
		clock = clock[:5]
	}
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule %q %q: %w", date, clock, err)
	}
	return t, nil
}

// FormatSchedule renders the date as "lunes, 10 de marzo de 2025" and the
// time as "14:30". Both fall back to placeholders when either input is
// missing or invalid.
func FormatSchedule(date, clock string, loc *time.Location) (string, string) {
	t, err := ParseSchedule(date, clock, loc)
	if err != nil {
		return DateNotRegistered, TimeNotRegistered
	}
	return SpanishLongDate(t), t.Format("15:04")
}

func SpanishLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// MinutesUntil returns the whole minutes from now to scheduled, truncated
// toward zero.
func MinutesUntil(scheduled, now time.Time) int {
	return int(scheduled.Sub(now) / time.Minute)
}
