package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	reminderService "WhatsappReminder/internal/api/reminder/service"
	"WhatsappReminder/internal/entity"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/go-playground/validator/v10"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	AppPort string `validate:"required,numeric"`

	AllowListPath     string        `validate:"required"`
	AllowListDebounce time.Duration `validate:"gte=0"`

	SessionDriver string `validate:"oneof=sqlite3 postgres"`
	SessionDir    string `validate:"required"`
	PrintQR       bool

	RemindersEnabled bool
	ReminderInterval time.Duration `validate:"gt=0"`
	ReminderWindow   entity.Window
	Categories       []int `validate:"required_if=RemindersEnabled true"`
	Timezone         string `validate:"required"`
	Location         *time.Location
	OperatorNumber   string `validate:"omitempty,numeric,min=10"`
	CountryCode      string `validate:"omitempty,numeric"`
	ConfirmationLink string

	ConversationConfig string
	ConversationTTL    time.Duration `validate:"gte=0"`
	RedisEnabled       bool
	S3Enabled          bool
	MetricsEnabled     bool

	RatePerSecond float64 `validate:"gt=0"`
	RateBurst     int     `validate:"gt=0"`
}

// LoadSettings reads the environment, fills defaults and validates the
// result.
func LoadSettings(validate *validator.Validate) (Settings, error) {
	var err error
	s := Settings{
		AppPort:            envOr("APP_PORT", "3000"),
		AllowListPath:      envOr("ALLOWLIST_PATH", "EnvioWS.csv"),
		SessionDriver:      envOr("WHATSAPP_SESSION_DRIVER", whatsapp.SessionDriverSQLite),
		SessionDir:         envOr("WHATSAPP_SESSION_DIR", ".wa_session"),
		Timezone:           envOr("REMINDER_TIMEZONE", reminderService.DefaultTimezone),
		OperatorNumber:     entity.OnlyDigits(os.Getenv("OPERATOR_NUMBER")),
		CountryCode:        envOr("COUNTRY_CODE", reminderService.DefaultCountryCode),
		ConfirmationLink:   envOr("CONFIRMATION_LINK_TEMPLATE", reminderService.DefaultConfirmationLink),
		ConversationConfig: os.Getenv("CONVERSATION_CONFIG"),
		RedisEnabled:       os.Getenv("REDIS_ADDRESS") != "",
		S3Enabled:          os.Getenv("AWS_BUCKET_NAME") != "",
	}

	if s.AllowListDebounce, err = envDuration("ALLOWLIST_DEBOUNCE", 750*time.Millisecond); err != nil {
		return Settings{}, err
	}
	if s.PrintQR, err = envBool("WHATSAPP_PRINT_QR", true); err != nil {
		return Settings{}, err
	}
	if s.RemindersEnabled, err = envBool("REMINDERS_ENABLED", os.Getenv("DB_HOST") != ""); err != nil {
		return Settings{}, err
	}
	if s.ReminderInterval, err = envDuration("REMINDER_INTERVAL", time.Minute); err != nil {
		return Settings{}, err
	}
	if s.ReminderWindow.Min, err = envInt("REMINDER_WINDOW_MIN", 57); err != nil {
		return Settings{}, err
	}
	if s.ReminderWindow.Max, err = envInt("REMINDER_WINDOW_MAX", 63); err != nil {
		return Settings{}, err
	}
	if s.Categories, err = envInts("REMINDER_CATEGORIES", reminderService.DefaultCategories); err != nil {
		return Settings{}, err
	}
	if s.ConversationTTL, err = envDuration("CONVERSATION_TTL", 0); err != nil {
		return Settings{}, err
	}
	if s.MetricsEnabled, err = envBool("METRICS_ENABLED", true); err != nil {
		return Settings{}, err
	}
	if s.RatePerSecond, err = envFloat("RATE_LIMIT_PER_SECOND", 5); err != nil {
		return Settings{}, err
	}
	if s.RateBurst, err = envInt("RATE_LIMIT_BURST", 20); err != nil {
		return Settings{}, err
	}

	if err := validate.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.ReminderWindow.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	s.Location, err = time.LoadLocation(s.Timezone)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid settings: REMINDER_TIMEZONE: %w", err)
	}

	return s, nil
}

func (s Settings) WhatsappConfig() whatsapp.Config {
	return whatsapp.Config{
		SessionDriver: s.SessionDriver,
		SessionDir:    s.SessionDir,
		PrintQR:       s.PrintQR,
	}
}

func (s Settings) ReminderConfig() reminderService.Config {
	window := s.ReminderWindow
	return reminderService.Config{
		Categories:       s.Categories,
		Window:           &window,
		Location:         s.Location,
		OperatorNumber:   s.OperatorNumber,
		CountryCode:      s.CountryCode,
		ConfirmationLink: s.ConfirmationLink,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// envInts parses a comma separated list such as "1,3,4".
func envInts(key string, fallback []int) ([]int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
