package reminderService

import (
	"sync/atomic"
	"time"

	"WhatsappReminder/internal/api/reminder"
	reminderRepository "WhatsappReminder/internal/api/reminder/repository"
	"WhatsappReminder/internal/entity"
	"WhatsappReminder/pkg/metrics"
	"WhatsappReminder/pkg/utils"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	DefaultConfirmationLink = "http://localhost:3000/api/v1/reminders/{id}/confirm"
	DefaultCountryCode      = "57"
	DefaultTimezone         = "America/Bogota"
)

var DefaultCategories = []int{1, 3, 4, 6, 12, 13}

type IReminderService interface {
	RunTick(ctx context.Context) (reminder.TickResult, error)
	HandleConfirmation(ctx context.Context, from string, body string) (bool, error)
	ConfirmFromLink(ctx context.Context, id int64, answer string) (reminder.ReminderResponse, error)
	GetReminder(ctx context.Context, id int64) (reminder.ReminderResponse, error)
}

type Config struct {
	Categories       []int
	Window           *entity.Window
	Location         *time.Location
	OperatorNumber   string
	CountryCode      string
	ConfirmationLink string
	Now              func() time.Time
}

type reminderService struct {
	log                *logrus.Logger
	reminderRepository reminderRepository.Repository
	gateway            whatsapp.IWhatsappSender
	utils              utils.IUtils
	metrics            metrics.IMetrics
	cfg                Config
	running            atomic.Bool
}

func NewReminderService(
	log *logrus.Logger,
	rr reminderRepository.Repository,
	gateway whatsapp.IWhatsappSender,
	utils utils.IUtils,
	m metrics.IMetrics,
	cfg Config,
) IReminderService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Window == nil {
		cfg.Window = &entity.Window{Min: 57, Max: 63}
	}
	if cfg.OperatorNumber == "" {
		log.Warn("No operator number configured, reminder copies to the operator are disabled")
	}

	return &reminderService{
		log:                log,
		reminderRepository: rr,
		gateway:            gateway,
		utils:              utils,
		metrics:            m,
		cfg:                cfg,
	}
}

func (s *reminderService) now() time.Time {
	return s.cfg.Now().In(s.cfg.Location)
}

func (s *reminderService) recordDispatch(kind string, err error) {
	if s.metrics != nil {
		s.metrics.RecordDispatch(kind, err)
	}
}
