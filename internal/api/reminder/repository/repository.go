package reminderRepository

import (
	"database/sql"
	"time"

	"WhatsappReminder/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	// NewClient pins one pooled connection for the caller. Close must be
	// called on every exit path.
	NewClient(ctx context.Context) (Client, error)
}

func (r *repository) NewClient(ctx context.Context) (Client, error) {
	conn, err := r.DB.Connx(ctx)
	if err != nil {
		return Client{}, err
	}

	return Client{
		Reminder: &reminderRepository{q: conn, log: r.log},
		Close:    conn.Close,
	}, nil
}

type Client struct {
	Reminder interface {
		GetPendingReminders(ctx context.Context, categories []int, dates []string) ([]entity.ReminderEvent, error)
		GetReminderByID(ctx context.Context, id int64) (entity.ReminderEvent, error)
		MarkSent(ctx context.Context, id int64, sentAt time.Time) error
		ConfirmByID(ctx context.Context, id int64, answer entity.Confirmation, confirmedAt time.Time) error
		ConfirmByIDForPhone(ctx context.Context, id int64, phones []string, answer entity.Confirmation, confirmedAt time.Time) (bool, error)
		ConfirmLatestForPhone(ctx context.Context, phones []string, date string, answer entity.Confirmation, confirmedAt time.Time) (int64, error)
	}

	Close func() error
}

type reminderRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
