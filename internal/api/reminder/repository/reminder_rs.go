package reminderRepository

import (
	"database/sql"
	"errors"
	"time"

	"WhatsappReminder/internal/api/reminder"
	"WhatsappReminder/internal/entity"
	contextPkg "WhatsappReminder/pkg/context"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ReminderEventDB struct {
	ID            int64          `db:"id"`
	CategoryID    sql.NullInt64  `db:"category_id"`
	Category      sql.NullString `db:"category"`
	SubjectName   sql.NullString `db:"subject_name"`
	ContactPhone  sql.NullString `db:"contact_phone"`
	ScheduledDate sql.NullString `db:"scheduled_date"`
	ScheduledTime sql.NullString `db:"scheduled_time"`
	ReminderSent  sql.NullBool   `db:"reminder_sent"`
	SentAt        sql.NullTime   `db:"sent_at"`
	Confirmed     sql.NullString `db:"confirmed"`
}

func (r *reminderRepository) bind(ctx context.Context, operation string, namedQuery string, argsKV map[string]interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err == nil {
		query, args, err = sqlx.In(query, args...)
	}
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"operation":  operation,
			"error":      err.Error(),
		}).Error("Failed to build SQL query")
		return "", nil, err
	}
	return r.q.Rebind(query), args, nil
}

func (r *reminderRepository) GetPendingReminders(ctx context.Context, categories []int, dates []string) ([]entity.ReminderEvent, error) {
	if len(categories) == 0 || len(dates) == 0 {
		return nil, nil
	}

	query, args, err := r.bind(ctx, "GetPendingReminders", queryGetPendingReminders, map[string]interface{}{
		"categories": categories,
		"dates":      dates,
	})
	if err != nil {
		return nil, err
	}

	var rows []ReminderEventDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("GetPendingReminders execution err")
		return nil, err
	}

	events := make([]entity.ReminderEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, r.makeReminderEvent(row))
	}

	return events, nil
}

func (r *reminderRepository) GetReminderByID(ctx context.Context, id int64) (entity.ReminderEvent, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := r.bind(ctx, "GetReminderByID", queryGetReminderByID, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return entity.ReminderEvent{}, err
	}

	var row ReminderEventDB
	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id":  requestID,
				"reminder_id": id,
			}).Warn("GetReminderByID no rows found")
			return entity.ReminderEvent{}, reminder.ErrReminderNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetReminderByID execution err")
		return entity.ReminderEvent{}, err
	}

	return r.makeReminderEvent(row), nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query, args, err := r.bind(ctx, "MarkSent", queryMarkSent, map[string]interface{}{
		"id":      id,
		"sent_at": sentAt,
	})
	if err != nil {
		return err
	}

	return r.execOne(ctx, "MarkSent", id, query, args)
}

func (r *reminderRepository) ConfirmByID(ctx context.Context, id int64, answer entity.Confirmation, confirmedAt time.Time) error {
	query, args, err := r.bind(ctx, "ConfirmByID", queryConfirmByID, map[string]interface{}{
		"id":           id,
		"answer":       string(answer),
		"confirmed_at": confirmedAt,
	})
	if err != nil {
		return err
	}

	return r.execOne(ctx, "ConfirmByID", id, query, args)
}

// ConfirmByIDForPhone updates reminder id only when it belongs to one of
// phones. It reports whether a row was updated.
func (r *reminderRepository) ConfirmByIDForPhone(ctx context.Context, id int64, phones []string, answer entity.Confirmation, confirmedAt time.Time) (bool, error) {
	if len(phones) == 0 {
		return false, nil
	}

	query, args, err := r.bind(ctx, "ConfirmByIDForPhone", queryConfirmByIDForPhone, map[string]interface{}{
		"id":           id,
		"phones":       phones,
		"answer":       string(answer),
		"confirmed_at": confirmedAt,
	})
	if err != nil {
		return false, err
	}

	err = r.execOne(ctx, "ConfirmByIDForPhone", id, query, args)
	if errors.Is(err, reminder.ErrReminderNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ConfirmLatestForPhone updates the most recently sent reminder of phones
// scheduled on date (YYYYMMDD) and returns its id, or zero when none matched.
func (r *reminderRepository) ConfirmLatestForPhone(ctx context.Context, phones []string, date string, answer entity.Confirmation, confirmedAt time.Time) (int64, error) {
	if len(phones) == 0 {
		return 0, nil
	}

	query, args, err := r.bind(ctx, "ConfirmLatestForPhone", queryConfirmLatestForPhone, map[string]interface{}{
		"phones":       phones,
		"date":         date,
		"answer":       string(answer),
		"confirmed_at": confirmedAt,
	})
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("ConfirmLatestForPhone execution err")
		return 0, err
	}

	return id, nil
}

func (r *reminderRepository) execOne(ctx context.Context, operation string, id int64, query string, args []interface{}) error {
	requestID := contextPkg.GetRequestID(ctx)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"reminder_id": id,
			"operation":   operation,
			"error":       err.Error(),
		}).Error("Database error when updating reminder")
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"reminder_id": id,
			"operation":   operation,
		}).Warn("No reminder updated")
		return reminder.ErrReminderNotFound
	}

	return nil
}

func (r *reminderRepository) makeReminderEvent(row ReminderEventDB) entity.ReminderEvent {
	ev := entity.ReminderEvent{
		ID:            row.ID,
		CategoryID:    int(row.CategoryID.Int64),
		Category:      row.Category.String,
		SubjectName:   row.SubjectName.String,
		ContactPhone:  row.ContactPhone.String,
		ScheduledDate: row.ScheduledDate.String,
		ScheduledTime: row.ScheduledTime.String,
		Sent:          row.ReminderSent.Bool,
		Confirmed:     row.Confirmed.String,
	}
	if row.SentAt.Valid {
		sentAt := row.SentAt.Time
		ev.SentAt = &sentAt
	}
	return ev
}
