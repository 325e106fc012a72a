package reminderRepository

const (
	reminderColumns = `
			ev.id,
			ev.category_id,
			cat.name AS category,
			TRIM(COALESCE(cli.first_name, '') || ' ' || COALESCE(cli.last_name, '')) AS subject_name,
			cli.phone AS contact_phone,
			ev.scheduled_date,
			ev.scheduled_time,
			ev.reminder_sent,
			ev.sent_at,
			ev.confirmed
	`

	reminderJoins = `
		FROM calendar_events ev
		LEFT JOIN event_categories cat ON cat.id = ev.category_id
		LEFT JOIN clients cli ON cli.document = ev.document
	`

	queryGetPendingReminders = `
		SELECT` + reminderColumns + reminderJoins + `
		WHERE
			ev.category_id IN (:categories)
			AND (ev.reminder_sent = FALSE OR ev.reminder_sent IS NULL)
			AND REPLACE(ev.scheduled_date, '-', '') IN (:dates)
		ORDER BY ev.scheduled_date, ev.scheduled_time, ev.id
	`

	queryGetReminderByID = `
		SELECT` + reminderColumns + reminderJoins + `
		WHERE ev.id = :id
	`

	queryMarkSent = `
		UPDATE calendar_events
		SET
			reminder_sent = TRUE,
			sent_at = :sent_at
		WHERE id = :id
	`

	queryConfirmByID = `
		UPDATE calendar_events
		SET
			confirmed = :answer,
			confirmed_at = :confirmed_at
		WHERE id = :id
	`

	queryConfirmByIDForPhone = `
		UPDATE calendar_events
		SET
			confirmed = :answer,
			confirmed_at = :confirmed_at
		WHERE id = (
			SELECT ev.id
			FROM calendar_events ev
			JOIN clients cli ON cli.document = ev.document
			WHERE
				ev.id = :id
				AND regexp_replace(cli.phone, '\D', '', 'g') IN (:phones)
		)
	`

	queryConfirmLatestForPhone = `
		UPDATE calendar_events
		SET
			confirmed = :answer,
			confirmed_at = :confirmed_at
		WHERE id = (
			SELECT ev.id
			FROM calendar_events ev
			JOIN clients cli ON cli.document = ev.document
			WHERE
				regexp_replace(cli.phone, '\D', '', 'g') IN (:phones)
				AND ev.reminder_sent = TRUE
				AND REPLACE(ev.scheduled_date, '-', '') = :date
			ORDER BY ev.sent_at DESC NULLS LAST, ev.id DESC
			LIMIT 1
		)
		RETURNING id
	`
)
