package storage

import (
	"context"
	"database/sql"

	"github.com/ad/fitness-challenge-bot/internal/domain"
)

// EventRepository handles event data operations
type EventRepository struct {
	queue *DBQueue
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(queue *DBQueue) *EventRepository {
	return &EventRepository{queue: queue}
}

const eventColumns = `id, name, description, event_type, distance_type, start_date, end_date, registration_deadline, max_participants, status, is_active, created_at`

func scanEvent(scan func(dest ...interface{}) error) (*domain.Event, error) {
	var e domain.Event
	var eventType, distanceType, status string
	var deadline sql.NullTime
	if err := scan(
		&e.ID, &e.Name, &e.Description, &eventType, &distanceType,
		&e.StartDate, &e.EndDate, &deadline, &e.MaxParticipants,
		&status, &e.IsActive, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Type = domain.EventType(eventType)
	e.DistanceType = domain.DistanceType(distanceType)
	e.Status = domain.EventStatus(status)
	if deadline.Valid {
		t := deadline.Time
		e.RegistrationDeadline = &t
	}
	return &e, nil
}

// CreateEvent inserts a new event
func (r *EventRepository) CreateEvent(ctx context.Context, e *domain.Event) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		var deadline interface{}
		if e.RegistrationDeadline != nil {
			deadline = *e.RegistrationDeadline
		}

		result, err := db.ExecContext(ctx,
			`INSERT INTO events (name, description, event_type, distance_type, start_date, end_date, registration_deadline, max_participants, status, is_active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Name, e.Description, string(e.Type), string(e.DistanceType),
			e.StartDate, e.EndDate, deadline, e.MaxParticipants,
			string(e.Status), e.IsActive, e.CreatedAt,
		)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		e.ID = id
		return nil
	})
}

// GetEvent retrieves an event by ID
func (r *EventRepository) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	var event *domain.Event

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
		e, err := scanEvent(row.Scan)
		if err != nil {
			return err
		}
		event = e
		return nil
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return event, nil
}

// GetActiveEvents retrieves events open to participants
func (r *EventRepository) GetActiveEvents(ctx context.Context) ([]*domain.Event, error) {
	return r.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE is_active = 1 AND status IN ('upcoming', 'active')
		 ORDER BY start_date ASC`)
}

// GetEventsByType retrieves open events of the given type
func (r *EventRepository) GetEventsByType(ctx context.Context, t domain.EventType) ([]*domain.Event, error) {
	return r.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE is_active = 1 AND status IN ('upcoming', 'active') AND event_type = ?
		 ORDER BY start_date ASC`,
		string(t))
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*domain.Event, error) {
	var events []*domain.Event

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEvent(rows.Scan)
			if err != nil {
				return err
			}
			events = append(events, e)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return events, nil
}

// UpdateEventStatus sets the status of an event
func (r *EventRepository) UpdateEventStatus(ctx context.Context, id int64, status domain.EventStatus) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`UPDATE events SET status = ? WHERE id = ?`,
			string(status), id,
		)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return sql.ErrNoRows
		}

		return nil
	})
}

// EventRegistrationRepository handles event registration data operations
type EventRegistrationRepository struct {
	queue *DBQueue
}

// NewEventRegistrationRepository creates a new EventRegistrationRepository
func NewEventRegistrationRepository(queue *DBQueue) *EventRegistrationRepository {
	return &EventRegistrationRepository{queue: queue}
}

// CreateRegistration inserts a registration, assigning the next bib
// number within the event scope in the same transaction
func (r *EventRegistrationRepository) CreateRegistration(ctx context.Context, reg *domain.EventRegistration, bibPrefix string) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var last string
		err = tx.QueryRowContext(ctx,
			`SELECT bib_number FROM event_registrations WHERE event_id = ? ORDER BY id DESC LIMIT 1`,
			reg.EventID,
		).Scan(&last)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		reg.BibNumber = domain.NextBibNumber(bibPrefix, last)

		result, err := tx.ExecContext(ctx,
			`INSERT INTO event_registrations (participant_id, event_id, bib_number, registered_at, status)
			 VALUES (?, ?, ?, ?, ?)`,
			reg.ParticipantID, reg.EventID, reg.BibNumber, reg.RegisteredAt, reg.Status,
		)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		reg.ID = id

		return tx.Commit()
	})
}

// GetRegistration retrieves a registration by participant and event
func (r *EventRegistrationRepository) GetRegistration(ctx context.Context, participantID, eventID int64) (*domain.EventRegistration, error) {
	var reg domain.EventRegistration

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT id, participant_id, event_id, bib_number, registered_at, status
			 FROM event_registrations WHERE participant_id = ? AND event_id = ?`,
			participantID, eventID,
		).Scan(&reg.ID, &reg.ParticipantID, &reg.EventID, &reg.BibNumber, &reg.RegisteredAt, &reg.Status)
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &reg, nil
}

// GetRegistrationsByParticipant retrieves all registrations of a participant
func (r *EventRegistrationRepository) GetRegistrationsByParticipant(ctx context.Context, participantID int64) ([]*domain.EventRegistration, error) {
	var regs []*domain.EventRegistration

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT id, participant_id, event_id, bib_number, registered_at, status
			 FROM event_registrations WHERE participant_id = ? ORDER BY registered_at ASC`,
			participantID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var reg domain.EventRegistration
			if err := rows.Scan(&reg.ID, &reg.ParticipantID, &reg.EventID, &reg.BibNumber, &reg.RegisteredAt, &reg.Status); err != nil {
				return err
			}
			regs = append(regs, &reg)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return regs, nil
}

// CountRegistrations counts registrations for an event
func (r *EventRegistrationRepository) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	var count int

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM event_registrations WHERE event_id = ?`,
			eventID,
		).Scan(&count)
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}
