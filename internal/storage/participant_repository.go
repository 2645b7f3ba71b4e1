package storage

import (
	"context"
	"database/sql"

	"github.com/ad/fitness-challenge-bot/internal/domain"
)

// ParticipantRepository handles participant data operations
type ParticipantRepository struct {
	queue *DBQueue
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(queue *DBQueue) *ParticipantRepository {
	return &ParticipantRepository{queue: queue}
}

// CreateParticipant inserts a new participant. The start number is
// derived from the last issued one inside the same transaction, so the
// sequence stays gapless under concurrent registrations.
func (r *ParticipantRepository) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var last string
		err = tx.QueryRowContext(ctx,
			`SELECT start_number FROM participants ORDER BY id DESC LIMIT 1`,
		).Scan(&last)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		p.StartNumber = domain.NextBibNumber(domain.BibPrefixGlobal, last)

		result, err := tx.ExecContext(ctx,
			`INSERT INTO participants (telegram_id, full_name, birth_date, phone, distance_type, start_number, registered_at, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.TelegramID, p.FullName, p.BirthDate, p.Phone, string(p.DistanceType), p.StartNumber, p.RegisteredAt, p.IsActive,
		)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = id

		return tx.Commit()
	})
}

func scanParticipant(scan func(dest ...interface{}) error) (*domain.Participant, error) {
	var p domain.Participant
	var distanceType string
	if err := scan(
		&p.ID, &p.TelegramID, &p.FullName, &p.BirthDate, &p.Phone,
		&distanceType, &p.StartNumber, &p.RegisteredAt, &p.IsActive,
	); err != nil {
		return nil, err
	}
	p.DistanceType = domain.DistanceType(distanceType)
	return &p, nil
}

const participantColumns = `id, telegram_id, full_name, birth_date, phone, distance_type, start_number, registered_at, is_active`

// GetParticipant retrieves a participant by ID
func (r *ParticipantRepository) GetParticipant(ctx context.Context, id int64) (*domain.Participant, error) {
	var participant *domain.Participant

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+participantColumns+` FROM participants WHERE id = ?`, id)
		p, err := scanParticipant(row.Scan)
		if err != nil {
			return err
		}
		participant = p
		return nil
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return participant, nil
}

// GetParticipantByTelegramID retrieves a participant by telegram user ID
func (r *ParticipantRepository) GetParticipantByTelegramID(ctx context.Context, telegramID int64) (*domain.Participant, error) {
	var participant *domain.Participant

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+participantColumns+` FROM participants WHERE telegram_id = ?`, telegramID)
		p, err := scanParticipant(row.Scan)
		if err != nil {
			return err
		}
		participant = p
		return nil
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return participant, nil
}

// GetParticipantByStartNumber retrieves a participant by bib number
func (r *ParticipantRepository) GetParticipantByStartNumber(ctx context.Context, startNumber string) (*domain.Participant, error) {
	var participant *domain.Participant

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+participantColumns+` FROM participants WHERE start_number = ?`, startNumber)
		p, err := scanParticipant(row.Scan)
		if err != nil {
			return err
		}
		participant = p
		return nil
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return participant, nil
}

// GetActiveParticipants retrieves all active participants
func (r *ParticipantRepository) GetActiveParticipants(ctx context.Context) ([]*domain.Participant, error) {
	var participants []*domain.Participant

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT `+participantColumns+` FROM participants WHERE is_active = 1 ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanParticipant(rows.Scan)
			if err != nil {
				return err
			}
			participants = append(participants, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return participants, nil
}

// SetDistanceType stores the distance category for a participant
func (r *ParticipantRepository) SetDistanceType(ctx context.Context, participantID int64, dt domain.DistanceType) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`UPDATE participants SET distance_type = ? WHERE id = ?`,
			string(dt), participantID,
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

// LastStartNumber returns the most recently issued start number
func (r *ParticipantRepository) LastStartNumber(ctx context.Context) (string, error) {
	var last string

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT start_number FROM participants ORDER BY id DESC LIMIT 1`,
		).Scan(&last)
	})

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return last, nil
}
