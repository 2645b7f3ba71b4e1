package storage

import (
	"context"
	"database/sql"

	"github.com/ad/fitness-challenge-bot/internal/domain"
)

// ChallengeRepository handles challenge data operations
type ChallengeRepository struct {
	queue *DBQueue
}

// NewChallengeRepository creates a new ChallengeRepository
func NewChallengeRepository(queue *DBQueue) *ChallengeRepository {
	return &ChallengeRepository{queue: queue}
}

const challengeColumns = `id, name, description, challenge_type, start_date, end_date, is_active, created_at`

func scanChallenge(scan func(dest ...interface{}) error) (*domain.Challenge, error) {
	var c domain.Challenge
	var challengeType string
	if err := scan(
		&c.ID, &c.Name, &c.Description, &challengeType,
		&c.StartDate, &c.EndDate, &c.IsActive, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.Type = domain.ChallengeType(challengeType)
	return &c, nil
}

// CreateChallenge inserts a new challenge
func (r *ChallengeRepository) CreateChallenge(ctx context.Context, c *domain.Challenge) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`INSERT INTO challenges (name, description, challenge_type, start_date, end_date, is_active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.Name, c.Description, string(c.Type), c.StartDate, c.EndDate, c.IsActive, c.CreatedAt,
		)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = id
		return nil
	})
}

// GetChallenge retrieves a challenge by ID
func (r *ChallengeRepository) GetChallenge(ctx context.Context, id int64) (*domain.Challenge, error) {
	var challenge *domain.Challenge

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)
		c, err := scanChallenge(row.Scan)
		if err != nil {
			return err
		}
		challenge = c
		return nil
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return challenge, nil
}

// GetActiveChallenges retrieves all active challenges
func (r *ChallengeRepository) GetActiveChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	return r.queryChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE is_active = 1 ORDER BY start_date ASC`)
}

// GetChallengesByType retrieves active challenges of the given type
func (r *ChallengeRepository) GetChallengesByType(ctx context.Context, t domain.ChallengeType) ([]*domain.Challenge, error) {
	return r.queryChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE is_active = 1 AND challenge_type = ? ORDER BY start_date ASC`,
		string(t))
}

func (r *ChallengeRepository) queryChallenges(ctx context.Context, query string, args ...interface{}) ([]*domain.Challenge, error) {
	var challenges []*domain.Challenge

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanChallenge(rows.Scan)
			if err != nil {
				return err
			}
			challenges = append(challenges, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return challenges, nil
}

// ChallengeRegistrationRepository handles challenge registration data operations
type ChallengeRegistrationRepository struct {
	queue *DBQueue
}

// NewChallengeRegistrationRepository creates a new ChallengeRegistrationRepository
func NewChallengeRegistrationRepository(queue *DBQueue) *ChallengeRegistrationRepository {
	return &ChallengeRegistrationRepository{queue: queue}
}

// CreateRegistration inserts a registration, assigning the next bib
// number within the challenge scope in the same transaction
func (r *ChallengeRegistrationRepository) CreateRegistration(ctx context.Context, reg *domain.ChallengeRegistration) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var last string
		err = tx.QueryRowContext(ctx,
			`SELECT bib_number FROM challenge_registrations WHERE challenge_id = ? ORDER BY id DESC LIMIT 1`,
			reg.ChallengeID,
		).Scan(&last)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		reg.BibNumber = domain.NextBibNumber(domain.BibPrefixChallenge, last)

		result, err := tx.ExecContext(ctx,
			`INSERT INTO challenge_registrations (participant_id, challenge_id, bib_number, registered_at, is_active)
			 VALUES (?, ?, ?, ?, ?)`,
			reg.ParticipantID, reg.ChallengeID, reg.BibNumber, reg.RegisteredAt, reg.IsActive,
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

// GetRegistration retrieves a registration by participant and challenge
func (r *ChallengeRegistrationRepository) GetRegistration(ctx context.Context, participantID, challengeID int64) (*domain.ChallengeRegistration, error) {
	var reg domain.ChallengeRegistration

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT id, participant_id, challenge_id, bib_number, registered_at, is_active
			 FROM challenge_registrations WHERE participant_id = ? AND challenge_id = ?`,
			participantID, challengeID,
		).Scan(&reg.ID, &reg.ParticipantID, &reg.ChallengeID, &reg.BibNumber, &reg.RegisteredAt, &reg.IsActive)
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &reg, nil
}

// GetRegistrationsByChallenge retrieves all registrations for a challenge
func (r *ChallengeRegistrationRepository) GetRegistrationsByChallenge(ctx context.Context, challengeID int64) ([]*domain.ChallengeRegistration, error) {
	var regs []*domain.ChallengeRegistration

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT id, participant_id, challenge_id, bib_number, registered_at, is_active
			 FROM challenge_registrations WHERE challenge_id = ? ORDER BY id ASC`,
			challengeID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var reg domain.ChallengeRegistration
			if err := rows.Scan(&reg.ID, &reg.ParticipantID, &reg.ChallengeID, &reg.BibNumber, &reg.RegisteredAt, &reg.IsActive); err != nil {
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
