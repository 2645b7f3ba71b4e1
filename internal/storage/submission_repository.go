package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/ad/fitness-challenge-bot/internal/domain"
)

// SubmissionRepository handles submission data operations
type SubmissionRepository struct {
	queue *DBQueue
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(queue *DBQueue) *SubmissionRepository {
	return &SubmissionRepository{queue: queue}
}

const submissionColumns = `id, participant_id, challenge_id, submitted_at, media_token, result_value, result_unit, comment, status, moderator_comment`

func scanSubmission(scan func(dest ...interface{}) error) (*domain.Submission, error) {
	var s domain.Submission
	var status string
	if err := scan(
		&s.ID, &s.ParticipantID, &s.ChallengeID, &s.SubmittedAt,
		&s.MediaToken, &s.ResultValue, &s.ResultUnit, &s.Comment,
		&status, &s.ModeratorComment,
	); err != nil {
		return nil, err
	}
	s.Status = domain.SubmissionStatus(status)
	return &s, nil
}

// CreateSubmission inserts a new submission
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, s *domain.Submission) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`INSERT INTO submissions (participant_id, challenge_id, submitted_at, media_token, result_value, result_unit, comment, status, moderator_comment)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ParticipantID, s.ChallengeID, s.SubmittedAt, s.MediaToken,
			s.ResultValue, s.ResultUnit, s.Comment, string(s.Status), s.ModeratorComment,
		)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		s.ID = id
		return nil
	})
}

// GetSubmission retrieves a submission by ID
func (r *SubmissionRepository) GetSubmission(ctx context.Context, id int64) (*domain.Submission, error) {
	var submission *domain.Submission

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
		s, err := scanSubmission(row.Scan)
		if err != nil {
			return err
		}
		submission = s
		return nil
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return submission, nil
}

// GetSubmissionsByStatus retrieves submissions with the given status
func (r *SubmissionRepository) GetSubmissionsByStatus(ctx context.Context, status domain.SubmissionStatus) ([]*domain.Submission, error) {
	return r.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE status = ? ORDER BY submitted_at ASC`,
		string(status))
}

// GetSubmissionsByParticipant retrieves the participant's latest submissions
func (r *SubmissionRepository) GetSubmissionsByParticipant(ctx context.Context, participantID int64, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE participant_id = ? ORDER BY submitted_at DESC LIMIT ?`,
		participantID, limit)
}

func (r *SubmissionRepository) querySubmissions(ctx context.Context, query string, args ...interface{}) ([]*domain.Submission, error) {
	var submissions []*domain.Submission

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			s, err := scanSubmission(rows.Scan)
			if err != nil {
				return err
			}
			submissions = append(submissions, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return submissions, nil
}

// CountSubmissionsSince counts the participant's submissions to the given
// challenge after the given time
func (r *SubmissionRepository) CountSubmissionsSince(ctx context.Context, participantID, challengeID int64, since time.Time) (int, error) {
	var count int

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM submissions WHERE participant_id = ? AND challenge_id = ? AND submitted_at >= ?`,
			participantID, challengeID, since,
		).Scan(&count)
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

// SetStatusWithAudit updates the submission status and appends the audit
// record in a single transaction
func (r *SubmissionRepository) SetStatusWithAudit(ctx context.Context, id int64, status domain.SubmissionStatus, moderatorComment string, audit *domain.AdminAction) error {
	return r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		result, err := tx.ExecContext(ctx,
			`UPDATE submissions SET status = ?, moderator_comment = ? WHERE id = ?`,
			string(status), moderatorComment, id,
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

		auditResult, err := tx.ExecContext(ctx,
			`INSERT INTO admin_actions (moderator_id, action, target_id, details, timestamp)
			 VALUES (?, ?, ?, ?, ?)`,
			audit.ModeratorID, audit.Action, audit.TargetID, audit.Details, audit.Timestamp,
		)
		if err != nil {
			return err
		}

		auditID, err := auditResult.LastInsertId()
		if err != nil {
			return err
		}
		audit.ID = auditID

		return tx.Commit()
	})
}

// GetAdminActions retrieves the most recent audit records
func (r *SubmissionRepository) GetAdminActions(ctx context.Context, limit int) ([]*domain.AdminAction, error) {
	if limit <= 0 {
		limit = 50
	}

	var actions []*domain.AdminAction

	err := r.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT id, moderator_id, action, target_id, details, timestamp
			 FROM admin_actions ORDER BY timestamp DESC LIMIT ?`,
			limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a domain.AdminAction
			if err := rows.Scan(&a.ID, &a.ModeratorID, &a.Action, &a.TargetID, &a.Details, &a.Timestamp); err != nil {
				return err
			}
			actions = append(actions, &a)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return actions, nil
}
