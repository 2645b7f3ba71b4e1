package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ad/fitness-challenge-bot/internal/logger"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStorage implements persistent storage for conversation sessions.
// One session per chat; starting a new flow replaces the previous one.
type SessionStorage struct {
	queue  *DBQueue
	logger *logger.Logger
}

// NewSessionStorage creates a new session storage backed by SQLite
func NewSessionStorage(queue *DBQueue, log *logger.Logger) *SessionStorage {
	return &SessionStorage{
		queue:  queue,
		logger: log,
	}
}

// Get retrieves the flow, state and context for a chat
func (s *SessionStorage) Get(ctx context.Context, chatID int64) (flow, state string, data map[string]interface{}, err error) {
	var contextJSON string
	var updatedAt time.Time

	err = s.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `
			SELECT flow, state, context_json, updated_at
			FROM fsm_sessions
			WHERE chat_id = ?
		`, chatID)

		return row.Scan(&flow, &state, &contextJSON, &updatedAt)
	})

	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Debug("session not found", "chat_id", chatID)
			return "", "", nil, ErrSessionNotFound
		}
		s.logger.Error("failed to get session", "chat_id", chatID, "error", err)
		return "", "", nil, err
	}

	if err := json.Unmarshal([]byte(contextJSON), &data); err != nil {
		s.logger.Error("failed to unmarshal context", "chat_id", chatID, "error", err)
		// Corrupted session is unrecoverable
		_ = s.Delete(ctx, chatID)
		return "", "", nil, err
	}

	s.logger.Debug("session retrieved", "chat_id", chatID, "flow", flow, "state", state)
	return flow, state, data, nil
}

// Set stores flow, state and context for a chat using atomic transaction
func (s *SessionStorage) Set(ctx context.Context, chatID int64, flow, state string, data map[string]interface{}) error {
	contextJSON, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal context", "chat_id", chatID, "error", err)
		return err
	}

	err = s.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO fsm_sessions (chat_id, flow, state, context_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT(chat_id) DO UPDATE SET
				flow = excluded.flow,
				state = excluded.state,
				context_json = excluded.context_json,
				updated_at = CURRENT_TIMESTAMP
		`, chatID, flow, state, string(contextJSON))

		if err != nil {
			return err
		}

		return tx.Commit()
	})

	if err != nil {
		s.logger.Error("failed to set session", "chat_id", chatID, "flow", flow, "state", state, "error", err)
		return err
	}

	s.logger.Debug("session stored", "chat_id", chatID, "flow", flow, "state", state)
	return nil
}

// Delete removes the session for a chat
func (s *SessionStorage) Delete(ctx context.Context, chatID int64) error {
	err := s.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		result, err := tx.ExecContext(ctx, `
			DELETE FROM fsm_sessions WHERE chat_id = ?
		`, chatID)

		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if rowsAffected == 0 {
			s.logger.Debug("session not found for deletion", "chat_id", chatID)
		}

		return tx.Commit()
	})

	if err != nil {
		s.logger.Error("failed to delete session", "chat_id", chatID, "error", err)
		return err
	}

	s.logger.Debug("session deleted", "chat_id", chatID)
	return nil
}

// CleanupStale removes sessions older than 30 minutes
func (s *SessionStorage) CleanupStale(ctx context.Context) error {
	var deletedCount int64
	err := s.queue.ExecuteContext(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		result, err := tx.ExecContext(ctx, `
			DELETE FROM fsm_sessions
			WHERE updated_at < datetime('now', '-30 minutes')
		`)

		if err != nil {
			return err
		}

		deletedCount, err = result.RowsAffected()
		if err != nil {
			return err
		}

		return tx.Commit()
	})

	if err != nil {
		s.logger.Error("failed to cleanup stale sessions", "error", err)
		return err
	}

	if deletedCount > 0 {
		s.logger.Info("cleaned up stale sessions", "count", deletedCount)
	} else {
		s.logger.Debug("no stale sessions to cleanup")
	}

	return nil
}
