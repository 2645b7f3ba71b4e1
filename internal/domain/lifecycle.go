package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrChallengeNotActive  = errors.New("challenge is not active")
	ErrChallengeNotStarted = errors.New("challenge has not started yet")
	ErrChallengeFinished   = errors.New("challenge has already finished")
	ErrSubmissionLimit     = errors.New("submission limit for the last 24 hours reached")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantInactive = errors.New("participant is not active")
)

// Logger interface for logging
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

// SubmissionRepository interface for submission operations
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id int64) (*Submission, error)
	GetSubmissionsByStatus(ctx context.Context, status SubmissionStatus) ([]*Submission, error)
	GetSubmissionsByParticipant(ctx context.Context, participantID int64, limit int) ([]*Submission, error)
	CountSubmissionsSince(ctx context.Context, participantID, challengeID int64, since time.Time) (int, error)
	SetStatusWithAudit(ctx context.Context, id int64, status SubmissionStatus, moderatorComment string, audit *AdminAction) error
}

// ChallengeRepository interface for challenge operations
type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, c *Challenge) error
	GetChallenge(ctx context.Context, id int64) (*Challenge, error)
	GetActiveChallenges(ctx context.Context) ([]*Challenge, error)
	GetChallengesByType(ctx context.Context, t ChallengeType) ([]*Challenge, error)
}

// ParticipantRepository interface for participant operations
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, p *Participant) error
	GetParticipantByTelegramID(ctx context.Context, telegramID int64) (*Participant, error)
	GetParticipant(ctx context.Context, id int64) (*Participant, error)
	GetParticipantByStartNumber(ctx context.Context, startNumber string) (*Participant, error)
	GetActiveParticipants(ctx context.Context) ([]*Participant, error)
	SetDistanceType(ctx context.Context, participantID int64, dt DistanceType) error
	LastStartNumber(ctx context.Context) (string, error)
}

// SubmissionLifecycle manages submission creation and moderation
type SubmissionLifecycle struct {
	submissions  SubmissionRepository
	challenges   ChallengeRepository
	participants ParticipantRepository
	maxPerDay    int
	logger       Logger
}

// NewSubmissionLifecycle creates a new SubmissionLifecycle
func NewSubmissionLifecycle(
	submissions SubmissionRepository,
	challenges ChallengeRepository,
	participants ParticipantRepository,
	maxPerDay int,
	logger Logger,
) *SubmissionLifecycle {
	return &SubmissionLifecycle{
		submissions:  submissions,
		challenges:   challenges,
		participants: participants,
		maxPerDay:    maxPerDay,
		logger:       logger,
	}
}

// CreateSubmission validates and stores a new pending submission
func (sl *SubmissionLifecycle) CreateSubmission(ctx context.Context, s *Submission) error {
	participant, err := sl.participants.GetParticipant(ctx, s.ParticipantID)
	if err != nil {
		sl.logger.Error("failed to load participant", "participant_id", s.ParticipantID, "error", err)
		return err
	}
	if participant == nil {
		return ErrParticipantNotFound
	}
	if !participant.IsActive {
		return ErrParticipantInactive
	}

	challenge, err := sl.challenges.GetChallenge(ctx, s.ChallengeID)
	if err != nil {
		sl.logger.Error("failed to load challenge", "challenge_id", s.ChallengeID, "error", err)
		return err
	}
	if challenge == nil {
		return ErrChallengeNotFound
	}

	now := time.Now()
	if !challenge.IsActive {
		return ErrChallengeNotActive
	}
	if now.Before(challenge.StartDate) {
		return ErrChallengeNotStarted
	}
	if now.After(challenge.EndDate) {
		return ErrChallengeFinished
	}

	// The rolling limit applies per challenge, so results for one challenge
	// never block submissions to another.
	count, err := sl.submissions.CountSubmissionsSince(ctx, s.ParticipantID, s.ChallengeID, now.Add(-24*time.Hour))
	if err != nil {
		sl.logger.Error("failed to count recent submissions", "participant_id", s.ParticipantID, "error", err)
		return err
	}
	if count >= sl.maxPerDay {
		return ErrSubmissionLimit
	}

	if err := CheckResult(challenge.Type, s.ResultValue); err != nil {
		return err
	}

	bounds, _ := BoundsFor(challenge.Type)
	s.ResultUnit = bounds.Unit
	s.Status = SubmissionStatusPending
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = now
	}

	if err := s.Validate(); err != nil {
		return err
	}

	if err := sl.submissions.CreateSubmission(ctx, s); err != nil {
		sl.logger.Error("failed to create submission", "error", err)
		return err
	}

	sl.logger.Info("submission created",
		"submission_id", s.ID,
		"participant_id", s.ParticipantID,
		"challenge_id", s.ChallengeID,
		"result", s.ResultValue)

	return nil
}

// Approve marks a submission approved and records the moderator action
func (sl *SubmissionLifecycle) Approve(ctx context.Context, submissionID, moderatorID int64, comment string) error {
	return sl.moderate(ctx, submissionID, moderatorID, comment, SubmissionStatusApproved, ActionApproveSubmission)
}

// Reject marks a submission rejected and records the moderator action
func (sl *SubmissionLifecycle) Reject(ctx context.Context, submissionID, moderatorID int64, comment string) error {
	return sl.moderate(ctx, submissionID, moderatorID, comment, SubmissionStatusRejected, ActionRejectSubmission)
}

func (sl *SubmissionLifecycle) moderate(ctx context.Context, submissionID, moderatorID int64, comment string, status SubmissionStatus, action string) error {
	submission, err := sl.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		sl.logger.Error("failed to load submission", "submission_id", submissionID, "error", err)
		return err
	}
	if submission == nil {
		return ErrSubmissionNotFound
	}

	audit := &AdminAction{
		ModeratorID: moderatorID,
		Action:      action,
		TargetID:    submissionID,
		Details:     comment,
		Timestamp:   time.Now(),
	}
	if err := audit.Validate(); err != nil {
		return err
	}

	if err := sl.submissions.SetStatusWithAudit(ctx, submissionID, status, comment, audit); err != nil {
		sl.logger.Error("failed to update submission status", "submission_id", submissionID, "error", err)
		return err
	}

	sl.logger.Info("submission moderated",
		"submission_id", submissionID,
		"moderator_id", moderatorID,
		"status", status)

	return nil
}

// GetSubmission retrieves a submission by ID
func (sl *SubmissionLifecycle) GetSubmission(ctx context.Context, id int64) (*Submission, error) {
	s, err := sl.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSubmissionNotFound
	}

	return s, nil
}

// GetPending retrieves all submissions awaiting moderation
func (sl *SubmissionLifecycle) GetPending(ctx context.Context) ([]*Submission, error) {
	return sl.submissions.GetSubmissionsByStatus(ctx, SubmissionStatusPending)
}

// GetByStatus retrieves submissions with the given status
func (sl *SubmissionLifecycle) GetByStatus(ctx context.Context, status SubmissionStatus) ([]*Submission, error) {
	switch status {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
	default:
		return nil, ErrInvalidStatus
	}

	return sl.submissions.GetSubmissionsByStatus(ctx, status)
}

// RecentByParticipant retrieves the participant's latest submissions
func (sl *SubmissionLifecycle) RecentByParticipant(ctx context.Context, participantID int64, limit int) ([]*Submission, error) {
	return sl.submissions.GetSubmissionsByParticipant(ctx, participantID, limit)
}
