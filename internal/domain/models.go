package domain

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrInvalidTelegramID     = errors.New("telegram ID must be set")
	ErrFullNameTooShort      = errors.New("full name must be at least 5 characters")
	ErrInvalidBirthDate      = errors.New("birth date must be set and not in the future")
	ErrInvalidAge            = errors.New("age must be between 5 and 100")
	ErrInvalidPhone          = errors.New("invalid phone number")
	ErrInvalidDistanceType   = errors.New("invalid distance type")
	ErrEmptyChallengeName    = errors.New("challenge name cannot be empty")
	ErrInvalidChallengeType  = errors.New("invalid challenge type")
	ErrInvalidChallengeDates = errors.New("challenge end date must be after start date")
	ErrEmptyEventName        = errors.New("event name cannot be empty")
	ErrInvalidEventType      = errors.New("invalid event type")
	ErrInvalidEventStatus    = errors.New("invalid event status")
	ErrInvalidEventDates     = errors.New("event end date must be after start date")
	ErrInvalidParticipantID  = errors.New("participant ID must be set")
	ErrInvalidChallengeID    = errors.New("challenge ID must be set")
	ErrInvalidEventID        = errors.New("event ID must be set")
	ErrEmptyBibNumber        = errors.New("bib number cannot be empty")
	ErrInvalidResultValue    = errors.New("result value must be positive")
	ErrInvalidStatus         = errors.New("invalid submission status")
	ErrInvalidModeratorID    = errors.New("moderator ID must be set")
	ErrEmptyActionType       = errors.New("action type cannot be empty")
)

// ChallengeType represents the kind of activity a challenge tracks
type ChallengeType string

const (
	ChallengeTypePushUps ChallengeType = "push_ups"
	ChallengeTypeSquats  ChallengeType = "squats"
	ChallengeTypePlank   ChallengeType = "plank"
	ChallengeTypeRunning ChallengeType = "running"
	ChallengeTypeSteps   ChallengeType = "steps"
)

// EventType represents the type of an event
type EventType string

const (
	EventTypeRun        EventType = "run_event"
	EventTypeTournament EventType = "tournament"
)

// EventStatus represents the status of an event
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusActive    EventStatus = "active"
	EventStatusFinished  EventStatus = "finished"
	EventStatusCancelled EventStatus = "cancelled"
)

// DistanceType represents the distance category a participant runs
type DistanceType string

const (
	DistanceAdult    DistanceType = "adult_run"
	DistanceChildren DistanceType = "children_run"
)

// SubmissionStatus represents the moderation status of a submission
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Admin action types
const (
	ActionApproveSubmission = "approve_submission"
	ActionRejectSubmission  = "reject_submission"
)

// Participant represents a registered community member
type Participant struct {
	ID           int64
	TelegramID   int64
	FullName     string
	BirthDate    time.Time
	Phone        string
	DistanceType DistanceType // empty until chosen
	StartNumber  string
	RegisteredAt time.Time
	IsActive     bool
}

// Challenge represents a long-running fitness challenge
type Challenge struct {
	ID          int64
	Name        string
	Description string
	Type        ChallengeType
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	CreatedAt   time.Time
}

// Event represents a one-off event such as a run or a tournament
type Event struct {
	ID                   int64
	Name                 string
	Description          string
	Type                 EventType
	DistanceType         DistanceType // empty means any
	StartDate            time.Time
	EndDate              time.Time
	RegistrationDeadline *time.Time
	MaxParticipants      int // 0 means unlimited
	Status               EventStatus
	IsActive             bool
	CreatedAt            time.Time
}

// ChallengeRegistration links a participant to a challenge
type ChallengeRegistration struct {
	ID            int64
	ParticipantID int64
	ChallengeID   int64
	BibNumber     string
	RegisteredAt  time.Time
	IsActive      bool
}

// EventRegistration links a participant to an event
type EventRegistration struct {
	ID            int64
	ParticipantID int64
	EventID       int64
	BibNumber     string
	RegisteredAt  time.Time
	Status        string
}

// Submission represents a proof-of-completion entry awaiting moderation
type Submission struct {
	ID               int64
	ParticipantID    int64
	ChallengeID      int64
	SubmittedAt      time.Time
	MediaToken       string
	ResultValue      float64
	ResultUnit       string
	Comment          string
	Status           SubmissionStatus
	ModeratorComment string
}

// AdminAction is an append-only audit record of a moderator action
type AdminAction struct {
	ID          int64
	ModeratorID int64
	Action      string
	TargetID    int64
	Details     string
	Timestamp   time.Time
}

// Validation methods

// Validate validates a Participant
func (p *Participant) Validate() error {
	if p.TelegramID == 0 {
		return ErrInvalidTelegramID
	}
	if len([]rune(p.FullName)) < 5 {
		return ErrFullNameTooShort
	}
	if p.BirthDate.IsZero() || p.BirthDate.After(time.Now()) {
		return ErrInvalidBirthDate
	}
	if age := AgeAt(p.BirthDate, time.Now()); age < 5 || age > 100 {
		return ErrInvalidAge
	}
	if !ValidPhone(p.Phone) {
		return ErrInvalidPhone
	}
	if p.DistanceType != "" {
		switch p.DistanceType {
		case DistanceAdult, DistanceChildren:
		default:
			return ErrInvalidDistanceType
		}
	}

	return nil
}

// Validate validates a Challenge
func (c *Challenge) Validate() error {
	if c.Name == "" {
		return ErrEmptyChallengeName
	}
	switch c.Type {
	case ChallengeTypePushUps, ChallengeTypeSquats, ChallengeTypePlank, ChallengeTypeRunning, ChallengeTypeSteps:
	default:
		return ErrInvalidChallengeType
	}
	if !c.EndDate.After(c.StartDate) {
		return ErrInvalidChallengeDates
	}

	return nil
}

// Validate validates an Event
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEmptyEventName
	}
	switch e.Type {
	case EventTypeRun, EventTypeTournament:
	default:
		return ErrInvalidEventType
	}
	switch e.Status {
	case EventStatusUpcoming, EventStatusActive, EventStatusFinished, EventStatusCancelled:
	default:
		return ErrInvalidEventStatus
	}
	if !e.EndDate.After(e.StartDate) {
		return ErrInvalidEventDates
	}
	if e.DistanceType != "" {
		switch e.DistanceType {
		case DistanceAdult, DistanceChildren:
		default:
			return ErrInvalidDistanceType
		}
	}

	return nil
}

// Validate validates a ChallengeRegistration
func (r *ChallengeRegistration) Validate() error {
	if r.ParticipantID == 0 {
		return ErrInvalidParticipantID
	}
	if r.ChallengeID == 0 {
		return ErrInvalidChallengeID
	}
	if r.BibNumber == "" {
		return ErrEmptyBibNumber
	}

	return nil
}

// Validate validates an EventRegistration
func (r *EventRegistration) Validate() error {
	if r.ParticipantID == 0 {
		return ErrInvalidParticipantID
	}
	if r.EventID == 0 {
		return ErrInvalidEventID
	}
	if r.BibNumber == "" {
		return ErrEmptyBibNumber
	}

	return nil
}

// Validate validates a Submission
func (s *Submission) Validate() error {
	if s.ParticipantID == 0 {
		return ErrInvalidParticipantID
	}
	if s.ChallengeID == 0 {
		return ErrInvalidChallengeID
	}
	if s.ResultValue <= 0 {
		return ErrInvalidResultValue
	}
	switch s.Status {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
	default:
		return ErrInvalidStatus
	}

	return nil
}

// Validate validates an AdminAction
func (a *AdminAction) Validate() error {
	if a.ModeratorID == 0 {
		return ErrInvalidModeratorID
	}
	if a.Action == "" {
		return ErrEmptyActionType
	}

	return nil
}
