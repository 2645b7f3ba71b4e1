package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventNotOpen       = errors.New("event is not open for registration")
	ErrEventFull          = errors.New("event has reached its participant limit")
	ErrRegistrationClosed = errors.New("registration deadline has passed")
	ErrParticipantExists  = errors.New("participant is already registered")
	ErrDistanceRequired   = errors.New("distance type must be chosen before registering")
	ErrDistanceMismatch   = errors.New("participant distance does not match the event distance")
)

// ChallengeRegistrationRepository interface for challenge registration operations
type ChallengeRegistrationRepository interface {
	// CreateRegistration assigns the next bib number in the challenge
	// scope and inserts the row in a single transaction.
	CreateRegistration(ctx context.Context, r *ChallengeRegistration) error
	GetRegistration(ctx context.Context, participantID, challengeID int64) (*ChallengeRegistration, error)
	GetRegistrationsByChallenge(ctx context.Context, challengeID int64) ([]*ChallengeRegistration, error)
}

// EventRegistrationRepository interface for event registration operations
type EventRegistrationRepository interface {
	// CreateRegistration assigns the next bib number in the event scope
	// using the given prefix and inserts the row in a single transaction.
	CreateRegistration(ctx context.Context, r *EventRegistration, bibPrefix string) error
	GetRegistration(ctx context.Context, participantID, eventID int64) (*EventRegistration, error)
	GetRegistrationsByParticipant(ctx context.Context, participantID int64) ([]*EventRegistration, error)
	CountRegistrations(ctx context.Context, eventID int64) (int, error)
}

// EventRepository interface for event operations
type EventRepository interface {
	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	GetActiveEvents(ctx context.Context) ([]*Event, error)
	GetEventsByType(ctx context.Context, t EventType) ([]*Event, error)
	UpdateEventStatus(ctx context.Context, id int64, status EventStatus) error
}

// RegistrationService manages participant, challenge and event registrations
type RegistrationService struct {
	participants  ParticipantRepository
	challenges    ChallengeRepository
	challengeRegs ChallengeRegistrationRepository
	events        EventRepository
	eventRegs     EventRegistrationRepository
	logger        Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	participants ParticipantRepository,
	challenges ChallengeRepository,
	challengeRegs ChallengeRegistrationRepository,
	events EventRepository,
	eventRegs EventRegistrationRepository,
	logger Logger,
) *RegistrationService {
	return &RegistrationService{
		participants:  participants,
		challenges:    challenges,
		challengeRegs: challengeRegs,
		events:        events,
		eventRegs:     eventRegs,
		logger:        logger,
	}
}

// RegisterParticipant validates and stores a new participant. The start
// number is assigned by the repository inside its insert transaction.
func (rs *RegistrationService) RegisterParticipant(ctx context.Context, p *Participant) error {
	existing, err := rs.participants.GetParticipantByTelegramID(ctx, p.TelegramID)
	if err != nil {
		rs.logger.Error("failed to check existing participant", "telegram_id", p.TelegramID, "error", err)
		return err
	}
	if existing != nil {
		return ErrParticipantExists
	}

	p.Phone = NormalizePhone(p.Phone)
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = time.Now()
	}
	p.IsActive = true

	if err := p.Validate(); err != nil {
		return err
	}

	if err := rs.participants.CreateParticipant(ctx, p); err != nil {
		rs.logger.Error("failed to create participant", "telegram_id", p.TelegramID, "error", err)
		return err
	}

	rs.logger.Info("participant registered",
		"participant_id", p.ID,
		"telegram_id", p.TelegramID,
		"start_number", p.StartNumber)

	return nil
}

// GetParticipantByTelegramID retrieves a participant by telegram user ID
func (rs *RegistrationService) GetParticipantByTelegramID(ctx context.Context, telegramID int64) (*Participant, error) {
	p, err := rs.participants.GetParticipantByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrParticipantNotFound
	}

	return p, nil
}

// RegisterForChallenge registers a participant for a challenge. The call
// is idempotent: an existing registration is returned as is, active or
// not, since the unique index would reject a second row anyway.
func (rs *RegistrationService) RegisterForChallenge(ctx context.Context, participantID, challengeID int64) (*ChallengeRegistration, error) {
	existing, err := rs.challengeRegs.GetRegistration(ctx, participantID, challengeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	challenge, err := rs.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrChallengeNotFound
	}
	if !challenge.IsActive {
		return nil, ErrChallengeNotActive
	}

	reg := &ChallengeRegistration{
		ParticipantID: participantID,
		ChallengeID:   challengeID,
		RegisteredAt:  time.Now(),
		IsActive:      true,
	}
	if err := rs.challengeRegs.CreateRegistration(ctx, reg); err != nil {
		rs.logger.Error("failed to create challenge registration",
			"participant_id", participantID, "challenge_id", challengeID, "error", err)
		return nil, err
	}

	rs.logger.Info("challenge registration created",
		"participant_id", participantID,
		"challenge_id", challengeID,
		"bib", reg.BibNumber)

	return reg, nil
}

// RegisterForEvent registers a participant for an event, enforcing the
// registration deadline, the capacity limit and the distance requirement
// for run events. Idempotent for existing registrations.
func (rs *RegistrationService) RegisterForEvent(ctx context.Context, participantID, eventID int64) (*EventRegistration, error) {
	existing, err := rs.eventRegs.GetRegistration(ctx, participantID, eventID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	event, err := rs.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	switch event.Status {
	case EventStatusUpcoming, EventStatusActive:
	default:
		return nil, ErrEventNotOpen
	}
	if !event.IsActive {
		return nil, ErrEventNotOpen
	}
	if event.RegistrationDeadline != nil && time.Now().After(*event.RegistrationDeadline) {
		return nil, ErrRegistrationClosed
	}

	if event.MaxParticipants > 0 {
		count, err := rs.eventRegs.CountRegistrations(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if count >= event.MaxParticipants {
			return nil, ErrEventFull
		}
	}

	participant, err := rs.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrParticipantNotFound
	}

	if event.Type == EventTypeRun {
		if participant.DistanceType == "" {
			return nil, ErrDistanceRequired
		}
		if event.DistanceType != "" && participant.DistanceType != event.DistanceType {
			return nil, ErrDistanceMismatch
		}
	}

	reg := &EventRegistration{
		ParticipantID: participantID,
		EventID:       eventID,
		RegisteredAt:  time.Now(),
		Status:        "approved",
	}
	if err := rs.eventRegs.CreateRegistration(ctx, reg, BibPrefixForEvent(event.Type)); err != nil {
		rs.logger.Error("failed to create event registration",
			"participant_id", participantID, "event_id", eventID, "error", err)
		return nil, err
	}

	rs.logger.Info("event registration created",
		"participant_id", participantID,
		"event_id", eventID,
		"bib", reg.BibNumber)

	return reg, nil
}

// SetDistanceType stores the participant's chosen distance category
func (rs *RegistrationService) SetDistanceType(ctx context.Context, participantID int64, dt DistanceType) error {
	switch dt {
	case DistanceAdult, DistanceChildren:
	default:
		return ErrInvalidDistanceType
	}

	if err := rs.participants.SetDistanceType(ctx, participantID, dt); err != nil {
		rs.logger.Error("failed to set distance type", "participant_id", participantID, "error", err)
		return err
	}

	rs.logger.Info("distance type set", "participant_id", participantID, "distance", dt)
	return nil
}

// EventRegistrations retrieves all event registrations of a participant
func (rs *RegistrationService) EventRegistrations(ctx context.Context, participantID int64) ([]*EventRegistration, error) {
	return rs.eventRegs.GetRegistrationsByParticipant(ctx, participantID)
}
