package domain_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ad/fitness-challenge-bot/internal/domain"
)

func (env *testEnv) createEvent(t *testing.T, typ domain.EventType, mutate func(*domain.Event)) *domain.Event {
	t.Helper()

	now := time.Now()
	e := &domain.Event{
		Name:      "Test event",
		Type:      typ,
		StartDate: now.Add(24 * time.Hour),
		EndDate:   now.Add(30 * time.Hour),
		Status:    domain.EventStatusUpcoming,
		IsActive:  true,
		CreatedAt: now,
	}
	if mutate != nil {
		mutate(e)
	}
	if err := env.events.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}

	return e
}

func TestRegisterParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := &domain.Participant{
		TelegramID: 100,
		FullName:   "Иван Петров",
		BirthDate:  time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC),
		Phone:      "8 (999) 123-45-67",
	}
	if err := env.registration.RegisterParticipant(ctx, p); err != nil {
		t.Fatalf("RegisterParticipant() error = %v", err)
	}

	if p.StartNumber != "REG001" {
		t.Errorf("start number = %q, want REG001", p.StartNumber)
	}
	if p.Phone != "89991234567" {
		t.Errorf("phone = %q, want normalized 89991234567", p.Phone)
	}
	if !p.IsActive {
		t.Error("participant should be active after registration")
	}

	second := &domain.Participant{
		TelegramID: 200,
		FullName:   "Анна Сидорова",
		BirthDate:  time.Date(1995, 7, 1, 0, 0, 0, 0, time.UTC),
		Phone:      "+79990000000",
	}
	if err := env.registration.RegisterParticipant(ctx, second); err != nil {
		t.Fatalf("RegisterParticipant() error = %v", err)
	}
	if second.StartNumber != "REG002" {
		t.Errorf("second start number = %q, want REG002", second.StartNumber)
	}
}

func TestRegisterParticipantDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createParticipant(t, 100)

	dup := &domain.Participant{
		TelegramID: 100,
		FullName:   "Иван Петров",
		BirthDate:  time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC),
		Phone:      "+79991234567",
	}
	err := env.registration.RegisterParticipant(ctx, dup)
	if !errors.Is(err, domain.ErrParticipantExists) {
		t.Errorf("RegisterParticipant() error = %v, want ErrParticipantExists", err)
	}
}

func TestRegisterForChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	other := env.createParticipant(t, 200)
	c := env.createChallenge(t, domain.ChallengeTypePushUps, true)

	reg, err := env.registration.RegisterForChallenge(ctx, p.ID, c.ID)
	if err != nil {
		t.Fatalf("RegisterForChallenge() error = %v", err)
	}
	if reg.BibNumber != "CH001" {
		t.Errorf("bib = %q, want CH001", reg.BibNumber)
	}

	// Repeated registration returns the existing one.
	again, err := env.registration.RegisterForChallenge(ctx, p.ID, c.ID)
	if err != nil {
		t.Fatalf("repeat RegisterForChallenge() error = %v", err)
	}
	if again.ID != reg.ID || again.BibNumber != "CH001" {
		t.Errorf("repeat registration = %+v, want the original", again)
	}

	otherReg, err := env.registration.RegisterForChallenge(ctx, other.ID, c.ID)
	if err != nil {
		t.Fatalf("RegisterForChallenge() error = %v", err)
	}
	if otherReg.BibNumber != "CH002" {
		t.Errorf("second bib = %q, want CH002", otherReg.BibNumber)
	}
}

func TestRegisterForChallengeDeactivatedRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	c := env.createChallenge(t, domain.ChallengeTypePushUps, true)

	reg, err := env.registration.RegisterForChallenge(ctx, p.ID, c.ID)
	if err != nil {
		t.Fatalf("RegisterForChallenge() error = %v", err)
	}

	err = env.queue.Execute(func(db *sql.DB) error {
		_, err := db.Exec("UPDATE challenge_registrations SET is_active = 0 WHERE id = ?", reg.ID)
		return err
	})
	if err != nil {
		t.Fatalf("failed to deactivate registration: %v", err)
	}

	// The unique index allows one row per participant and challenge, so
	// a deactivated registration is still the one to hand back.
	again, err := env.registration.RegisterForChallenge(ctx, p.ID, c.ID)
	if err != nil {
		t.Fatalf("repeat RegisterForChallenge() error = %v", err)
	}
	if again.ID != reg.ID {
		t.Errorf("registration ID = %d, want %d", again.ID, reg.ID)
	}
}

func TestRegisterForChallengeInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	c := env.createChallenge(t, domain.ChallengeTypePushUps, false)

	_, err := env.registration.RegisterForChallenge(ctx, p.ID, c.ID)
	if !errors.Is(err, domain.ErrChallengeNotActive) {
		t.Errorf("RegisterForChallenge() error = %v, want ErrChallengeNotActive", err)
	}
}

func TestRegisterForEventRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	e := env.createEvent(t, domain.EventTypeRun, nil)

	// A run event requires a chosen distance first.
	_, err := env.registration.RegisterForEvent(ctx, p.ID, e.ID)
	if !errors.Is(err, domain.ErrDistanceRequired) {
		t.Fatalf("RegisterForEvent() error = %v, want ErrDistanceRequired", err)
	}

	if err := env.registration.SetDistanceType(ctx, p.ID, domain.DistanceAdult); err != nil {
		t.Fatalf("SetDistanceType() error = %v", err)
	}

	reg, err := env.registration.RegisterForEvent(ctx, p.ID, e.ID)
	if err != nil {
		t.Fatalf("RegisterForEvent() error = %v", err)
	}
	if reg.BibNumber != "RUN001" {
		t.Errorf("bib = %q, want RUN001", reg.BibNumber)
	}

	again, err := env.registration.RegisterForEvent(ctx, p.ID, e.ID)
	if err != nil {
		t.Fatalf("repeat RegisterForEvent() error = %v", err)
	}
	if again.ID != reg.ID {
		t.Errorf("repeat registration = %+v, want the original", again)
	}
}

func TestRegisterForEventDistanceMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	e := env.createEvent(t, domain.EventTypeRun, func(e *domain.Event) {
		e.DistanceType = domain.DistanceChildren
	})

	if err := env.registration.SetDistanceType(ctx, p.ID, domain.DistanceAdult); err != nil {
		t.Fatalf("SetDistanceType() error = %v", err)
	}

	_, err := env.registration.RegisterForEvent(ctx, p.ID, e.ID)
	if !errors.Is(err, domain.ErrDistanceMismatch) {
		t.Errorf("RegisterForEvent() error = %v, want ErrDistanceMismatch", err)
	}
}

func TestRegisterForEventTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	e := env.createEvent(t, domain.EventTypeTournament, nil)

	// Tournaments do not need a distance choice.
	reg, err := env.registration.RegisterForEvent(ctx, p.ID, e.ID)
	if err != nil {
		t.Fatalf("RegisterForEvent() error = %v", err)
	}
	if reg.BibNumber != "TRN001" {
		t.Errorf("bib = %q, want TRN001", reg.BibNumber)
	}
}

func TestRegisterForEventDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	past := time.Now().Add(-time.Hour)
	e := env.createEvent(t, domain.EventTypeTournament, func(e *domain.Event) {
		e.RegistrationDeadline = &past
	})

	_, err := env.registration.RegisterForEvent(ctx, p.ID, e.ID)
	if !errors.Is(err, domain.ErrRegistrationClosed) {
		t.Errorf("RegisterForEvent() error = %v, want ErrRegistrationClosed", err)
	}
}

func TestRegisterForEventCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.createParticipant(t, 100)
	second := env.createParticipant(t, 200)
	e := env.createEvent(t, domain.EventTypeTournament, func(e *domain.Event) {
		e.MaxParticipants = 1
	})

	if _, err := env.registration.RegisterForEvent(ctx, first.ID, e.ID); err != nil {
		t.Fatalf("RegisterForEvent() error = %v", err)
	}

	_, err := env.registration.RegisterForEvent(ctx, second.ID, e.ID)
	if !errors.Is(err, domain.ErrEventFull) {
		t.Errorf("RegisterForEvent() error = %v, want ErrEventFull", err)
	}
}

func TestRegisterForEventNotOpen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	e := env.createEvent(t, domain.EventTypeTournament, func(e *domain.Event) {
		e.Status = domain.EventStatusFinished
	})

	_, err := env.registration.RegisterForEvent(ctx, p.ID, e.ID)
	if !errors.Is(err, domain.ErrEventNotOpen) {
		t.Errorf("RegisterForEvent() error = %v, want ErrEventNotOpen", err)
	}
}

func TestSetDistanceTypeInvalid(t *testing.T) {
	env := newTestEnv(t)

	p := env.createParticipant(t, 100)
	err := env.registration.SetDistanceType(context.Background(), p.ID, domain.DistanceType("marathon"))
	if !errors.Is(err, domain.ErrInvalidDistanceType) {
		t.Errorf("SetDistanceType() error = %v, want ErrInvalidDistanceType", err)
	}
}
