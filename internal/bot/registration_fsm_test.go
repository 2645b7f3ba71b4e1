package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ad/fitness-challenge-bot/internal/locale"
	"github.com/ad/fitness-challenge-bot/internal/storage"
)

func TestRegistrationFlowHappyPath(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()
	const userID, chatID int64 = 100, 100

	env.dispatch(t, userID, chatID, "/register")

	flow, state, _, err := env.sessions.Get(ctx, chatID)
	if err != nil {
		t.Fatalf("session missing after /register: %v", err)
	}
	if flow != FlowRegistration || state != StateFullName {
		t.Fatalf("flow/state = %q/%q, want registration/full_name", flow, state)
	}

	env.dispatch(t, userID, chatID, "Иван Петров")
	env.dispatch(t, userID, chatID, "12.03.1990")
	env.dispatch(t, userID, chatID, "+7 999 123 45 67")

	_, state, _, err = env.sessions.Get(ctx, chatID)
	if err != nil {
		t.Fatalf("session missing before confirmation: %v", err)
	}
	if state != StateConfirm {
		t.Fatalf("state = %q, want confirm", state)
	}

	env.dispatch(t, userID, chatID, "Да")

	p, err := env.participants.GetParticipantByTelegramID(ctx, userID)
	if err != nil {
		t.Fatalf("GetParticipantByTelegramID() error = %v", err)
	}
	if p == nil {
		t.Fatal("participant was not created")
	}
	if p.StartNumber != "REG001" {
		t.Errorf("start number = %q, want REG001", p.StartNumber)
	}
	if p.FullName != "Иван Петров" {
		t.Errorf("full name = %q, want Иван Петров", p.FullName)
	}
	if p.Phone != "+79991234567" {
		t.Errorf("phone = %q, want +79991234567", p.Phone)
	}

	if _, _, _, err := env.sessions.Get(ctx, chatID); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("session after completion error = %v, want ErrSessionNotFound", err)
	}

	// Bib QR goes to the new participant
	if len(env.photos.sent) != 1 {
		t.Errorf("photos sent = %d, want 1", len(env.photos.sent))
	}

	// Admins hear about the registration
	adminTexts := env.sender.textsFor(testAdminID)
	if len(adminTexts) != 1 {
		t.Errorf("admin notifications = %d, want 1", len(adminTexts))
	} else if !strings.Contains(adminTexts[0], "REG001") {
		t.Errorf("admin notification %q does not mention the bib", adminTexts[0])
	}
}

func TestRegistrationRepromptsOnBadInput(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()
	const userID, chatID int64 = 100, 100

	env.dispatch(t, userID, chatID, "/register")

	tests := []struct {
		name      string
		input     string
		wantState string
	}{
		{"short name keeps asking", "Ив", StateFullName},
		{"valid name advances", "Иван Петров", StateBirthDate},
		{"garbage date keeps asking", "вчера", StateBirthDate},
		{"future date keeps asking", "01.01.2099", StateBirthDate},
		{"valid date advances", "12.03.1990", StatePhone},
		{"bad phone keeps asking", "12345", StatePhone},
		{"valid phone advances", "89991234567", StateConfirm},
	}

	for _, tt := range tests {
		env.dispatch(t, userID, chatID, tt.input)

		_, state, _, err := env.sessions.Get(ctx, chatID)
		if err != nil {
			t.Fatalf("%s: session error = %v", tt.name, err)
		}
		if state != tt.wantState {
			t.Errorf("%s: state = %q, want %q", tt.name, state, tt.wantState)
		}
	}
}

func TestRegistrationDeclineRestartsFlow(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()
	const userID, chatID int64 = 100, 100

	env.dispatch(t, userID, chatID, "/register")
	env.dispatch(t, userID, chatID, "Иван Петров")
	env.dispatch(t, userID, chatID, "12.03.1990")
	env.dispatch(t, userID, chatID, "+79991234567")
	env.dispatch(t, userID, chatID, "Нет")

	_, state, data, err := env.sessions.Get(ctx, chatID)
	if err != nil {
		t.Fatalf("session missing after decline: %v", err)
	}
	if state != StateFullName {
		t.Errorf("state = %q, want full_name", state)
	}
	if name, _ := data["full_name"].(string); name != "" {
		t.Errorf("full name after decline = %q, want empty", name)
	}

	if p, _ := env.participants.GetParticipantByTelegramID(ctx, userID); p != nil {
		t.Error("participant should not exist after declining")
	}
}

func TestRegistrationAlreadyRegistered(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)

	env.dispatch(t, 100, 100, "/register")

	if _, _, _, err := env.sessions.Get(ctx, 100); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Error("no session should be created for a registered user")
	}

	last := env.sender.last()
	if last == nil || !strings.Contains(last.Text, p.StartNumber) {
		t.Errorf("reply %v should mention the existing bib %s", last, p.StartNumber)
	}
}

func TestRegistrationCancel(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()
	const userID, chatID int64 = 100, 100

	env.dispatch(t, userID, chatID, "/register")
	env.dispatch(t, userID, chatID, "Иван Петров")
	env.dispatch(t, userID, chatID, "❌ Отменить")

	if _, _, _, err := env.sessions.Get(ctx, chatID); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("session after cancel error = %v, want ErrSessionNotFound", err)
	}

	last := env.sender.last()
	if last == nil || last.Text != env.localizer.MustLocalize(locale.Cancelled) {
		t.Errorf("last reply = %v, want cancellation confirmation", last)
	}
}
