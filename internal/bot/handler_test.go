package bot

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"

	"github.com/go-telegram/bot/models"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/start", "/start"},
		{"/start@fitness_bot", "/start"},
		{"/submit extra words", "/submit"},
		{"  /help  ", "/help"},
		{"hello", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := command(tt.input); got != tt.want {
			t.Errorf("command(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStartShowsMenuByRegistration(t *testing.T) {
	env := newBotTestEnv(t)

	env.dispatch(t, 100, 100, "/start")
	last := env.sender.last()
	if last == nil || last.Text != env.localizer.MustLocalize(locale.WelcomeNew) {
		t.Errorf("reply = %v, want new-user welcome", last)
	}

	p := env.createParticipant(t, 200)
	env.dispatch(t, 200, 200, "/start")
	last = env.sender.last()
	if last == nil || !strings.Contains(last.Text, p.StartNumber) {
		t.Errorf("reply %v should mention the bib %s", last, p.StartNumber)
	}
}

func TestMenuButtonsActAsCommands(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()

	env.dispatch(t, 100, 100, env.localizer.MustLocalize(locale.ButtonRegister))

	flow, _, _, err := env.sessions.Get(ctx, 100)
	if err != nil {
		t.Fatalf("session error = %v", err)
	}
	if flow != FlowRegistration {
		t.Errorf("flow = %q, want registration", flow)
	}
}

func TestUnknownFlowSelfHeals(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()

	if err := env.sessions.Set(ctx, 100, "obsolete_flow", "x", map[string]interface{}{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	env.dispatch(t, 100, 100, "что-то")

	if _, _, _, err := env.sessions.Get(ctx, 100); err == nil {
		t.Error("obsolete session should be deleted")
	}
}

func TestChallengesListWithJoinButtons(t *testing.T) {
	env := newBotTestEnv(t)

	c := env.createChallenge(t, domain.ChallengeTypePushUps)
	env.dispatch(t, 100, 100, "/challenges")

	last := env.sender.last()
	if last == nil {
		t.Fatal("no reply sent")
	}
	markup, ok := last.ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("reply markup = %T, want inline keyboard", last.ReplyMarkup)
	}
	if len(markup.InlineKeyboard) != 1 {
		t.Fatalf("keyboard rows = %d, want 1", len(markup.InlineKeyboard))
	}
	wantData := "join_ch_" + strconv.FormatInt(c.ID, 10)
	if markup.InlineKeyboard[0][0].CallbackData != wantData {
		t.Errorf("callback data = %q, want %q", markup.InlineKeyboard[0][0].CallbackData, wantData)
	}
}

func TestChallengeJoinCallback(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	c := env.createChallenge(t, domain.ChallengeTypePushUps)

	env.handler.Handle(ctx, nil, &models.Update{
		CallbackQuery: callbackFrom(100, "join_ch_"+strconv.FormatInt(c.ID, 10)),
	})

	if len(env.answerer.answered) != 1 {
		t.Errorf("answered callbacks = %d, want 1", len(env.answerer.answered))
	}

	reg, err := env.registration.RegisterForChallenge(ctx, p.ID, c.ID)
	if err != nil {
		t.Fatalf("lookup registration: %v", err)
	}
	if reg.BibNumber != "CH001" {
		t.Errorf("bib = %q, want CH001", reg.BibNumber)
	}

	last := env.sender.last()
	if last == nil || !strings.Contains(last.Text, "CH001") {
		t.Errorf("reply %v should mention the bib", last)
	}
}

func TestEventCallbackDivertsToDistanceFlow(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()

	env.createParticipant(t, 100)
	now := time.Now()
	e := &domain.Event{
		Name: "Весенний забег", Type: domain.EventTypeRun,
		StartDate: now.Add(24 * time.Hour), EndDate: now.Add(30 * time.Hour),
		Status: domain.EventStatusUpcoming, IsActive: true, CreatedAt: now,
	}
	if err := env.events.CreateEvent(ctx, e); err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}

	env.handler.Handle(ctx, nil, &models.Update{
		CallbackQuery: callbackFrom(100, "reg_event_"+strconv.FormatInt(e.ID, 10)),
	})

	flow, state, _, err := env.sessions.Get(ctx, 100)
	if err != nil {
		t.Fatalf("session error = %v", err)
	}
	if flow != FlowDistance || state != StateSelectDistance {
		t.Fatalf("flow/state = %q/%q, want distance/select_distance", flow, state)
	}

	// Choosing a distance finishes the pending registration
	env.dispatch(t, 100, 100, "🏃 Взрослый забег")

	p, err := env.participants.GetParticipantByTelegramID(ctx, 100)
	if err != nil || p == nil {
		t.Fatalf("participant lookup failed: %v", err)
	}
	if p.DistanceType != domain.DistanceAdult {
		t.Errorf("distance = %q, want adult_run", p.DistanceType)
	}

	last := env.sender.last()
	if last == nil || !strings.Contains(last.Text, "RUN001") {
		t.Errorf("reply %v should mention the bib RUN001", last)
	}
}

func TestStatsForUnregisteredUser(t *testing.T) {
	env := newBotTestEnv(t)

	env.dispatch(t, 100, 100, "/stats")

	last := env.sender.last()
	if last == nil || last.Text != env.localizer.MustLocalize(locale.SubNotRegistered) {
		t.Errorf("reply = %v, want not-registered message", last)
	}
}

func TestStatsShowsRecentSubmissions(t *testing.T) {
	env := newBotTestEnv(t)
	ctx := context.Background()

	p := env.createParticipant(t, 100)
	c := env.createChallenge(t, domain.ChallengeTypePushUps)

	s := &domain.Submission{ParticipantID: p.ID, ChallengeID: c.ID, MediaToken: "t", ResultValue: 42}
	if err := env.lifecycle.CreateSubmission(ctx, s); err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}

	env.dispatch(t, 100, 100, "/stats")

	last := env.sender.last()
	if last == nil {
		t.Fatal("no reply sent")
	}
	if !strings.Contains(last.Text, p.StartNumber) || !strings.Contains(last.Text, "42") {
		t.Errorf("stats reply %q should mention bib and result", last.Text)
	}
}

func callbackFrom(userID int64, data string) *models.CallbackQuery {
	return &models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: userID},
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 1, Chat: models.Chat{ID: userID}},
		},
		Data: data,
	}
}
