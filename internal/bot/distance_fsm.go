package bot

import (
	"context"
	"errors"

	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"
	"github.com/ad/fitness-challenge-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Distance FSM state constants
const (
	StateSelectDistance = "select_distance"
)

// DistanceFSM manages the distance selection side flow. It is started
// when a participant without a distance category registers for a run
// event; after the choice the pending registration is completed.
type DistanceFSM struct {
	storage      *storage.SessionStorage
	sender       Sender
	registration *domain.RegistrationService
	localizer    locale.Localizer
	logger       domain.Logger
}

// NewDistanceFSM creates a new FSM for distance selection
func NewDistanceFSM(
	sessions *storage.SessionStorage,
	sender Sender,
	registration *domain.RegistrationService,
	localizer locale.Localizer,
	logger domain.Logger,
) *DistanceFSM {
	return &DistanceFSM{
		storage:      sessions,
		sender:       sender,
		registration: registration,
		localizer:    localizer,
		logger:       logger,
	}
}

// Start stores the pending event and prompts for the distance
func (f *DistanceFSM) Start(ctx context.Context, chatID, participantID, eventID int64) error {
	initialContext := &domain.DistanceContext{
		ChatID:         chatID,
		ParticipantID:  participantID,
		PendingEventID: eventID,
	}
	if err := f.storage.Set(ctx, chatID, FlowDistance, StateSelectDistance, initialContext.ToMap()); err != nil {
		f.logger.Error("failed to start distance session", "chat_id", chatID, "error", err)
		return err
	}

	f.logger.Info("distance session started", "chat_id", chatID, "event_id", eventID)

	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        f.localizer.MustLocalize(locale.DistancePrompt),
		ReplyMarkup: DistanceKeyboard(f.localizer),
	})
	return err
}

// HandleMessage handles the distance choice and completes the pending
// event registration
func (f *DistanceFSM) HandleMessage(ctx context.Context, state string, data map[string]interface{}, msg *models.Message) error {
	if state != StateSelectDistance {
		f.logger.Warn("unexpected distance state", "chat_id", msg.Chat.ID, "state", state)
		return nil
	}

	distContext := &domain.DistanceContext{}
	if err := distContext.FromMap(data); err != nil {
		f.logger.Error("failed to load distance context", "chat_id", msg.Chat.ID, "error", err)
		_ = f.storage.Delete(ctx, msg.Chat.ID)
		return err
	}

	var dt domain.DistanceType
	switch msg.Text {
	case f.localizer.MustLocalize(locale.ButtonAdultRun), "🏃 Взрослый забег":
		dt = domain.DistanceAdult
	case f.localizer.MustLocalize(locale.ButtonChildrenRun), "👶 Детский забег":
		dt = domain.DistanceChildren
	default:
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        f.localizer.MustLocalize(locale.DistanceUnknownOption),
			ReplyMarkup: DistanceKeyboard(f.localizer),
		})
		return err
	}

	if err := f.registration.SetDistanceType(ctx, distContext.ParticipantID, dt); err != nil {
		return f.finishWithError(ctx, msg.Chat.ID, err)
	}

	reg, err := f.registration.RegisterForEvent(ctx, distContext.ParticipantID, distContext.PendingEventID)
	if err != nil {
		return f.finishWithError(ctx, msg.Chat.ID, err)
	}

	if err := f.storage.Delete(ctx, msg.Chat.ID); err != nil {
		f.logger.Warn("failed to delete distance session", "chat_id", msg.Chat.ID, "error", err)
	}

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        f.localizer.MustLocalizeWithTemplate(locale.EventRegDone, reg.BibNumber),
		ReplyMarkup: MainMenuKeyboard(f.localizer, true),
	})
	return err
}

func (f *DistanceFSM) finishWithError(ctx context.Context, chatID int64, cause error) error {
	_ = f.storage.Delete(ctx, chatID)

	key := locale.ErrorGeneric
	switch {
	case errors.Is(cause, domain.ErrRegistrationClosed), errors.Is(cause, domain.ErrEventNotOpen):
		key = locale.EventRegClosed
	case errors.Is(cause, domain.ErrEventFull):
		key = locale.EventFull
	}

	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        f.localizer.MustLocalize(key),
		ReplyMarkup: MainMenuKeyboard(f.localizer, true),
	})
	if err != nil {
		return err
	}

	return cause
}
