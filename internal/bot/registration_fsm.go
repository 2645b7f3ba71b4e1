package bot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ad/fitness-challenge-bot/internal/config"
	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"
	"github.com/ad/fitness-challenge-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/skip2/go-qrcode"
)

// Flow identifiers stored with each session
const (
	FlowRegistration = "registration"
	FlowSubmission   = "submission"
	FlowDistance     = "distance"
)

// Registration FSM state constants
const (
	StateFullName  = "full_name"
	StateBirthDate = "birth_date"
	StatePhone     = "phone"
	StateConfirm   = "confirm"
)

// RegistrationFSM manages the participant registration state machine
type RegistrationFSM struct {
	storage      *storage.SessionStorage
	sender       Sender
	photoSender  PhotoSender
	registration *domain.RegistrationService
	config       *config.Config
	localizer    locale.Localizer
	logger       domain.Logger
}

// NewRegistrationFSM creates a new FSM for participant registration
func NewRegistrationFSM(
	sessions *storage.SessionStorage,
	sender Sender,
	photoSender PhotoSender,
	registration *domain.RegistrationService,
	cfg *config.Config,
	localizer locale.Localizer,
	logger domain.Logger,
) *RegistrationFSM {
	return &RegistrationFSM{
		storage:      sessions,
		sender:       sender,
		photoSender:  photoSender,
		registration: registration,
		config:       cfg,
		localizer:    localizer,
		logger:       logger,
	}
}

// Start initializes a new registration session for a chat
func (f *RegistrationFSM) Start(ctx context.Context, telegramID, chatID int64) error {
	existing, err := f.registration.GetParticipantByTelegramID(ctx, telegramID)
	if err != nil && !errors.Is(err, domain.ErrParticipantNotFound) {
		f.logger.Error("failed to check existing participant", "telegram_id", telegramID, "error", err)
		return err
	}
	if existing != nil {
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        f.localizer.MustLocalizeWithTemplate(locale.RegAlreadyRegistered, existing.StartNumber),
			ReplyMarkup: MainMenuKeyboard(f.localizer, true),
		})
		return err
	}

	initialContext := &domain.RegistrationContext{ChatID: chatID}
	if err := f.storage.Set(ctx, chatID, FlowRegistration, StateFullName, initialContext.ToMap()); err != nil {
		f.logger.Error("failed to start registration session", "chat_id", chatID, "error", err)
		return err
	}

	f.logger.Info("registration session started", "chat_id", chatID, "telegram_id", telegramID)

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        f.localizer.MustLocalize(locale.RegAskFullName),
		ReplyMarkup: CancelKeyboard(f.localizer),
	})
	return err
}

// HandleMessage routes a message to the handler for the current state
func (f *RegistrationFSM) HandleMessage(ctx context.Context, state string, data map[string]interface{}, msg *models.Message) error {
	regContext := &domain.RegistrationContext{}
	if err := regContext.FromMap(data); err != nil {
		f.logger.Error("failed to load registration context", "chat_id", msg.Chat.ID, "error", err)
		_ = f.storage.Delete(ctx, msg.Chat.ID)
		return err
	}

	switch state {
	case StateFullName:
		return f.handleFullName(ctx, msg, regContext)
	case StateBirthDate:
		return f.handleBirthDate(ctx, msg, regContext)
	case StatePhone:
		return f.handlePhone(ctx, msg, regContext)
	case StateConfirm:
		return f.handleConfirm(ctx, msg, regContext)
	default:
		f.logger.Warn("unexpected registration state", "chat_id", msg.Chat.ID, "state", state)
		return nil
	}
}

func (f *RegistrationFSM) handleFullName(ctx context.Context, msg *models.Message, c *domain.RegistrationContext) error {
	name := strings.TrimSpace(msg.Text)
	if !domain.ValidFullName(name) {
		return f.reprompt(ctx, msg.Chat.ID, locale.RegNameTooShort)
	}

	c.FullName = name
	if err := f.storage.Set(ctx, msg.Chat.ID, FlowRegistration, StateBirthDate, c.ToMap()); err != nil {
		return err
	}

	return f.reprompt(ctx, msg.Chat.ID, locale.RegAskBirthDate)
}

func (f *RegistrationFSM) handleBirthDate(ctx context.Context, msg *models.Message, c *domain.RegistrationContext) error {
	birth, err := domain.ParseBirthDate(msg.Text, time.Now())
	if err != nil {
		key := locale.RegBadBirthDate
		switch {
		case errors.Is(err, domain.ErrBirthDateInFuture):
			key = locale.RegBirthDateFuture
		case errors.Is(err, domain.ErrInvalidAge):
			key = locale.RegBadAge
		}
		return f.reprompt(ctx, msg.Chat.ID, key)
	}

	c.BirthDate = birth
	if err := f.storage.Set(ctx, msg.Chat.ID, FlowRegistration, StatePhone, c.ToMap()); err != nil {
		return err
	}

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        f.localizer.MustLocalize(locale.RegAskPhone),
		ReplyMarkup: PhoneKeyboard(f.localizer),
	})
	return err
}

func (f *RegistrationFSM) handlePhone(ctx context.Context, msg *models.Message, c *domain.RegistrationContext) error {
	var phone string
	if msg.Contact != nil {
		phone = msg.Contact.PhoneNumber
	} else {
		phone = msg.Text
	}

	if !domain.ValidPhone(phone) {
		return f.reprompt(ctx, msg.Chat.ID, locale.RegBadPhone)
	}

	c.Phone = domain.NormalizePhone(phone)
	if err := f.storage.Set(ctx, msg.Chat.ID, FlowRegistration, StateConfirm, c.ToMap()); err != nil {
		return err
	}

	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text: f.localizer.MustLocalizeWithTemplate(locale.RegConfirmSummary,
			c.FullName, c.BirthDate.Format("02.01.2006"), c.Phone),
		ReplyMarkup: YesNoKeyboard(f.localizer),
	})
	return err
}

func (f *RegistrationFSM) handleConfirm(ctx context.Context, msg *models.Message, c *domain.RegistrationContext) error {
	answer := strings.ToLower(strings.TrimSpace(msg.Text))
	yes := f.localizer.MustLocalize(locale.ButtonYes)
	no := f.localizer.MustLocalize(locale.ButtonNo)

	switch answer {
	case "да", "yes", strings.ToLower(yes):
		return f.complete(ctx, msg, c)
	case "нет", "no", strings.ToLower(no):
		// Declining restarts the flow from the first step
		c.FullName = ""
		c.BirthDate = time.Time{}
		c.Phone = ""
		if err := f.storage.Set(ctx, msg.Chat.ID, FlowRegistration, StateFullName, c.ToMap()); err != nil {
			return err
		}
		return f.reprompt(ctx, msg.Chat.ID, locale.RegAskFullName)
	default:
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        f.localizer.MustLocalize(locale.RegConfirmRetry),
			ReplyMarkup: YesNoKeyboard(f.localizer),
		})
		return err
	}
}

func (f *RegistrationFSM) complete(ctx context.Context, msg *models.Message, c *domain.RegistrationContext) error {
	telegramID := msg.Chat.ID
	if msg.From != nil {
		telegramID = msg.From.ID
	}

	participant := &domain.Participant{
		TelegramID: telegramID,
		FullName:   c.FullName,
		BirthDate:  c.BirthDate,
		Phone:      c.Phone,
	}

	if err := f.registration.RegisterParticipant(ctx, participant); err != nil {
		f.logger.Error("registration failed", "chat_id", msg.Chat.ID, "error", err)
		_ = f.storage.Delete(ctx, msg.Chat.ID)
		_, sendErr := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        f.localizer.MustLocalize(locale.ErrorGeneric),
			ReplyMarkup: MainMenuKeyboard(f.localizer, false),
		})
		if sendErr != nil {
			return sendErr
		}
		return err
	}

	if err := f.storage.Delete(ctx, msg.Chat.ID); err != nil {
		f.logger.Warn("failed to delete registration session", "chat_id", msg.Chat.ID, "error", err)
	}

	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        f.localizer.MustLocalizeWithTemplate(locale.RegDone, participant.StartNumber),
		ReplyMarkup: MainMenuKeyboard(f.localizer, true),
	})
	if err != nil {
		return err
	}

	f.sendBibQR(ctx, msg.Chat.ID, participant.StartNumber)
	f.notifyAdmins(ctx, participant)

	return nil
}

// sendBibQR sends the start number as a QR code image. Failures are
// logged only, the registration itself already succeeded.
func (f *RegistrationFSM) sendBibQR(ctx context.Context, chatID int64, startNumber string) {
	if f.photoSender == nil {
		return
	}

	png, err := qrcode.Encode(startNumber, qrcode.Medium, 256)
	if err != nil {
		f.logger.Warn("failed to encode bib QR", "start_number", startNumber, "error", err)
		return
	}

	_, err = f.photoSender.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: startNumber + ".png",
			Data:     bytes.NewReader(png),
		},
		Caption: startNumber,
	})
	if err != nil {
		f.logger.Warn("failed to send bib QR", "chat_id", chatID, "error", err)
	}
}

func (f *RegistrationFSM) notifyAdmins(ctx context.Context, p *domain.Participant) {
	text := f.localizer.MustLocalizeWithTemplate(locale.AdminNewParticipant, p.FullName, p.StartNumber)
	for _, adminID := range f.config.AdminUserIDs {
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: adminID,
			Text:   text,
		})
		if err != nil {
			f.logger.Warn("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}

func (f *RegistrationFSM) reprompt(ctx context.Context, chatID int64, key string) error {
	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        f.localizer.MustLocalize(key),
		ReplyMarkup: CancelKeyboard(f.localizer),
	})
	return err
}
