package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ad/fitness-challenge-bot/internal/config"
	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"
	"github.com/ad/fitness-challenge-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Callback data prefixes
const (
	callbackApprovePrefix   = "approve_"
	callbackRejectPrefix    = "reject_"
	callbackEventRegPrefix  = "reg_event_"
	callbackChallengePrefix = "join_ch_"
)

// BotHandler handles all Telegram bot interactions
type BotHandler struct {
	sender          Sender
	answerer        CallbackAnswerer
	sessions        *storage.SessionStorage
	registrationFSM *RegistrationFSM
	submissionFSM   *SubmissionFSM
	distanceFSM     *DistanceFSM
	lifecycle       *domain.SubmissionLifecycle
	registration    *domain.RegistrationService
	challenges      domain.ChallengeRepository
	events          domain.EventRepository
	participants    domain.ParticipantRepository
	config          *config.Config
	localizer       locale.Localizer
	logger          domain.Logger
}

// NewBotHandler creates a new BotHandler with all dependencies
func NewBotHandler(
	sender Sender,
	answerer CallbackAnswerer,
	sessions *storage.SessionStorage,
	registrationFSM *RegistrationFSM,
	submissionFSM *SubmissionFSM,
	distanceFSM *DistanceFSM,
	lifecycle *domain.SubmissionLifecycle,
	registration *domain.RegistrationService,
	challenges domain.ChallengeRepository,
	events domain.EventRepository,
	participants domain.ParticipantRepository,
	cfg *config.Config,
	localizer locale.Localizer,
	logger domain.Logger,
) *BotHandler {
	return &BotHandler{
		sender:          sender,
		answerer:        answerer,
		sessions:        sessions,
		registrationFSM: registrationFSM,
		submissionFSM:   submissionFSM,
		distanceFSM:     distanceFSM,
		lifecycle:       lifecycle,
		registration:    registration,
		challenges:      challenges,
		events:          events,
		participants:    participants,
		config:          cfg,
		localizer:       localizer,
		logger:          logger,
	}
}

// Handle is the default update handler registered with the bot
func (h *BotHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		if err := h.handleCallback(ctx, update.CallbackQuery); err != nil {
			h.logger.Error("callback handling failed", "error", err)
		}
		return
	}

	if update.Message == nil {
		return
	}

	if err := h.handleMessage(ctx, update.Message); err != nil {
		h.logger.Error("message handling failed", "chat_id", update.Message.Chat.ID, "error", err)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *models.Message) error {
	chatID := msg.Chat.ID
	userID := chatID
	if msg.From != nil {
		userID = msg.From.ID
	}

	// Cancellation wins over any step logic
	if IsCancel(h.localizer, msg.Text) {
		return h.cancel(ctx, userID, chatID)
	}

	switch command(msg.Text) {
	case "/start":
		return h.sendMainMenu(ctx, userID, chatID, true)
	case "/help":
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.HelpText))
	case "/register":
		return h.registrationFSM.Start(ctx, userID, chatID)
	case "/submit":
		return h.submissionFSM.Start(ctx, userID, chatID)
	case "/challenges":
		return h.handleChallenges(ctx, chatID)
	case "/events":
		return h.handleEvents(ctx, chatID)
	case "/stats":
		return h.handleStats(ctx, userID, chatID)
	case "/my":
		return h.handleMyEvents(ctx, userID, chatID)
	case "/pending":
		return h.handlePending(ctx, userID, chatID)
	}

	// Menu buttons act as command aliases
	switch msg.Text {
	case h.localizer.MustLocalize(locale.ButtonRegister):
		return h.registrationFSM.Start(ctx, userID, chatID)
	case h.localizer.MustLocalize(locale.ButtonSubmit):
		return h.submissionFSM.Start(ctx, userID, chatID)
	case h.localizer.MustLocalize(locale.ButtonChallenges):
		return h.handleChallenges(ctx, chatID)
	case h.localizer.MustLocalize(locale.ButtonEvents):
		return h.handleEvents(ctx, chatID)
	case h.localizer.MustLocalize(locale.ButtonMyStats):
		return h.handleStats(ctx, userID, chatID)
	case h.localizer.MustLocalize(locale.ButtonMyEvents):
		return h.handleMyEvents(ctx, userID, chatID)
	}

	// Everything else goes to the active flow, if any
	flow, state, data, err := h.sessions.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return h.sendMainMenu(ctx, userID, chatID, false)
		}
		return err
	}

	switch flow {
	case FlowRegistration:
		return h.registrationFSM.HandleMessage(ctx, state, data, msg)
	case FlowSubmission:
		return h.submissionFSM.HandleMessage(ctx, state, data, msg)
	case FlowDistance:
		return h.distanceFSM.HandleMessage(ctx, state, data, msg)
	default:
		h.logger.Warn("unknown session flow", "chat_id", chatID, "flow", flow)
		_ = h.sessions.Delete(ctx, chatID)
		return h.sendMainMenu(ctx, userID, chatID, false)
	}
}

// command extracts the command part of a message, dropping bot mentions
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	return cmd
}

// cancel destroys the current session and renders the neutral main menu
func (h *BotHandler) cancel(ctx context.Context, userID, chatID int64) error {
	if err := h.sessions.Delete(ctx, chatID); err != nil {
		h.logger.Warn("failed to delete session on cancel", "chat_id", chatID, "error", err)
	}

	registered := h.isRegistered(ctx, userID)
	_, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.localizer.MustLocalize(locale.Cancelled),
		ReplyMarkup: MainMenuKeyboard(h.localizer, registered),
	})
	return err
}

func (h *BotHandler) isRegistered(ctx context.Context, userID int64) bool {
	p, err := h.participants.GetParticipantByTelegramID(ctx, userID)
	return err == nil && p != nil
}

func (h *BotHandler) sendMainMenu(ctx context.Context, userID, chatID int64, welcome bool) error {
	p, err := h.participants.GetParticipantByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	var text string
	switch {
	case welcome && p != nil:
		text = h.localizer.MustLocalizeWithTemplate(locale.WelcomeRegistered, p.FullName, p.StartNumber)
	case welcome:
		text = h.localizer.MustLocalize(locale.WelcomeNew)
	default:
		text = h.localizer.MustLocalize(locale.MainMenu)
	}

	_, err = h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: MainMenuKeyboard(h.localizer, p != nil),
	})
	return err
}

func (h *BotHandler) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// handleChallenges lists active challenges with join buttons
func (h *BotHandler) handleChallenges(ctx context.Context, chatID int64) error {
	challenges, err := h.challenges.GetActiveChallenges(ctx)
	if err != nil {
		return err
	}

	if len(challenges) == 0 {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.ChallengesNone))
	}

	var rows [][]models.InlineKeyboardButton
	for _, c := range challenges {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         ChallengeLabel(h.localizer, c),
			CallbackData: callbackChallengePrefix + strconv.FormatInt(c.ID, 10),
		}})
	}

	_, err = h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.localizer.MustLocalize(locale.ChallengesListHeader),
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	return err
}

// handleEvents lists open events with registration buttons
func (h *BotHandler) handleEvents(ctx context.Context, chatID int64) error {
	events, err := h.events.GetActiveEvents(ctx)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.EventsNone))
	}

	var rows [][]models.InlineKeyboardButton
	for _, e := range events {
		label := fmt.Sprintf("%s (%s)", e.Name, e.StartDate.Format("02.01.2006"))
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         label,
			CallbackData: callbackEventRegPrefix + strconv.FormatInt(e.ID, 10),
		}})
	}

	_, err = h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.localizer.MustLocalize(locale.EventsListHeader),
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	return err
}

// handleStats shows the participant's bib and recent submissions
func (h *BotHandler) handleStats(ctx context.Context, userID, chatID int64) error {
	p, err := h.participants.GetParticipantByTelegramID(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.SubNotRegistered))
	}

	submissions, err := h.lifecycle.RecentByParticipant(ctx, p.ID, 10)
	if err != nil {
		return err
	}

	if len(submissions) == 0 {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.StatsNoSubmissions))
	}

	var sb strings.Builder
	sb.WriteString(h.localizer.MustLocalizeWithTemplate(locale.StatsHeader, p.FullName, p.StartNumber))
	for _, s := range submissions {
		sb.WriteString(fmt.Sprintf("\n%s %s — %g %s",
			statusIcon(s.Status), s.SubmittedAt.Format("02.01 15:04"), s.ResultValue, s.ResultUnit))
	}

	return h.sendText(ctx, chatID, sb.String())
}

func statusIcon(s domain.SubmissionStatus) string {
	switch s {
	case domain.SubmissionStatusApproved:
		return "✅"
	case domain.SubmissionStatusRejected:
		return "❌"
	default:
		return "⏳"
	}
}

// handleMyEvents shows the participant's event registrations
func (h *BotHandler) handleMyEvents(ctx context.Context, userID, chatID int64) error {
	p, err := h.participants.GetParticipantByTelegramID(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.SubNotRegistered))
	}

	regs, err := h.registration.EventRegistrations(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(regs) == 0 {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.MyEventsNone))
	}

	var sb strings.Builder
	sb.WriteString(h.localizer.MustLocalize(locale.MyEventsHeader))
	for _, reg := range regs {
		event, err := h.events.GetEvent(ctx, reg.EventID)
		if err != nil || event == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s — %s (%s)", event.Name, reg.BibNumber, event.StartDate.Format("02.01.2006")))
	}

	return h.sendText(ctx, chatID, sb.String())
}

func (h *BotHandler) handleCallback(ctx context.Context, callback *models.CallbackQuery) error {
	data := callback.Data
	userID := callback.From.ID

	var chatID int64
	if callback.Message.Message != nil {
		chatID = callback.Message.Message.Chat.ID
	} else {
		chatID = userID
	}

	_, _ = h.answerer.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	})

	switch {
	case strings.HasPrefix(data, callbackApprovePrefix):
		return h.handleModeration(ctx, userID, chatID, strings.TrimPrefix(data, callbackApprovePrefix), true)
	case strings.HasPrefix(data, callbackRejectPrefix):
		return h.handleModeration(ctx, userID, chatID, strings.TrimPrefix(data, callbackRejectPrefix), false)
	case strings.HasPrefix(data, callbackEventRegPrefix):
		return h.handleEventRegistration(ctx, userID, chatID, strings.TrimPrefix(data, callbackEventRegPrefix))
	case strings.HasPrefix(data, callbackChallengePrefix):
		return h.handleChallengeRegistration(ctx, userID, chatID, strings.TrimPrefix(data, callbackChallengePrefix))
	}

	h.logger.Debug("unhandled callback", "data", data)
	return nil
}

// handleEventRegistration registers the user for an event, diverting to
// the distance side flow when a run event needs a distance choice
func (h *BotHandler) handleEventRegistration(ctx context.Context, userID, chatID int64, idStr string) error {
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return err
	}

	p, err := h.participants.GetParticipantByTelegramID(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.SubNotRegistered))
	}

	reg, err := h.registration.RegisterForEvent(ctx, p.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDistanceRequired):
			return h.distanceFSM.Start(ctx, chatID, p.ID, eventID)
		case errors.Is(err, domain.ErrRegistrationClosed), errors.Is(err, domain.ErrEventNotOpen):
			return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.EventRegClosed))
		case errors.Is(err, domain.ErrEventFull):
			return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.EventFull))
		}
		return err
	}

	return h.sendText(ctx, chatID, h.localizer.MustLocalizeWithTemplate(locale.EventRegDone, reg.BibNumber))
}

func (h *BotHandler) handleChallengeRegistration(ctx context.Context, userID, chatID int64, idStr string) error {
	challengeID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return err
	}

	p, err := h.participants.GetParticipantByTelegramID(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.SubNotRegistered))
	}

	reg, err := h.registration.RegisterForChallenge(ctx, p.ID, challengeID)
	if err != nil {
		if errors.Is(err, domain.ErrChallengeNotActive) || errors.Is(err, domain.ErrChallengeNotFound) {
			return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.SubChallengeInactive))
		}
		return err
	}

	return h.sendText(ctx, chatID, h.localizer.MustLocalizeWithTemplate(locale.ChallengeRegDone, reg.BibNumber))
}
