package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"
	"github.com/ad/fitness-challenge-bot/internal/media"
	"github.com/ad/fitness-challenge-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Submission FSM state constants
const (
	StateSelectChallenge = "select_challenge"
	StateUploadMedia     = "upload_media"
	StateEnterResult     = "enter_result"
	StateEnterComment    = "enter_comment"
)

// skipCommentSentinel skips the optional comment step
const skipCommentSentinel = "-"

// SubmissionFSM manages the result submission state machine
type SubmissionFSM struct {
	storage      *storage.SessionStorage
	sender       Sender
	downloader   FileDownloader
	mediaStore   media.Store
	lifecycle    *domain.SubmissionLifecycle
	registration *domain.RegistrationService
	challenges   domain.ChallengeRepository
	localizer    locale.Localizer
	logger       domain.Logger
}

// NewSubmissionFSM creates a new FSM for result submission
func NewSubmissionFSM(
	sessions *storage.SessionStorage,
	sender Sender,
	downloader FileDownloader,
	mediaStore media.Store,
	lifecycle *domain.SubmissionLifecycle,
	registration *domain.RegistrationService,
	challenges domain.ChallengeRepository,
	localizer locale.Localizer,
	logger domain.Logger,
) *SubmissionFSM {
	return &SubmissionFSM{
		storage:      sessions,
		sender:       sender,
		downloader:   downloader,
		mediaStore:   mediaStore,
		lifecycle:    lifecycle,
		registration: registration,
		challenges:   challenges,
		localizer:    localizer,
		logger:       logger,
	}
}

// Start initializes a new submission session for a chat
func (f *SubmissionFSM) Start(ctx context.Context, telegramID, chatID int64) error {
	participant, err := f.registration.GetParticipantByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) {
			_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:      chatID,
				Text:        f.localizer.MustLocalize(locale.SubNotRegistered),
				ReplyMarkup: MainMenuKeyboard(f.localizer, false),
			})
			return err
		}
		return err
	}

	challenges, err := f.challenges.GetActiveChallenges(ctx)
	if err != nil {
		f.logger.Error("failed to load active challenges", "error", err)
		return err
	}
	if len(challenges) == 0 {
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        f.localizer.MustLocalize(locale.SubNoChallenges),
			ReplyMarkup: MainMenuKeyboard(f.localizer, true),
		})
		return err
	}

	initialContext := &domain.SubmissionContext{
		ChatID:        chatID,
		ParticipantID: participant.ID,
	}
	if err := f.storage.Set(ctx, chatID, FlowSubmission, StateSelectChallenge, initialContext.ToMap()); err != nil {
		f.logger.Error("failed to start submission session", "chat_id", chatID, "error", err)
		return err
	}

	f.logger.Info("submission session started", "chat_id", chatID, "participant_id", participant.ID)

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        f.localizer.MustLocalize(locale.SubChooseChallenge),
		ReplyMarkup: ChallengeKeyboard(f.localizer, challenges),
	})
	return err
}

// HandleMessage routes a message to the handler for the current state
func (f *SubmissionFSM) HandleMessage(ctx context.Context, state string, data map[string]interface{}, msg *models.Message) error {
	subContext := &domain.SubmissionContext{}
	if err := subContext.FromMap(data); err != nil {
		f.logger.Error("failed to load submission context", "chat_id", msg.Chat.ID, "error", err)
		_ = f.storage.Delete(ctx, msg.Chat.ID)
		return err
	}

	switch state {
	case StateSelectChallenge:
		return f.handleSelectChallenge(ctx, msg, subContext)
	case StateUploadMedia:
		return f.handleUploadMedia(ctx, msg, subContext)
	case StateEnterResult:
		return f.handleEnterResult(ctx, msg, subContext)
	case StateEnterComment:
		return f.handleEnterComment(ctx, msg, subContext)
	default:
		f.logger.Warn("unexpected submission state", "chat_id", msg.Chat.ID, "state", state)
		return nil
	}
}

func (f *SubmissionFSM) handleSelectChallenge(ctx context.Context, msg *models.Message, c *domain.SubmissionContext) error {
	challenges, err := f.challenges.GetActiveChallenges(ctx)
	if err != nil {
		return err
	}

	label := strings.TrimSpace(msg.Text)
	var selected *domain.Challenge
	for _, ch := range challenges {
		if ChallengeLabel(f.localizer, ch) == label || ch.Name == label {
			selected = ch
			break
		}
	}

	if selected == nil {
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        f.localizer.MustLocalize(locale.SubUnknownChallenge),
			ReplyMarkup: ChallengeKeyboard(f.localizer, challenges),
		})
		return err
	}

	c.ChallengeID = selected.ID
	if err := f.storage.Set(ctx, msg.Chat.ID, FlowSubmission, StateUploadMedia, c.ToMap()); err != nil {
		return err
	}

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        f.localizer.MustLocalize(locale.SubAskMedia),
		ReplyMarkup: CancelKeyboard(f.localizer),
	})
	return err
}

// mediaKind classifies an incoming message attachment
type mediaKind string

const (
	mediaKindPhoto mediaKind = "photo"
	mediaKindVideo mediaKind = "video"
	mediaKindDoc   mediaKind = "document"
	mediaKindNone  mediaKind = ""
)

func attachment(msg *models.Message) (fileID, name string, kind mediaKind) {
	switch {
	case len(msg.Photo) > 0:
		// Telegram orders photo sizes ascending, take the largest
		return msg.Photo[len(msg.Photo)-1].FileID, "photo.jpg", mediaKindPhoto
	case msg.Video != nil:
		name := msg.Video.FileName
		if name == "" {
			name = "video.mp4"
		}
		return msg.Video.FileID, name, mediaKindVideo
	case msg.Document != nil:
		name := msg.Document.FileName
		if name == "" {
			name = "document"
		}
		return msg.Document.FileID, name, mediaKindDoc
	}

	return "", "", mediaKindNone
}

// expectedMediaKind returns the media kind a challenge type usually
// expects. Rep and duration challenges want video, distance and step
// challenges want a screenshot.
func expectedMediaKind(t domain.ChallengeType) mediaKind {
	switch t {
	case domain.ChallengeTypePushUps, domain.ChallengeTypeSquats, domain.ChallengeTypePlank:
		return mediaKindVideo
	case domain.ChallengeTypeRunning, domain.ChallengeTypeSteps:
		return mediaKindPhoto
	}

	return mediaKindNone
}

func (f *SubmissionFSM) handleUploadMedia(ctx context.Context, msg *models.Message, c *domain.SubmissionContext) error {
	fileID, name, kind := attachment(msg)
	if kind == mediaKindNone {
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        f.localizer.MustLocalize(locale.SubBadMedia),
			ReplyMarkup: CancelKeyboard(f.localizer),
		})
		return err
	}

	data, downloadName, err := f.downloader.DownloadFile(ctx, fileID)
	if err != nil {
		f.logger.Error("failed to download media", "chat_id", msg.Chat.ID, "file_id", fileID, "error", err)
		_, sendErr := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   f.localizer.MustLocalize(locale.ErrorGeneric),
		})
		if sendErr != nil {
			return sendErr
		}
		return err
	}
	if downloadName != "" {
		name = downloadName
	}

	token, err := f.mediaStore.Put(data, name)
	if err != nil {
		f.logger.Error("failed to store media", "chat_id", msg.Chat.ID, "error", err)
		return err
	}
	c.MediaToken = token

	challenge, err := f.challenges.GetChallenge(ctx, c.ChallengeID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return f.finishWithError(ctx, msg.Chat.ID, domain.ErrChallengeNotFound)
	}

	// Mismatched media is accepted with a warning, moderators decide
	if expected := expectedMediaKind(challenge.Type); expected != mediaKindNone && kind != mediaKindDoc && kind != expected {
		_, _ = f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   f.localizer.MustLocalize(locale.SubMediaMismatchWarn),
		})
	}

	if err := f.storage.Set(ctx, msg.Chat.ID, FlowSubmission, StateEnterResult, c.ToMap()); err != nil {
		return err
	}

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        f.localizer.MustLocalizeWithTemplate(locale.SubAskResult, UnitLabel(f.localizer, challenge.Type)),
		ReplyMarkup: CancelKeyboard(f.localizer),
	})
	return err
}

func (f *SubmissionFSM) handleEnterResult(ctx context.Context, msg *models.Message, c *domain.SubmissionContext) error {
	value, err := domain.ParseResult(msg.Text)
	if err != nil {
		_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        f.localizer.MustLocalize(locale.SubBadResult),
			ReplyMarkup: CancelKeyboard(f.localizer),
		})
		return err
	}

	challenge, err := f.challenges.GetChallenge(ctx, c.ChallengeID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return f.finishWithError(ctx, msg.Chat.ID, domain.ErrChallengeNotFound)
	}

	if err := domain.CheckResult(challenge.Type, value); err != nil {
		return f.sendOutOfRange(ctx, msg.Chat.ID, challenge.Type)
	}

	c.ResultValue = value
	if err := f.storage.Set(ctx, msg.Chat.ID, FlowSubmission, StateEnterComment, c.ToMap()); err != nil {
		return err
	}

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        f.localizer.MustLocalize(locale.SubAskComment),
		ReplyMarkup: CancelKeyboard(f.localizer),
	})
	return err
}

func (f *SubmissionFSM) handleEnterComment(ctx context.Context, msg *models.Message, c *domain.SubmissionContext) error {
	comment := strings.TrimSpace(msg.Text)
	if comment == skipCommentSentinel {
		comment = ""
	}

	submission := &domain.Submission{
		ParticipantID: c.ParticipantID,
		ChallengeID:   c.ChallengeID,
		MediaToken:    c.MediaToken,
		ResultValue:   c.ResultValue,
		Comment:       comment,
	}

	err := f.lifecycle.CreateSubmission(ctx, submission)
	if err != nil {
		return f.finishWithError(ctx, msg.Chat.ID, err)
	}

	if err := f.storage.Delete(ctx, msg.Chat.ID); err != nil {
		f.logger.Warn("failed to delete submission session", "chat_id", msg.Chat.ID, "error", err)
	}

	f.logger.Info("submission accepted", "chat_id", msg.Chat.ID, "submission_id", submission.ID)

	_, err = f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        f.localizer.MustLocalize(locale.SubDone),
		ReplyMarkup: MainMenuKeyboard(f.localizer, true),
	})
	return err
}

// finishWithError maps engine errors to user messages and ends the flow
func (f *SubmissionFSM) finishWithError(ctx context.Context, chatID int64, cause error) error {
	_ = f.storage.Delete(ctx, chatID)

	key := locale.ErrorGeneric
	switch {
	case errors.Is(cause, domain.ErrChallengeNotActive),
		errors.Is(cause, domain.ErrChallengeNotStarted),
		errors.Is(cause, domain.ErrChallengeFinished):
		key = locale.SubChallengeInactive
	case errors.Is(cause, domain.ErrSubmissionLimit):
		key = locale.SubLimitReached
	case errors.Is(cause, domain.ErrResultOutOfRange), errors.Is(cause, domain.ErrResultNotPositive):
		key = locale.SubBadResult
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

func (f *SubmissionFSM) sendOutOfRange(ctx context.Context, chatID int64, t domain.ChallengeType) error {
	bounds, ok := domain.BoundsFor(t)
	if !ok {
		return domain.ErrInvalidChallengeType
	}

	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text: f.localizer.MustLocalizeWithTemplate(locale.SubResultOutOfRange,
			formatBound(bounds.Min), formatBound(bounds.Max), UnitLabel(f.localizer, t)),
		ReplyMarkup: CancelKeyboard(f.localizer),
	})
	return err
}

func formatBound(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}

	return fmt.Sprintf("%g", v)
}
