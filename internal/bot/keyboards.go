package bot

import (
	"context"
	"strings"

	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the subset of the Telegram bot API used to send messages
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// PhotoSender sends photo messages
type PhotoSender interface {
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// CallbackAnswerer answers callback queries
type CallbackAnswerer interface {
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// FileDownloader fetches file contents uploaded by users
type FileDownloader interface {
	DownloadFile(ctx context.Context, fileID string) (data []byte, name string, err error)
}

// IsCancel reports whether the text is one of the cancellation sentinels.
// The bare Russian forms are kept alongside the localized buttons so
// cancellation works regardless of the configured locale.
func IsCancel(loc locale.Localizer, text string) bool {
	text = strings.TrimSpace(text)
	switch text {
	case "/cancel", "❌ Отменить", "Отменить", "🏠 Главное меню":
		return true
	}

	return text == loc.MustLocalize(locale.ButtonCancel) ||
		text == loc.MustLocalize(locale.ButtonMainMenu)
}

// MainMenuKeyboard builds the reply keyboard for the main menu. The
// layout depends only on whether the user is registered.
func MainMenuKeyboard(loc locale.Localizer, registered bool) *models.ReplyKeyboardMarkup {
	var rows [][]models.KeyboardButton

	if registered {
		rows = append(rows,
			[]models.KeyboardButton{
				{Text: loc.MustLocalize(locale.ButtonSubmit)},
				{Text: loc.MustLocalize(locale.ButtonMyStats)},
			},
			[]models.KeyboardButton{
				{Text: loc.MustLocalize(locale.ButtonChallenges)},
				{Text: loc.MustLocalize(locale.ButtonEvents)},
			},
			[]models.KeyboardButton{
				{Text: loc.MustLocalize(locale.ButtonMyEvents)},
			},
		)
	} else {
		rows = append(rows,
			[]models.KeyboardButton{
				{Text: loc.MustLocalize(locale.ButtonRegister)},
			},
			[]models.KeyboardButton{
				{Text: loc.MustLocalize(locale.ButtonChallenges)},
				{Text: loc.MustLocalize(locale.ButtonEvents)},
			},
		)
	}

	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}

// CancelKeyboard builds a keyboard with only the cancel button
func CancelKeyboard(loc locale.Localizer) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: loc.MustLocalize(locale.ButtonCancel)}},
		},
		ResizeKeyboard: true,
	}
}

// YesNoKeyboard builds a confirmation keyboard
func YesNoKeyboard(loc locale.Localizer) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{
				{Text: loc.MustLocalize(locale.ButtonYes)},
				{Text: loc.MustLocalize(locale.ButtonNo)},
			},
			{{Text: loc.MustLocalize(locale.ButtonCancel)}},
		},
		ResizeKeyboard: true,
	}
}

// PhoneKeyboard builds a keyboard with a contact-sharing button
func PhoneKeyboard(loc locale.Localizer) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: loc.MustLocalize(locale.ButtonSharePhone), RequestContact: true}},
			{{Text: loc.MustLocalize(locale.ButtonCancel)}},
		},
		ResizeKeyboard: true,
	}
}

// DistanceKeyboard builds the distance selection keyboard
func DistanceKeyboard(loc locale.Localizer) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{
				{Text: loc.MustLocalize(locale.ButtonAdultRun)},
				{Text: loc.MustLocalize(locale.ButtonChildrenRun)},
			},
			{{Text: loc.MustLocalize(locale.ButtonCancel)}},
		},
		ResizeKeyboard: true,
	}
}

// ChallengeKeyboard builds a keyboard listing challenge display labels
func ChallengeKeyboard(loc locale.Localizer, challenges []*domain.Challenge) *models.ReplyKeyboardMarkup {
	rows := make([][]models.KeyboardButton, 0, len(challenges)+1)
	for _, c := range challenges {
		rows = append(rows, []models.KeyboardButton{{Text: ChallengeLabel(loc, c)}})
	}
	rows = append(rows, []models.KeyboardButton{{Text: loc.MustLocalize(locale.ButtonCancel)}})

	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}

// ChallengeLabel returns the display label used on keyboards for a challenge
func ChallengeLabel(loc locale.Localizer, c *domain.Challenge) string {
	return TypeLabel(loc, c.Type) + " " + c.Name
}

// TypeLabel returns the localized label for a challenge type
func TypeLabel(loc locale.Localizer, t domain.ChallengeType) string {
	switch t {
	case domain.ChallengeTypePushUps:
		return loc.MustLocalize(locale.ChallengePushUps)
	case domain.ChallengeTypeSquats:
		return loc.MustLocalize(locale.ChallengeSquats)
	case domain.ChallengeTypePlank:
		return loc.MustLocalize(locale.ChallengePlank)
	case domain.ChallengeTypeRunning:
		return loc.MustLocalize(locale.ChallengeRunning)
	case domain.ChallengeTypeSteps:
		return loc.MustLocalize(locale.ChallengeSteps)
	}

	return string(t)
}

// UnitLabel returns the localized unit name for a challenge type
func UnitLabel(loc locale.Localizer, t domain.ChallengeType) string {
	switch t {
	case domain.ChallengeTypePushUps, domain.ChallengeTypeSquats:
		return loc.MustLocalize(locale.UnitReps)
	case domain.ChallengeTypePlank:
		return loc.MustLocalize(locale.UnitSeconds)
	case domain.ChallengeTypeRunning:
		return loc.MustLocalize(locale.UnitKm)
	case domain.ChallengeTypeSteps:
		return loc.MustLocalize(locale.UnitSteps)
	}

	return ""
}
