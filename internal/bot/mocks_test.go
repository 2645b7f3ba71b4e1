package bot

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/ad/fitness-challenge-bot/internal/config"
	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"
	"github.com/ad/fitness-challenge-bot/internal/logger"
	"github.com/ad/fitness-challenge-bot/internal/media"
	"github.com/ad/fitness-challenge-bot/internal/storage"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	_ "modernc.org/sqlite"
)

const testAdminID int64 = 999

// MockSender records sent messages for assertions
type MockSender struct {
	sent []*bot.SendMessageParams
}

func (m *MockSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.sent = append(m.sent, params)
	return &models.Message{ID: len(m.sent)}, nil
}

func (m *MockSender) last() *bot.SendMessageParams {
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}

func (m *MockSender) textsFor(chatID int64) []string {
	var texts []string
	for _, p := range m.sent {
		if id, ok := p.ChatID.(int64); ok && id == chatID {
			texts = append(texts, p.Text)
		}
	}
	return texts
}

// MockPhotoSender records sent photos
type MockPhotoSender struct {
	sent []*bot.SendPhotoParams
}

func (m *MockPhotoSender) SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	m.sent = append(m.sent, params)
	return &models.Message{}, nil
}

// MockAnswerer records answered callback queries
type MockAnswerer struct {
	answered []string
}

func (m *MockAnswerer) AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.answered = append(m.answered, params.CallbackQueryID)
	return true, nil
}

// MockDownloader serves canned file contents
type MockDownloader struct {
	data []byte
	name string
}

func (m *MockDownloader) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	return m.data, m.name, nil
}

type botTestEnv struct {
	sender       *MockSender
	photos       *MockPhotoSender
	answerer     *MockAnswerer
	downloader   *MockDownloader
	sessions     *storage.SessionStorage
	participants *storage.ParticipantRepository
	challenges   *storage.ChallengeRepository
	events       *storage.EventRepository
	submissions  *storage.SubmissionRepository
	lifecycle    *domain.SubmissionLifecycle
	registration *domain.RegistrationService
	regFSM       *RegistrationFSM
	subFSM       *SubmissionFSM
	distFSM      *DistanceFSM
	handler      *BotHandler
	localizer    locale.Localizer
}

func newBotTestEnv(t *testing.T) *botTestEnv {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	queue := storage.NewDBQueue(db)
	t.Cleanup(queue.Close)

	if err := storage.InitSchema(queue); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := storage.RunMigrations(queue); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	log := logger.NewWithWriter(logger.ERROR, io.Discard)

	loc, err := locale.NewLocalizer(locale.NewLocale(locale.Ru))
	if err != nil {
		t.Fatalf("Failed to create localizer: %v", err)
	}

	mediaStore, err := media.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}

	cfg := &config.Config{
		AdminUserIDs:         []int64{testAdminID},
		Locale:               locale.Ru,
		MaxSubmissionsPerDay: 3,
	}

	env := &botTestEnv{
		sender:       &MockSender{},
		photos:       &MockPhotoSender{},
		answerer:     &MockAnswerer{},
		downloader:   &MockDownloader{data: []byte("media"), name: "proof.mp4"},
		participants: storage.NewParticipantRepository(queue),
		challenges:   storage.NewChallengeRepository(queue),
		events:       storage.NewEventRepository(queue),
		submissions:  storage.NewSubmissionRepository(queue),
		localizer:    loc,
	}
	env.sessions = storage.NewSessionStorage(queue, log)

	challengeRegs := storage.NewChallengeRegistrationRepository(queue)
	eventRegs := storage.NewEventRegistrationRepository(queue)

	env.lifecycle = domain.NewSubmissionLifecycle(env.submissions, env.challenges, env.participants, cfg.MaxSubmissionsPerDay, log)
	env.registration = domain.NewRegistrationService(env.participants, env.challenges, challengeRegs, env.events, eventRegs, log)

	env.regFSM = NewRegistrationFSM(env.sessions, env.sender, env.photos, env.registration, cfg, loc, log)
	env.subFSM = NewSubmissionFSM(env.sessions, env.sender, env.downloader, mediaStore, env.lifecycle, env.registration, env.challenges, loc, log)
	env.distFSM = NewDistanceFSM(env.sessions, env.sender, env.registration, loc, log)
	env.handler = NewBotHandler(env.sender, env.answerer, env.sessions,
		env.regFSM, env.subFSM, env.distFSM,
		env.lifecycle, env.registration,
		env.challenges, env.events, env.participants,
		cfg, loc, log)

	return env
}

func (env *botTestEnv) createParticipant(t *testing.T, telegramID int64) *domain.Participant {
	t.Helper()

	p := &domain.Participant{
		TelegramID:   telegramID,
		FullName:     "Иван Петров",
		BirthDate:    time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC),
		Phone:        "+79991234567",
		RegisteredAt: time.Now(),
		IsActive:     true,
	}
	if err := env.participants.CreateParticipant(context.Background(), p); err != nil {
		t.Fatalf("Failed to create participant: %v", err)
	}

	return p
}

func (env *botTestEnv) createChallenge(t *testing.T, typ domain.ChallengeType) *domain.Challenge {
	t.Helper()

	now := time.Now()
	c := &domain.Challenge{
		Name:      "Летний вызов",
		Type:      typ,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
		IsActive:  true,
		CreatedAt: now,
	}
	if err := env.challenges.CreateChallenge(context.Background(), c); err != nil {
		t.Fatalf("Failed to create challenge: %v", err)
	}

	return c
}

// dispatch feeds a message through the top-level handler, the same path
// a live update takes
func (env *botTestEnv) dispatch(t *testing.T, userID, chatID int64, text string) {
	t.Helper()
	env.handler.Handle(context.Background(), nil, &models.Update{
		Message: userMessage(userID, chatID, text),
	})
}

func userMessage(userID, chatID int64, text string) *models.Message {
	return &models.Message{
		From: &models.User{ID: userID},
		Chat: models.Chat{ID: chatID},
		Text: text,
	}
}
