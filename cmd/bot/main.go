package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ad/fitness-challenge-bot/internal/bot"
	"github.com/ad/fitness-challenge-bot/internal/config"
	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"
	"github.com/ad/fitness-challenge-bot/internal/logger"
	"github.com/ad/fitness-challenge-bot/internal/media"
	"github.com/ad/fitness-challenge-bot/internal/storage"
	"github.com/ad/fitness-challenge-bot/internal/web"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

func main() {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(logLevel)

	localizer, err := locale.NewLocalizer(locale.NewLocale(cfg.Locale))
	if err != nil {
		log.Error("Failed to create localizer", "error", err)
		os.Exit(1)
	}

	log.Info(localizer.MustLocalize(locale.StartingBot), "log_level", cfg.LogLevel)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Error("Failed to enable WAL mode", "error", err)
		os.Exit(1)
	}

	log.Info("Database opened", "path", cfg.DatabasePath)

	dbQueue := storage.NewDBQueue(db)
	defer dbQueue.Close()

	if err := storage.InitSchema(dbQueue); err != nil {
		log.Error("Failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	if err := storage.RunMigrations(dbQueue); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	log.Info("Database ready")

	// Create repositories
	participantRepo := storage.NewParticipantRepository(dbQueue)
	challengeRepo := storage.NewChallengeRepository(dbQueue)
	challengeRegRepo := storage.NewChallengeRegistrationRepository(dbQueue)
	eventRepo := storage.NewEventRepository(dbQueue)
	eventRegRepo := storage.NewEventRegistrationRepository(dbQueue)
	submissionRepo := storage.NewSubmissionRepository(dbQueue)

	// Create media store
	mediaStore, err := media.NewLocalStore(cfg.MediaDir)
	if err != nil {
		log.Error("Failed to create media store", "error", err)
		os.Exit(1)
	}

	// Create domain services
	lifecycle := domain.NewSubmissionLifecycle(
		submissionRepo,
		challengeRepo,
		participantRepo,
		cfg.MaxSubmissionsPerDay,
		log,
	)
	registrationService := domain.NewRegistrationService(
		participantRepo,
		challengeRepo,
		challengeRegRepo,
		eventRepo,
		eventRegRepo,
		log,
	)

	// Create session storage and sweep stale sessions from previous runs
	sessions := storage.NewSessionStorage(dbQueue, log)
	if err := sessions.CleanupStale(context.Background()); err != nil {
		log.Error("Failed to cleanup stale sessions", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var handler *bot.BotHandler

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if handler != nil {
				handler.Handle(ctx, b, update)
			}
		}),
	}

	b, err := tgbot.New(cfg.TelegramToken, opts...)
	if err != nil {
		log.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	downloader := bot.NewTelegramFileDownloader(b)

	// Create conversation FSMs
	registrationFSM := bot.NewRegistrationFSM(sessions, b, b, registrationService, cfg, localizer, log)
	submissionFSM := bot.NewSubmissionFSM(sessions, b, downloader, mediaStore, lifecycle, registrationService, challengeRepo, localizer, log)
	distanceFSM := bot.NewDistanceFSM(sessions, b, registrationService, localizer, log)

	handler = bot.NewBotHandler(
		b,
		b,
		sessions,
		registrationFSM,
		submissionFSM,
		distanceFSM,
		lifecycle,
		registrationService,
		challengeRepo,
		eventRepo,
		participantRepo,
		cfg,
		localizer,
		log,
	)

	// Start admin HTTP server
	adminServer := web.NewServer(cfg.AdminHTTPAddr, lifecycle, participantRepo, cfg.AdminAPIToken, log)
	go func() {
		if err := adminServer.ListenAndServe(); err != nil {
			log.Error("Admin http server failed", "error", err)
		}
	}()
	defer func() { _ = adminServer.Close() }()

	go func() {
		log.Info("Starting bot polling")
		b.Start(ctx)
	}()

	log.Info(localizer.MustLocalize(locale.BotStarted))

	<-ctx.Done()

	log.Info("Shutdown signal received, stopping bot")
}
