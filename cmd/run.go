package cmd

import (
	"context"
	"fmt"
	"time"

	"luckydraw/api"
	"luckydraw/application"
	"luckydraw/application/dto"
	"luckydraw/bot"
	"luckydraw/bot/discord"
	"luckydraw/bot/render"
	"luckydraw/bot/telegram"
	"luckydraw/config"
	"luckydraw/database"
	"luckydraw/domain/entities"
	"luckydraw/domain/events"
	"luckydraw/domain/interfaces"
	"luckydraw/infrastructure"
	"luckydraw/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// eventPublisher is a publisher that can also feed in-process handlers
type eventPublisher interface {
	interfaces.EventPublisher
	RegisterLocalHandler(eventType events.EventType, handler infrastructure.LocalEventHandler)
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting lucky draw bot...")

	// Load configuration
	cfg := config.Get()
	opts, err := application.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Metrics are optional; a failed exporter must not stop the bot
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	// Initialize event publishing
	publisher, closeEvents, err := newEventPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEvents()
	for _, eventType := range events.AllEventTypes() {
		publisher.RegisterLocalHandler(eventType, metrics.HandleEvent)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	if err := application.SeedSettings(ctx, uowFactory, opts); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	// Initialize the chat platform
	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	// Admin lookups for the notifier need no notifications of their own
	directory := application.NewAdminService(uowFactory, nil, opts)
	notifier := bot.NewNotifier(gateway, directory, cfg.AnnouncementChannel, cfg.PaymentLogChannel)

	wallet := application.NewWalletService(uowFactory, notifier, opts)
	admin := application.NewAdminService(uowFactory, notifier, opts)

	// Start the draw worker
	worker := application.NewDrawWorker(uowFactory, notifier, render.NewDrawCardRenderer(), opts)
	worker.SetDurationRecorder(metrics.RecordDrawDuration)
	stopWorker := worker.Start(ctx)

	// Start the HTTP server
	server := api.NewServer(api.Config{
		Port:       cfg.HTTPPort,
		JWTSecret:  cfg.AdminJWTSecret,
		Production: cfg.IsProduction(),
	}, admin)
	server.Start()

	// Start the bot
	chatBot := bot.New(bot.Config{Accounts: paymentAccounts(cfg)}, gateway, wallet, admin)
	chatBot.Router().SetUpdateRecorder(metrics.RecordChatUpdate)

	botDone := make(chan error, 1)
	go func() {
		botDone <- chatBot.Run(ctx)
	}()

	log.Infof("Bot is running on %s in %s mode...", cfg.ChatPlatform, cfg.Environment)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-botDone:
		if runErr != nil {
			log.WithError(runErr).Error("Bot stopped unexpectedly")
		}
	}

	// Cleanup resources
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := chatBot.Close(); err != nil {
		log.WithError(err).Warn("Error closing chat gateway")
	}
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn("Timed out waiting for in-flight updates")
	}

	stopWorker()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down HTTP server")
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return runErr
}

// newEventPublisher connects to NATS when configured; otherwise events only reach local handlers
func newEventPublisher(ctx context.Context, cfg *config.Config) (eventPublisher, func(), error) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, events are handled in-process only")
		return infrastructure.NewLocalEventPublisher(), func() {}, nil
	}

	log.Infof("Connecting to NATS at %s...", cfg.NATSServers)
	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.EventStreamName, mapper.GetAllSubjects()); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	closer := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	return infrastructure.NewNATSEventPublisher(client, mapper), closer, nil
}

func newGateway(cfg *config.Config) (bot.Gateway, error) {
	switch cfg.ChatPlatform {
	case "discord":
		gateway, err := discord.New(cfg.DiscordToken)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Discord: %w", err)
		}
		return gateway, nil
	case "telegram", "":
		gateway, err := telegram.New(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Telegram: %w", err)
		}
		return gateway, nil
	default:
		return nil, fmt.Errorf("unknown chat platform: %s", cfg.ChatPlatform)
	}
}

func paymentAccounts(cfg *config.Config) []dto.PaymentAccount {
	var accounts []dto.PaymentAccount
	if cfg.KPayPhone != "" {
		accounts = append(accounts, dto.PaymentAccount{
			Method:      entities.PaymentMethodKPay,
			AccountName: cfg.KPayAccountName,
			Phone:       cfg.KPayPhone,
		})
	}
	if cfg.WavePayPhone != "" {
		accounts = append(accounts, dto.PaymentAccount{
			Method:      entities.PaymentMethodWavePay,
			AccountName: cfg.WavePayAccountName,
			Phone:       cfg.WavePayPhone,
		})
	}
	return accounts
}
