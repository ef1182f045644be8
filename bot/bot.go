package bot

import (
	"context"
	"fmt"
	"time"

	"luckydraw/application/dto"

	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Workers  int
	Accounts []dto.PaymentAccount
}

// Bot ties the gateway, the router and the worker pool together
type Bot struct {
	config     Config
	gateway    Gateway
	router     *Router
	dispatcher *Dispatcher
}

// New creates a new bot instance
func New(config Config, gateway Gateway, wallet Wallet, admin Admin) *Bot {
	router := NewRouter(gateway, wallet, admin, config.Accounts)
	return &Bot{
		config:     config,
		gateway:    gateway,
		router:     router,
		dispatcher: NewDispatcher(config.Workers, router.HandleUpdate),
	}
}

// Router returns the bot's router
func (b *Bot) Router() *Router {
	return b.router
}

// Run receives and handles updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	updates, err := b.gateway.Updates(ctx)
	if err != nil {
		return fmt.Errorf("failed to start receiving updates: %w", err)
	}

	stopCleanup := b.StartSessionCleanupWorker(ctx)
	defer stopCleanup()

	log.Info("Bot is receiving updates")
	b.dispatcher.Run(ctx, updates)
	return nil
}

// Close gracefully shuts down the gateway
func (b *Bot) Close() error {
	return b.gateway.Close()
}

// StartSessionCleanupWorker drops expired wizard sessions every minute.
// Returns a cleanup function to stop the worker gracefully
func (b *Bot) StartSessionCleanupWorker(ctx context.Context) func() {
	ticker := time.NewTicker(1 * time.Minute)
	stopChan := make(chan struct{})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopChan:
				return
			case <-ticker.C:
				if removed := b.router.Sessions().Cleanup(); removed > 0 {
					log.Debugf("Removed %d expired sessions", removed)
				}
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}
