package services

import (
	"context"
	"fmt"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/utils"

	log "github.com/sirupsen/logrus"
)

// maxDrawDateRollover bounds how many settled dates a purchase may skip
const maxDrawDateRollover = 7

// ticketService sells daily draw tickets
type ticketService struct {
	ticketRepo     interfaces.TicketRepository
	drawRepo       interfaces.DrawRepository
	userRepo       interfaces.UserRepository
	ledger         interfaces.LedgerService
	settings       interfaces.SettingsService
	eventPublisher interfaces.EventPublisher
	location       *time.Location
	now            interfaces.Clock
}

// NewTicketService creates a new ticket service. location is the draw timezone.
func NewTicketService(
	ticketRepo interfaces.TicketRepository,
	drawRepo interfaces.DrawRepository,
	userRepo interfaces.UserRepository,
	ledger interfaces.LedgerService,
	settings interfaces.SettingsService,
	eventPublisher interfaces.EventPublisher,
	location *time.Location,
) interfaces.TicketService {
	if location == nil {
		location = time.UTC
	}
	return &ticketService{
		ticketRepo:     ticketRepo,
		drawRepo:       drawRepo,
		userRepo:       userRepo,
		ledger:         ledger,
		settings:       settings,
		eventPublisher: eventPublisher,
		location:       location,
		now:            time.Now,
	}
}

// DrawDateFor returns the draw a purchase made at `at` takes part in. A date whose draw
// has already run (the draw time was moved later after it) rolls over to the next day.
func (s *ticketService) DrawDateFor(ctx context.Context, at time.Time) (time.Time, error) {
	return s.openDrawDate(ctx, at, false)
}

// openDrawDate finds the first draw date at or after the scheduled one that has no draw
// row. With lock set, each candidate date is locked first and stays locked until the
// transaction ends, so the draw for the returned date cannot start before the purchase
// commits.
func (s *ticketService) openDrawDate(ctx context.Context, at time.Time, lock bool) (time.Time, error) {
	hour, minute, err := s.settings.DrawTime(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get draw time: %w", err)
	}
	drawDate := utils.DrawDateFor(at, s.location, hour, minute)

	for i := 0; i < maxDrawDateRollover; i++ {
		if lock {
			if err := s.drawRepo.LockDate(ctx, drawDate); err != nil {
				return time.Time{}, err
			}
		}
		draw, err := s.drawRepo.GetByDate(ctx, drawDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to check draw: %w", err)
		}
		if draw == nil {
			return drawDate, nil
		}
		drawDate = drawDate.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("%w: no open draw within %d days", entities.ErrAlreadyDrawn, maxDrawDateRollover)
}

func validateTicketCount(count int) error {
	if count < 1 || count > entities.MaxTicketsPerPurchase {
		return fmt.Errorf("%w: ticket count must be between 1 and %d", entities.ErrInvalidAmount, entities.MaxTicketsPerPurchase)
	}
	return nil
}

// Quote prices a purchase without changing anything
func (s *ticketService) Quote(ctx context.Context, userID int64, count int) (*entities.TicketQuote, error) {
	if err := validateTicketCount(count); err != nil {
		return nil, err
	}

	price, err := s.settings.TicketPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket price: %w", err)
	}
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	drawDate, err := s.DrawDateFor(ctx, s.now())
	if err != nil {
		return nil, err
	}

	total := price * int64(count)
	return &entities.TicketQuote{
		Count:      count,
		UnitPrice:  price,
		Total:      total,
		Balance:    balance,
		Affordable: balance >= total,
		DrawDate:   drawDate,
	}, nil
}

// BuyTickets debits count*price and issues the tickets. The draw date is locked before the
// user row, the same order the draw takes them in, and the user row is locked so ticket
// numbers stay unique per user.
func (s *ticketService) BuyTickets(ctx context.Context, userID int64, count int) (*interfaces.TicketPurchaseResult, error) {
	if err := validateTicketCount(count); err != nil {
		return nil, err
	}

	purchasedAt := s.now()
	drawDate, err := s.openDrawDate(ctx, purchasedAt, true)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}
	if !user.IsRegistered() {
		return nil, entities.ErrUserNotRegistered
	}
	if !user.IsActive() {
		return nil, entities.ErrNotAuthorized
	}

	price, err := s.settings.TicketPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket price: %w", err)
	}
	total := price * int64(count)

	tx, err := s.ledger.Post(ctx, interfaces.LedgerEntry{
		UserID:      userID,
		Type:        entities.TransactionTypeTicketPurchase,
		Amount:      -total,
		Status:      entities.TransactionStatusCompleted,
		Description: fmt.Sprintf("%d ticket(s) for the %s draw", count, utils.FormatDate(drawDate)),
		Metadata: map[string]any{
			"count":      count,
			"unit_price": price,
			"draw_date":  utils.FormatDate(drawDate),
		},
	})
	if err != nil {
		if isInsufficientBalance(err) {
			log.WithFields(log.Fields{
				"userID": userID,
				"count":  count,
				"total":  total,
			}).Info("Ticket purchase refused for insufficient balance")
		}
		return nil, err
	}

	if err := s.userRepo.IncrementCounters(ctx, userID, total, 0, int64(count)); err != nil {
		return nil, fmt.Errorf("failed to update user counters: %w", err)
	}

	tickets := make([]*entities.Ticket, 0, count)
	for i := 0; i < count; i++ {
		tickets = append(tickets, &entities.Ticket{
			UserID:        userID,
			TicketNumber:  entities.TicketNumber(purchasedAt, userID, int(user.TicketsBought)+i+1),
			Amount:        price,
			PurchaseDate:  purchasedAt,
			DrawDate:      drawDate,
			Status:        entities.TicketStatusActive,
			TransactionID: tx.TransactionID,
		})
	}
	if err := s.ticketRepo.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":        userID,
		"count":         count,
		"total":         total,
		"drawDate":      utils.FormatDate(drawDate),
		"transactionID": tx.TransactionID,
		"balanceAfter":  tx.BalanceAfter,
	}).Info("Tickets purchased")

	event := events.TicketsPurchasedEvent{
		UserID:        userID,
		Count:         count,
		Total:         total,
		DrawDate:      utils.FormatDate(drawDate),
		TransactionID: tx.TransactionID,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish tickets purchased event")
	}

	return &interfaces.TicketPurchaseResult{
		Tickets:     tickets,
		Transaction: tx,
		Total:       total,
		NewBalance:  tx.BalanceAfter,
		DrawDate:    drawDate,
	}, nil
}

// UserTickets lists the user's tickets for a draw date
func (s *ticketService) UserTickets(ctx context.Context, userID int64, drawDate time.Time) ([]*entities.Ticket, error) {
	tickets, err := s.ticketRepo.ListByUserAndDrawDate(ctx, userID, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}
