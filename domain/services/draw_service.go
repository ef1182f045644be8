package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// seeded is implemented by random sources that can report their seed
type seeded interface {
	Seed() int64
}

// drawService settles the daily draw
type drawService struct {
	drawRepo       interfaces.DrawRepository
	winnerRepo     interfaces.WinnerRepository
	ticketRepo     interfaces.TicketRepository
	userRepo       interfaces.UserRepository
	ledger         interfaces.LedgerService
	settings       interfaces.SettingsService
	eventPublisher interfaces.EventPublisher
}

// NewDrawService creates a new draw service
func NewDrawService(
	drawRepo interfaces.DrawRepository,
	winnerRepo interfaces.WinnerRepository,
	ticketRepo interfaces.TicketRepository,
	userRepo interfaces.UserRepository,
	ledger interfaces.LedgerService,
	settings interfaces.SettingsService,
	eventPublisher interfaces.EventPublisher,
) interfaces.DrawService {
	return &drawService{
		drawRepo:       drawRepo,
		winnerRepo:     winnerRepo,
		ticketRepo:     ticketRepo,
		userRepo:       userRepo,
		ledger:         ledger,
		settings:       settings,
		eventPublisher: eventPublisher,
	}
}

// drawParams are the settings a draw is computed from
type drawParams struct {
	commissionRate  string
	donationRate    string
	maxWinners      int
	buyersPerWinner int
}

func (s *drawService) loadParams(ctx context.Context) (*drawParams, error) {
	commission, err := s.settings.CommissionRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission rate: %w", err)
	}
	donation, err := s.settings.DonationRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get donation rate: %w", err)
	}
	maxWinners, err := s.settings.MaxWinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get max winners: %w", err)
	}
	perWinner, err := s.settings.BuyersPerWinner(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyers per winner: %w", err)
	}
	return &drawParams{
		commissionRate:  commission,
		donationRate:    donation,
		maxWinners:      maxWinners,
		buyersPerWinner: perWinner,
	}, nil
}

// WinnerCount returns max(1, min(maxWinners, buyers/buyersPerWinner)), or 0 without buyers
func WinnerCount(buyers, maxWinners, buyersPerWinner int) int {
	if buyers <= 0 {
		return 0
	}
	if buyersPerWinner <= 0 {
		buyersPerWinner = 1
	}
	n := buyers / buyersPerWinner
	if maxWinners > 0 && n > maxWinners {
		n = maxWinners
	}
	if n < 1 {
		n = 1
	}
	if n > buyers {
		n = buyers
	}
	return n
}

// CalculatePrizeSplit splits the day's sales into commission, donation and prize pool.
// Commission and donation are rounded down; the undivided part of the pool stays with the house.
func CalculatePrizeSplit(totalSales int64, buyers int, commissionRate, donationRate string, maxWinners, buyersPerWinner int) (entities.PrizeSplit, error) {
	commissionDec, err := decimal.NewFromString(commissionRate)
	if err != nil {
		return entities.PrizeSplit{}, fmt.Errorf("%w: commission rate %q", entities.ErrInvalidSetting, commissionRate)
	}
	donationDec, err := decimal.NewFromString(donationRate)
	if err != nil {
		return entities.PrizeSplit{}, fmt.Errorf("%w: donation rate %q", entities.ErrInvalidSetting, donationRate)
	}

	sales := decimal.NewFromInt(totalSales)
	commission := sales.Mul(commissionDec).Floor()
	donation := commission.Mul(donationDec).Floor()
	pool := sales.Sub(commission).Sub(donation)
	if pool.IsNegative() {
		// the donation is taken from the commission and never exceeds what sales leave
		donation = sales.Sub(commission)
		pool = decimal.Zero
	}

	split := entities.PrizeSplit{
		TotalSales:  totalSales,
		Commission:  commission.IntPart(),
		Donation:    donation.IntPart(),
		PrizePool:   pool.IntPart(),
		WinnerCount: WinnerCount(buyers, maxWinners, buyersPerWinner),
	}
	if split.WinnerCount > 0 {
		split.PrizePerWinner = split.PrizePool / int64(split.WinnerCount)
		split.Remainder = split.PrizePool - split.PrizePerWinner*int64(split.WinnerCount)
	}
	return split, nil
}

// selectWinners draws n buyers without replacement. Buyers are ordered by user id first
// so the same seed always picks the same users.
func selectWinners(buyers []*entities.TicketBuyer, n int, rng interfaces.RandomSource) []*entities.TicketBuyer {
	pool := make([]*entities.TicketBuyer, len(buyers))
	copy(pool, buyers)
	sort.Slice(pool, func(i, j int) bool { return pool[i].UserID < pool[j].UserID })

	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// RunDraw settles the draw for drawDate. The date is locked before the day's sales are
// read, which waits out in-flight purchases for it. The draw row is inserted before any
// money moves so a second run for the same date fails with ErrAlreadyDrawn.
func (s *drawService) RunDraw(ctx context.Context, drawDate time.Time, rng interfaces.RandomSource) (*interfaces.DrawResult, error) {
	if rng == nil {
		rng = NewRandomSource()
	}

	if err := s.drawRepo.LockDate(ctx, drawDate); err != nil {
		return nil, err
	}

	totalSales, _, err := s.ticketRepo.SumSalesForDrawDate(ctx, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}
	buyers, err := s.ticketRepo.GetBuyersForDrawDate(ctx, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyers: %w", err)
	}
	params, err := s.loadParams(ctx)
	if err != nil {
		return nil, err
	}

	split, err := CalculatePrizeSplit(totalSales, len(buyers), params.commissionRate, params.donationRate, params.maxWinners, params.buyersPerWinner)
	if err != nil {
		return nil, err
	}

	draw := &entities.Draw{
		DrawDate:       drawDate,
		TotalSales:     split.TotalSales,
		BuyerCount:     len(buyers),
		WinnerCount:    split.WinnerCount,
		Commission:     split.Commission,
		Donation:       split.Donation,
		PrizePool:      split.PrizePool,
		PrizePerWinner: split.PrizePerWinner,
		Remainder:      split.Remainder,
		Status:         entities.DrawStatusCompleted,
	}
	if sr, ok := rng.(seeded); ok {
		draw.Seed = sr.Seed()
	}
	switch {
	case totalSales == 0 || len(buyers) == 0:
		draw.Status = entities.DrawStatusNoSales
	case split.PrizePerWinner == 0:
		draw.Status = entities.DrawStatusNoPrize
	}
	if draw.Status != entities.DrawStatusCompleted {
		draw.WinnerCount = 0
		draw.PrizePerWinner = 0
		draw.Remainder = split.PrizePool
	}

	if err := s.drawRepo.Create(ctx, draw); err != nil {
		if errors.Is(err, entities.ErrAlreadyDrawn) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create draw: %w", err)
	}

	result := &interfaces.DrawResult{Draw: draw}
	if draw.Status != entities.DrawStatusCompleted {
		log.WithFields(log.Fields{
			"drawID":     draw.ID,
			"drawDate":   utils.FormatDate(drawDate),
			"status":     draw.Status,
			"totalSales": draw.TotalSales,
			"prizePool":  draw.PrizePool,
		}).Info("Draw closed without winners")
		s.publishCompleted(draw, nil)
		return result, nil
	}

	for _, buyer := range selectWinners(buyers, draw.WinnerCount, rng) {
		tx, err := s.ledger.Post(ctx, interfaces.LedgerEntry{
			UserID:      buyer.UserID,
			Type:        entities.TransactionTypePrize,
			Amount:      draw.PrizePerWinner,
			Status:      entities.TransactionStatusCompleted,
			Description: fmt.Sprintf("Prize for the %s draw", utils.FormatDate(drawDate)),
			Metadata: map[string]any{
				"draw_id":   draw.ID,
				"ticket_id": buyer.FirstTicketID,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to credit prize to user %d: %w", buyer.UserID, err)
		}

		if err := s.userRepo.IncrementCounters(ctx, buyer.UserID, 0, draw.PrizePerWinner, 0); err != nil {
			return nil, fmt.Errorf("failed to update winner counters: %w", err)
		}

		winner := &entities.Winner{
			DrawID:        draw.ID,
			UserID:        buyer.UserID,
			TicketID:      buyer.FirstTicketID,
			Amount:        draw.PrizePerWinner,
			WinDate:       drawDate,
			PrizeType:     entities.PrizeTypeDailyDraw,
			Status:        "credited",
			TransactionID: tx.TransactionID,
		}
		if err := s.winnerRepo.Create(ctx, winner); err != nil {
			return nil, fmt.Errorf("failed to record winner: %w", err)
		}
		result.Winners = append(result.Winners, winner)
	}

	log.WithFields(log.Fields{
		"drawID":         draw.ID,
		"drawDate":       utils.FormatDate(drawDate),
		"totalSales":     draw.TotalSales,
		"buyers":         draw.BuyerCount,
		"winners":        len(result.Winners),
		"prizePerWinner": draw.PrizePerWinner,
		"remainder":      draw.Remainder,
		"seed":           draw.Seed,
	}).Info("Draw completed")

	s.publishCompleted(draw, result.Winners)
	return result, nil
}

func (s *drawService) publishCompleted(draw *entities.Draw, winners []*entities.Winner) {
	winnerIDs := make([]int64, 0, len(winners))
	for _, w := range winners {
		winnerIDs = append(winnerIDs, w.UserID)
	}
	event := events.DrawCompletedEvent{
		DrawID:      draw.ID,
		DrawDate:    utils.FormatDate(draw.DrawDate),
		Status:      draw.Status,
		TotalSales:  draw.TotalSales,
		PrizePool:   draw.PrizePool,
		WinnerIDs:   winnerIDs,
		PrizeAmount: draw.PrizePerWinner,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish draw completed event")
	}
}

// Preview returns the running totals for a draw date
func (s *drawService) Preview(ctx context.Context, drawDate time.Time) (*entities.DrawPreview, error) {
	totalSales, ticketCount, err := s.ticketRepo.SumSalesForDrawDate(ctx, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}
	buyers, err := s.ticketRepo.GetBuyersForDrawDate(ctx, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyers: %w", err)
	}
	params, err := s.loadParams(ctx)
	if err != nil {
		return nil, err
	}
	hour, minute, err := s.settings.DrawTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw time: %w", err)
	}

	split, err := CalculatePrizeSplit(totalSales, len(buyers), params.commissionRate, params.donationRate, params.maxWinners, params.buyersPerWinner)
	if err != nil {
		return nil, err
	}

	existing, err := s.drawRepo.GetByDate(ctx, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}

	return &entities.DrawPreview{
		DrawDate:    drawDate,
		DrawTime:    fmt.Sprintf("%02d:%02d", hour, minute),
		TicketCount: ticketCount,
		BuyerCount:  len(buyers),
		Split:       split,
		AlreadyRun:  existing != nil,
	}, nil
}

// GetDraw returns the draw for a date, or nil when it has not run
func (s *drawService) GetDraw(ctx context.Context, drawDate time.Time) (*entities.Draw, error) {
	draw, err := s.drawRepo.GetByDate(ctx, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	return draw, nil
}
