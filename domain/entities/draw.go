package entities

import "time"

// DrawStatus is the outcome of a daily draw run
type DrawStatus string

const (
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusNoSales   DrawStatus = "no_sales"
	// DrawStatusNoPrize is a draw with sales whose pool is too small to pay any winner
	DrawStatusNoPrize DrawStatus = "no_prize"
)

// Draw records one daily draw. There is at most one per draw date.
type Draw struct {
	ID             int64      `db:"id"`
	DrawDate       time.Time  `db:"draw_date"`
	TotalSales     int64      `db:"total_sales"`
	BuyerCount     int        `db:"buyer_count"`
	WinnerCount    int        `db:"winner_count"`
	Commission     int64      `db:"commission"`
	Donation       int64      `db:"donation"`
	PrizePool      int64      `db:"prize_pool"`
	PrizePerWinner int64      `db:"prize_per_winner"`
	Remainder      int64      `db:"remainder"`
	Status         DrawStatus `db:"status"`
	Seed           int64      `db:"seed"`
	CreatedAt      time.Time  `db:"created_at"`
}

// HasWinners reports whether prizes were paid
func (d *Draw) HasWinners() bool {
	return d.Status == DrawStatusCompleted && d.WinnerCount > 0
}

// PrizeType names the kind of prize a winner row represents
type PrizeType string

const PrizeTypeDailyDraw PrizeType = "daily_draw"

// Winner is an append-only record of a prize paid by a draw
type Winner struct {
	ID            int64     `db:"id"`
	DrawID        int64     `db:"draw_id"`
	UserID        int64     `db:"user_id"`
	TicketID      int64     `db:"ticket_id"`
	Amount        int64     `db:"amount"`
	WinDate       time.Time `db:"win_date"`
	PrizeType     PrizeType `db:"prize_type"`
	Status        string    `db:"status"`
	TransactionID string    `db:"transaction_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// PrizeSplit is the money breakdown of a draw before any winner is picked
type PrizeSplit struct {
	TotalSales     int64
	Commission     int64
	Donation       int64
	PrizePool      int64
	WinnerCount    int
	PrizePerWinner int64
	Remainder      int64
}

// DrawPreview is the running state of today's draw shown to users and admins
type DrawPreview struct {
	DrawDate    time.Time
	DrawTime    string
	TicketCount int64
	BuyerCount  int
	Split       PrizeSplit
	AlreadyRun  bool
}
