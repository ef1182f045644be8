package entities

import "time"

// UserStatus is a soft lifecycle flag; users are never deleted
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"
)

// User is a chat-platform user together with their wallet balance
type User struct {
	ID            int64      `db:"id"`
	Username      string     `db:"username"`
	DisplayName   string     `db:"display_name"`
	Phone         *string    `db:"phone"`
	Balance       int64      `db:"balance"`
	TotalSpent    int64      `db:"total_spent"`
	TotalWon      int64      `db:"total_won"`
	TicketsBought int64      `db:"tickets_bought"`
	Status        UserStatus `db:"status"`
	RegisteredAt  *time.Time `db:"registered_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// IsRegistered reports whether the user completed registration (phone on file)
func (u *User) IsRegistered() bool {
	return u.RegisteredAt != nil && u.Phone != nil && *u.Phone != ""
}

// IsActive reports whether the user may use ledger-affecting commands
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// CanAfford checks if the balance covers amount
func (u *User) CanAfford(amount int64) bool {
	return u.Balance >= amount
}

// Name returns the best human-readable name for the user
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "user"
}

// UserStats is an aggregate view used by the admin panel
type UserStats struct {
	TotalUsers        int64
	RegisteredUsers   int64
	TotalBalance      int64
	PendingDeposits   int64
	PendingWithdraws  int64
	PendingAds        int64
	TicketsToday      int64
	SalesToday        int64
	TotalPrizesPaid   int64
	TotalDepositsDone int64
}
