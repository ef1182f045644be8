package entities

import "time"

// Setting keys
const (
	SettingTicketPrice     = "ticket_price"
	SettingDrawTime        = "draw_time"
	SettingCommissionRate  = "commission_rate"
	SettingDonationRate    = "donation_rate"
	SettingMinDeposit      = "min_deposit"
	SettingMinWithdrawal   = "min_withdrawal"
	SettingMaxWinners      = "max_winners"
	SettingBuyersPerWinner = "buyers_per_winner"
	SettingAdminIDs        = "admin_ids"
)

// Setting is one operational parameter
type Setting struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedBy *int64    `db:"updated_by"`
	UpdatedAt time.Time `db:"updated_at"`
}

// KnownSettingKeys lists every key an admin may write
var KnownSettingKeys = []string{
	SettingTicketPrice,
	SettingDrawTime,
	SettingCommissionRate,
	SettingDonationRate,
	SettingMinDeposit,
	SettingMinWithdrawal,
	SettingMaxWinners,
	SettingBuyersPerWinner,
	SettingAdminIDs,
}
