package application

import (
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata"

	"luckydraw/config"
	"luckydraw/domain/entities"
)

// Options carries the process-wide parameters every application service needs
type Options struct {
	// AdminIDs are admins from configuration, always authorized
	AdminIDs []int64
	// Defaults are setting values used when the settings table has no row
	Defaults map[string]string
	// Location is the draw timezone
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// OptionsFromConfig builds the options and the setting defaults from configuration
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := time.LoadLocation(cfg.DrawTimezone)
	if err != nil {
		return Options{}, fmt.Errorf("failed to load draw timezone %q: %w", cfg.DrawTimezone, err)
	}

	return Options{
		AdminIDs: cfg.AdminIDs,
		Location: loc,
		Defaults: map[string]string{
			entities.SettingTicketPrice:     strconv.FormatInt(cfg.TicketPrice, 10),
			entities.SettingDrawTime:        cfg.DailyDrawTime,
			entities.SettingCommissionRate:  cfg.CommissionRate,
			entities.SettingDonationRate:    cfg.DonationRate,
			entities.SettingMinDeposit:      strconv.FormatInt(cfg.MinDeposit, 10),
			entities.SettingMinWithdrawal:   strconv.FormatInt(cfg.MinWithdrawal, 10),
			entities.SettingMaxWinners:      "10",
			entities.SettingBuyersPerWinner: "10",
		},
	}, nil
}
