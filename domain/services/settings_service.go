package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var errSettingNotSet = fmt.Errorf("%w: not set", entities.ErrInvalidSetting)

// settingsService reads operational parameters from the settings table.
// Values missing from the table fall back to the defaults it was built with.
type settingsService struct {
	settingRepo    interfaces.SettingRepository
	staticAdminIDs []int64
	defaults       map[string]string
}

// NewSettingsService creates a settings service. staticAdminIDs are always admins,
// regardless of the admin_ids setting.
func NewSettingsService(settingRepo interfaces.SettingRepository, staticAdminIDs []int64, defaults map[string]string) interfaces.SettingsService {
	if defaults == nil {
		defaults = map[string]string{}
	}
	return &settingsService{
		settingRepo:    settingRepo,
		staticAdminIDs: staticAdminIDs,
		defaults:       defaults,
	}
}

// Get returns the stored value, the default, or ErrInvalidSetting for unknown keys
func (s *settingsService) Get(ctx context.Context, key string) (string, error) {
	setting, err := s.settingRepo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if setting != nil {
		return setting.Value, nil
	}
	if value, ok := s.defaults[key]; ok {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", errSettingNotSet, key)
}

// Set validates and stores a value on behalf of an admin
func (s *settingsService) Set(ctx context.Context, key, value string, adminID int64) error {
	normalized, err := ValidateSetting(key, value)
	if err != nil {
		return err
	}
	if err := s.settingRepo.Set(ctx, key, normalized, &adminID); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	log.WithFields(log.Fields{
		"key":     key,
		"value":   normalized,
		"adminID": adminID,
	}).Info("Setting updated")
	return nil
}

// All returns defaults overlaid with stored values
func (s *settingsService) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	result := make(map[string]string, len(s.defaults)+len(stored))
	for k, v := range s.defaults {
		result[k] = v
	}
	for _, setting := range stored {
		result[setting.Key] = setting.Value
	}
	return result, nil
}

// SeedDefaults writes each default that is not stored yet
func (s *settingsService) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for key, value := range defaults {
		normalized, err := ValidateSetting(key, value)
		if err != nil {
			return fmt.Errorf("invalid default for %s: %w", key, err)
		}
		if err := s.settingRepo.SetIfAbsent(ctx, key, normalized); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

func (s *settingsService) int64Setting(ctx context.Context, key string) (int64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", entities.ErrInvalidSetting, key, raw)
	}
	return value, nil
}

func (s *settingsService) TicketPrice(ctx context.Context) (int64, error) {
	return s.int64Setting(ctx, entities.SettingTicketPrice)
}

func (s *settingsService) DrawTime(ctx context.Context) (int, int, error) {
	raw, err := s.Get(ctx, entities.SettingDrawTime)
	if err != nil {
		return 0, 0, err
	}
	return utils.ParseDrawTime(raw)
}

func (s *settingsService) CommissionRate(ctx context.Context) (string, error) {
	return s.Get(ctx, entities.SettingCommissionRate)
}

func (s *settingsService) DonationRate(ctx context.Context) (string, error) {
	return s.Get(ctx, entities.SettingDonationRate)
}

func (s *settingsService) MinDeposit(ctx context.Context) (int64, error) {
	return s.int64Setting(ctx, entities.SettingMinDeposit)
}

func (s *settingsService) MinWithdrawal(ctx context.Context) (int64, error) {
	return s.int64Setting(ctx, entities.SettingMinWithdrawal)
}

func (s *settingsService) MaxWinners(ctx context.Context) (int, error) {
	v, err := s.int64Setting(ctx, entities.SettingMaxWinners)
	return int(v), err
}

func (s *settingsService) BuyersPerWinner(ctx context.Context) (int, error) {
	v, err := s.int64Setting(ctx, entities.SettingBuyersPerWinner)
	return int(v), err
}

// AdminIDs returns the static admins plus those stored in the admin_ids setting
func (s *settingsService) AdminIDs(ctx context.Context) ([]int64, error) {
	ids := append([]int64{}, s.staticAdminIDs...)

	raw, err := s.Get(ctx, entities.SettingAdminIDs)
	if err != nil {
		if errors.Is(err, errSettingNotSet) {
			return ids, nil
		}
		return nil, err
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// IsAdmin reports whether userID may decide requests and change settings
func (s *settingsService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	ids, err := s.AdminIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// ValidateSetting checks a value for key and returns its canonical form
func ValidateSetting(key, value string) (string, error) {
	value = strings.TrimSpace(value)

	switch key {
	case entities.SettingTicketPrice, entities.SettingMinDeposit, entities.SettingMinWithdrawal,
		entities.SettingMaxWinners, entities.SettingBuyersPerWinner:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("%w: %s must be a positive integer", entities.ErrInvalidSetting, key)
		}
		return strconv.FormatInt(n, 10), nil

	case entities.SettingCommissionRate, entities.SettingDonationRate:
		rate, err := decimal.NewFromString(value)
		if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return "", fmt.Errorf("%w: %s must be a rate between 0 and 1", entities.ErrInvalidSetting, key)
		}
		return rate.String(), nil

	case entities.SettingDrawTime:
		h, m, err := utils.ParseDrawTime(value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", entities.ErrInvalidSetting, err)
		}
		return fmt.Sprintf("%02d:%02d", h, m), nil

	case entities.SettingAdminIDs:
		var ids []string
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, err := strconv.ParseInt(part, 10, 64); err != nil {
				return "", fmt.Errorf("%w: admin_ids must be comma-separated ids", entities.ErrInvalidSetting)
			}
			ids = append(ids, part)
		}
		return strings.Join(ids, ","), nil
	}

	return "", fmt.Errorf("%w: unknown key %s", entities.ErrInvalidSetting, key)
}
