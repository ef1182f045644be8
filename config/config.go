package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"luckydraw/database"
)

// Config holds all application configuration
type Config struct {
	// Chat platform configuration
	ChatPlatform  string // "telegram" or "discord"
	TelegramToken string
	DiscordToken  string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Admins and broadcast destinations
	AdminIDs            []int64
	AnnouncementChannel string
	PaymentLogChannel   string

	// Manual payment accounts shown to users
	KPayAccountName    string
	KPayPhone          string
	WavePayAccountName string
	WavePayPhone       string

	// Lottery defaults, seeded into the settings table on first start
	TicketPrice    int64
	DailyDrawTime  string // HH:MM in DrawTimezone
	DrawTimezone   string
	CommissionRate string
	DonationRate   string
	MinDeposit     int64
	MinWithdrawal  int64

	// HTTP API
	HTTPPort       int
	AdminJWTSecret string

	// NATS configuration
	NATSServers string // empty disables event publishing

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from the environment, after applying an optional .env file
func load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		ChatPlatform:  getEnvWithDefault("CHAT_PLATFORM", "telegram"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		DiscordToken:  os.Getenv("DISCORD_TOKEN"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		AnnouncementChannel: getEnvWithDefault("ANNOUNCEMENT_CHANNEL", "@luckydrawmyanmarofficial"),
		PaymentLogChannel:   os.Getenv("PAYMENT_LOG_CHANNEL"),

		KPayAccountName:    getEnvWithDefault("KPAY_ACCOUNT_NAME", "AUNG THU HTWE"),
		KPayPhone:          getEnvWithDefault("KPAY_PHONE", "09789999368"),
		WavePayAccountName: getEnvWithDefault("WAVEPAY_ACCOUNT_NAME", "AUNG THU HTWE"),
		WavePayPhone:       getEnvWithDefault("WAVEPAY_PHONE", "09789999368"),

		TicketPrice:    getEnvInt64("TICKET_PRICE", 100),
		DailyDrawTime:  getEnvWithDefault("DAILY_DRAW_TIME", "18:00"),
		DrawTimezone:   getEnvWithDefault("DRAW_TIMEZONE", "Asia/Yangon"),
		CommissionRate: getEnvWithDefault("COMMISSION_RATE", "0.20"),
		DonationRate:   getEnvWithDefault("DONATION_RATE", "0.05"),
		MinDeposit:     getEnvInt64("MIN_DEPOSIT", 1000),
		MinWithdrawal:  getEnvInt64("MIN_WITHDRAWAL", 1000),

		HTTPPort:       int(getEnvInt64("HTTP_PORT", 8080)),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "luckydraw"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: int(getEnvInt64("OTEL_EXPORT_INTERVAL_MS", 30000)),

		Environment: os.Getenv("ENVIRONMENT"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
	}

	config.AdminIDs = ParseIDList(os.Getenv("ADMIN_IDS"))

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		switch config.ChatPlatform {
		case "telegram":
			if config.TelegramToken == "" {
				return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
			}
		case "discord":
			if config.DiscordToken == "" {
				return nil, fmt.Errorf("DISCORD_TOKEN is required")
			}
		default:
			return nil, fmt.Errorf("unknown CHAT_PLATFORM: %s", config.ChatPlatform)
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// ParseIDList parses a comma-separated list of numeric ids, skipping malformed entries
func ParseIDList(raw string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		ChatPlatform:        "telegram",
		Environment:         "test",
		AdminIDs:            []int64{999999, 999991},
		AnnouncementChannel: "@test_announcements",
		KPayAccountName:     "TEST KPAY",
		KPayPhone:           "09111111111",
		WavePayAccountName:  "TEST WAVE",
		WavePayPhone:        "09222222222",
		TicketPrice:         1000,
		DailyDrawTime:       "18:00",
		DrawTimezone:        "Asia/Yangon",
		CommissionRate:      "0.20",
		DonationRate:        "0.05",
		MinDeposit:          1000,
		MinWithdrawal:       1000,
		HTTPPort:            8080,
		AdminJWTSecret:      "test-secret",
		OTelExporterType:    "none",
		LogLevel:            "debug",
	}
}
