package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string // postgres DSN, or a SQLite file path / file: URI
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	StartingBalance decimal.Decimal // STARTING_BALANCE credited on registration
	HistoryCapacity int             // HISTORY_CAPACITY valuation samples kept per account

	MarketProvider  string        // MARKET_PROVIDER: yahoo | alpaca
	YahooBaseURL    string        // YAHOO_BASE_URL, overridable for tests and mirrors
	AlpacaAPIKey    string
	AlpacaAPISecret string
	AlpacaDataURL   string
	QuoteCacheTTL   time.Duration // QUOTE_CACHE_TTL for quote snapshots
	HistoryCacheTTL time.Duration // HISTORY_CACHE_TTL; 0 keeps bars for the process lifetime

	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SendinblueAPIKey string // SENDINBLUE_API_KEY, used when SMTP_HOST is empty (Brevo)
	MailFrom         string

	AlertPollInterval time.Duration
	LiveTickInterval  time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "traderiser.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("STARTING_BALANCE", "10000")
	viper.SetDefault("HISTORY_CAPACITY", 50)
	viper.SetDefault("MARKET_PROVIDER", "yahoo")
	viper.SetDefault("YAHOO_BASE_URL", "https://query2.finance.yahoo.com")
	viper.SetDefault("QUOTE_CACHE_TTL", "15s")
	viper.SetDefault("HISTORY_CACHE_TTL", "0s")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("MAIL_FROM", "noreply@traderiser.app")
	viper.SetDefault("ALERT_POLL_INTERVAL", "30s")
	viper.SetDefault("LIVE_TICK_INTERVAL", "1s")

	balance, err := decimal.NewFromString(viper.GetString("STARTING_BALANCE"))
	if err != nil {
		return nil, fmt.Errorf("STARTING_BALANCE: %w", err)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("STARTING_BALANCE must not be negative")
	}

	provider := strings.ToLower(strings.TrimSpace(viper.GetString("MARKET_PROVIDER")))
	if provider != "yahoo" && provider != "alpaca" {
		return nil, fmt.Errorf("MARKET_PROVIDER must be yahoo or alpaca, got %q", provider)
	}

	capacity := viper.GetInt("HISTORY_CAPACITY")
	if capacity <= 0 {
		capacity = 50
	}

	return &Config{
		Env:                 viper.GetString("APP_ENV"),
		Port:                viper.GetString("PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		StartingBalance:     balance,
		HistoryCapacity:     capacity,
		MarketProvider:      provider,
		YahooBaseURL:        strings.TrimRight(viper.GetString("YAHOO_BASE_URL"), "/"),
		AlpacaAPIKey:        viper.GetString("ALPACA_API_KEY"),
		AlpacaAPISecret:     viper.GetString("ALPACA_API_SECRET"),
		AlpacaDataURL:       viper.GetString("ALPACA_DATA_URL"),
		QuoteCacheTTL:       viper.GetDuration("QUOTE_CACHE_TTL"),
		HistoryCacheTTL:     viper.GetDuration("HISTORY_CACHE_TTL"),
		SMTPHost:            viper.GetString("SMTP_HOST"),
		SMTPPort:            viper.GetInt("SMTP_PORT"),
		SMTPUsername:        viper.GetString("SMTP_USERNAME"),
		SMTPPassword:        viper.GetString("SMTP_PASSWORD"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		AlertPollInterval:   viper.GetDuration("ALERT_POLL_INTERVAL"),
		LiveTickInterval:    viper.GetDuration("LIVE_TICK_INTERVAL"),
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
