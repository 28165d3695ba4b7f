package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "yahoo", cfg.MarketProvider)
	assert.Equal(t, "10000", cfg.StartingBalance.String())
	assert.Equal(t, 50, cfg.HistoryCapacity)
	assert.Equal(t, 15*time.Second, cfg.QuoteCacheTTL)
	assert.Equal(t, time.Duration(0), cfg.HistoryCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.AlertPollInterval)
	assert.Equal(t, time.Second, cfg.LiveTickInterval)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("MARKET_PROVIDER", "Alpaca")
	t.Setenv("STARTING_BALANCE", "2500.50")
	t.Setenv("QUOTE_CACHE_TTL", "90s")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "alpaca", cfg.MarketProvider)
	assert.Equal(t, "2500.5", cfg.StartingBalance.String())
	assert.Equal(t, 90*time.Second, cfg.QuoteCacheTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	viper.Reset()
	t.Setenv("MARKET_PROVIDER", "bloomberg")
	_, err := Load()
	assert.Error(t, err)
}
