package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the bridge processes. It is
// loaded once at startup and never mutated afterwards; components receive the
// values they need at construction time.
type Config struct {
	Port        string
	PostgresDSN string

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	ShopifyShopDomain    string
	ShopifyAccessToken   string
	ShopifyWebhookSecret string
	ShopifyLocationID    int64

	BunjangBaseURL     string
	BunjangAccessToken string

	BalanceCriticalBelow decimal.Decimal
	BalanceLowBelow      decimal.Decimal

	LowStockThreshold int
	FullSyncCap       int
	ThrottleEvery     int
	ThrottlePause     time.Duration

	StatusWindowDays int
	StatusPageSize   int
}

// LoadConfig reads environment variables, applies defaults, and validates
// basic constraints. A .env file in the working directory is honored when
// present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                 envDefault("PORT", "8080"),
		PostgresDSN:          strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:      envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:    envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:     isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		ShopifyShopDomain:    strings.TrimSpace(os.Getenv("SHOPIFY_SHOP_DOMAIN")),
		ShopifyAccessToken:   strings.TrimSpace(os.Getenv("SHOPIFY_ACCESS_TOKEN")),
		ShopifyWebhookSecret: strings.TrimSpace(os.Getenv("SHOPIFY_WEBHOOK_SECRET")),
		BunjangBaseURL:       envDefault("BUNJANG_BASE_URL", "https://openapi.bunjang.co.kr"),
		BunjangAccessToken:   strings.TrimSpace(os.Getenv("BUNJANG_ACCESS_TOKEN")),
		BalanceLowBelow:      decimal.NewFromInt(1_000_000),
		BalanceCriticalBelow: decimal.NewFromInt(500_000),
		LowStockThreshold:    5,
		FullSyncCap:          1000,
		ThrottleEvery:        10,
		ThrottlePause:        time.Second,
		StatusWindowDays:     15,
		StatusPageSize:       100,
	}

	var err error
	if cfg.ShopifyLocationID, err = envInt64("SHOPIFY_LOCATION_ID"); err != nil {
		return Config{}, err
	}
	if err := overrideDecimal(&cfg.BalanceCriticalBelow, "BALANCE_CRITICAL_BELOW"); err != nil {
		return Config{}, err
	}
	if err := overrideDecimal(&cfg.BalanceLowBelow, "BALANCE_LOW_BELOW"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.LowStockThreshold, "LOW_STOCK_THRESHOLD"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.FullSyncCap, "FULL_SYNC_CAP"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.StatusWindowDays, "STATUS_WINDOW_DAYS"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.StatusPageSize, "STATUS_PAGE_SIZE"); err != nil {
		return Config{}, err
	}
	if cfg.StatusWindowDays <= 0 || cfg.StatusWindowDays > 15 {
		return Config{}, fmt.Errorf("STATUS_WINDOW_DAYS must be between 1 and 15")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt64(key string) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return val, nil
}

func overrideInt(target *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return fmt.Errorf("%s must be a positive integer", key)
	}
	*target = val
	return nil
}

func overrideDecimal(target *decimal.Decimal, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%s must be a decimal number", key)
	}
	*target = val
	return nil
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
