package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lfreitas/escrowmarket/internal/domain"
)

// Default addresses used when the environment does not override them. They
// only need to be well-formed; the in-memory deployment never signs anything.
const (
	defaultOwnerAddress  = "0x0000000000000000000000000000000000000001"
	defaultMarketAddress = "0x00000000000000000000000000000000000000ff"
)

// Config holds all runtime configuration for the escrow market.
type Config struct {
	Port            int
	LogLevel        string
	OwnerAddress    domain.Address
	MarketAddress   domain.Address
	ServiceFeeBps   int64
	WebhookTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	ownerAddress := getStr("OWNER_ADDRESS", defaultOwnerAddress)
	if !domain.ValidAddress(ownerAddress) {
		return nil, fmt.Errorf("invalid OWNER_ADDRESS: %q", ownerAddress)
	}

	marketAddress := getStr("MARKET_ADDRESS", defaultMarketAddress)
	if !domain.ValidAddress(marketAddress) {
		return nil, fmt.Errorf("invalid MARKET_ADDRESS: %q", marketAddress)
	}
	if marketAddress == ownerAddress {
		return nil, fmt.Errorf("MARKET_ADDRESS must differ from OWNER_ADDRESS")
	}

	serviceFeeBps, err := getInt("SERVICE_FEE_BPS", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICE_FEE_BPS: %w", err)
	}
	if serviceFeeBps < 0 || int64(serviceFeeBps) > domain.FeeBase {
		return nil, fmt.Errorf("invalid SERVICE_FEE_BPS: %d, must be between 0 and %d", serviceFeeBps, domain.FeeBase)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		OwnerAddress:    domain.Address(ownerAddress),
		MarketAddress:   domain.Address(marketAddress),
		ServiceFeeBps:   int64(serviceFeeBps),
		WebhookTimeout:  webhookTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
