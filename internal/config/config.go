package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName          = "Shekelz"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultMinCashOut       = 2000
	defaultTransferTimeout  = 10 * time.Second
	defaultRecoveryInterval = time.Minute
	defaultRecoveryAge      = 5 * time.Minute
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	transferSecondsEnvVar   = "TRANSFER_TIMEOUT_SECONDS"
	transferDurationEnvVar  = "TRANSFER_TIMEOUT"
	recoverySecondsEnvVar   = "RECOVERY_INTERVAL_SECONDS"
	recoveryDurationEnvVar  = "RECOVERY_INTERVAL"
	minCashOutEnvVar        = "CASHOUT_MIN_SHEKELZ"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName          string
	AppEnv           string
	Port             string
	LogLevel         string
	DatabaseURL      string
	RedisURL         string
	ShutdownPeriod   time.Duration
	IdempotencyTTL   time.Duration
	MinCashOut       int64
	TransferTimeout  time.Duration
	RecoveryInterval time.Duration
	RecoveryAge      time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		MinCashOut:       defaultMinCashOut,
		TransferTimeout:  defaultTransferTimeout,
		RecoveryInterval: defaultRecoveryInterval,
		RecoveryAge:      defaultRecoveryAge,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.TransferTimeout, err = durationFromEnv(transferSecondsEnvVar, transferDurationEnvVar, cfg.TransferTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RecoveryInterval, err = durationFromEnv(recoverySecondsEnvVar, recoveryDurationEnvVar, cfg.RecoveryInterval); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(minCashOutEnvVar); v != "" {
		minAmount, err := strconv.ParseInt(v, 10, 64)
		if err != nil || minAmount <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", minCashOutEnvVar, v)
		}
		cfg.MinCashOut = minAmount
	}

	if cfg.DatabaseURL == "" && !isDev(cfg.AppEnv) {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" && !isDev(cfg.AppEnv) {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-style environment.
func (c Config) IsDev() bool {
	return isDev(c.AppEnv)
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func durationFromEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
