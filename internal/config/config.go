package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Commission CommissionConfig
	Batch      BatchConfig
	// RootIdentityEmail names the participant that survives a system reset.
	RootIdentityEmail string
	Verbose           bool
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins string
	AdminToken   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured for the period lock.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type CommissionConfig struct {
	Policy           string
	SelfRate         decimal.Decimal
	DirectRate       decimal.Decimal
	PoolPercent      decimal.Decimal
	ReferrerPercent  decimal.Decimal
	FlatPoolPercent  decimal.Decimal
	BinaryAllocation decimal.Decimal
	UplineLevels     int
}

type BatchConfig struct {
	// Schedule is a cron expression; empty disables the in-process scheduler.
	Schedule       string
	Workers        int
	CommitAttempts int
	LockTTL        time.Duration
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
			AdminToken:   getEnv("ADMIN_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "hfc"),
			Password: getEnv("DB_PASSWORD", "hfc"),
			Name:     getEnv("DB_NAME", "hfc"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", "0"),
		},
		Commission: CommissionConfig{
			Policy:           getEnv("COMMISSION_POLICY", "pool"),
			SelfRate:         p.decimal("SELF_RATE", "0.10"),
			DirectRate:       p.decimal("DIRECT_RATE", "0.15"),
			PoolPercent:      p.decimal("POOL_PERCENT", "0.50"),
			ReferrerPercent:  p.decimal("REFERRER_PERCENT", "0.05"),
			FlatPoolPercent:  p.decimal("FLAT_POOL_PERCENT", "0.05"),
			BinaryAllocation: p.decimal("BINARY_ALLOCATION", "1.0"),
			UplineLevels:     p.int("UPLINE_LEVELS", "10"),
		},
		Batch: BatchConfig{
			Schedule:       getEnv("BATCH_SCHEDULE", ""),
			Workers:        p.int("BATCH_WORKERS", "8"),
			CommitAttempts: p.int("BATCH_COMMIT_ATTEMPTS", "3"),
			LockTTL:        p.duration("BATCH_LOCK_TTL", "30m"),
		},
		RootIdentityEmail: getEnv("ROOT_IDENTITY_EMAIL", "admin@hfc.com"),
		Verbose:           p.bool("VERBOSE", "false"),
	}

	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (p *parser) int(key, def string) int {
	v := getEnv(key, def)
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return n
}

func (p *parser) bool(key, def string) bool {
	v := getEnv(key, def)
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return b
}

func (p *parser) duration(key, def string) time.Duration {
	v := getEnv(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return d
}

func (p *parser) decimal(key, def string) decimal.Decimal {
	v := getEnv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return d
}
