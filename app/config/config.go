package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	Database DatabaseConfig
	JWT      JWTConfig
	Mongo    MongoConfig
	Redis    RedisConfig

	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	Timezone    string   `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"40"`

	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"2m"`

	SchedulerEnabled      bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	PayrollCron           string `env:"PAYROLL_CRON" envDefault:"0 2 1 * *"`
	ActivityRetentionDays int    `env:"ACTIVITY_RETENTION_DAYS" envDefault:"365"`

	// Month (1-12) in which an academic year starts, e.g. 4 for April-March.
	AcademicYearStartMonth int `env:"ACADEMIC_YEAR_START_MONTH" envDefault:"4"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envDefault:"postgres://postgres@localhost:5432/campus?sslmode=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET" envDefault:"campus-management-dev-secret"`
	Expiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DATABASE" envDefault:"campus"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if cfg.AcademicYearStartMonth < 1 || cfg.AcademicYearStartMonth > 12 {
		return nil, errors.Errorf("ACADEMIC_YEAR_START_MONTH must be 1-12, got %d", cfg.AcademicYearStartMonth)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", c.Timezone).Msg("failed to load timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}
