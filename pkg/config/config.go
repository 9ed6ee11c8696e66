package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Ledger       LedgerConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GATEPASS_APP_ENV" required:"true"`
	Port         string `envconfig:"GATEPASS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GATEPASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GATEPASS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GATEPASS_DB_DSN"`
	Driver string `envconfig:"GATEPASS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GATEPASS_DB_HOST"`
	LegacyPort     int    `envconfig:"GATEPASS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GATEPASS_DB_USER"`
	LegacyPassword string `envconfig:"GATEPASS_DB_PASSWORD"`
	LegacyName     string `envconfig:"GATEPASS_DB_NAME"`
	LegacySSLMode  string `envconfig:"GATEPASS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GATEPASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GATEPASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GATEPASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GATEPASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GATEPASS_REDIS_URL"`
	Address      string        `envconfig:"GATEPASS_REDIS_ADDR"`
	Password     string        `envconfig:"GATEPASS_REDIS_PASSWORD"`
	DB           int           `envconfig:"GATEPASS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GATEPASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GATEPASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GATEPASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GATEPASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GATEPASS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. The
// idempotency layer is skipped when it is not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"GATEPASS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GATEPASS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GATEPASS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LedgerConfig binds the platform identity and fee rate at construction time.
type LedgerConfig struct {
	ServicePct   int64  `envconfig:"GATEPASS_SERVICE_PCT" default:"5"`
	AdminAccount string `envconfig:"GATEPASS_ADMIN_ACCOUNT" required:"true"`
}

func (l LedgerConfig) validate() error {
	if l.ServicePct < 0 || l.ServicePct > 100 {
		return fmt.Errorf("%s must be between 0 and 100, got %d", EnvServicePct, l.ServicePct)
	}
	if strings.TrimSpace(l.AdminAccount) == "" {
		return fmt.Errorf("%s is required", EnvAdminAccount)
	}
	return nil
}

// RateLimitConfig throttles the purchase surface per caller. Zero values
// disable the limiter.
type RateLimitConfig struct {
	BuyWindow time.Duration `envconfig:"GATEPASS_RATE_LIMIT_BUY_WINDOW" default:"1m"`
	BuyLimit  int           `envconfig:"GATEPASS_RATE_LIMIT_BUY_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GATEPASS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GATEPASS_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GATEPASS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GATEPASS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GATEPASS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		if db.DSN == "" {
			db.DSN = "file:gatepass.db?cache=shared"
		}
		db.Driver = DriverSQLite
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
