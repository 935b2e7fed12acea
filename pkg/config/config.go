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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Channels     ChannelsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"YAYCSA_APP_ENV" required:"true"`
	Port         string `envconfig:"YAYCSA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"YAYCSA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"YAYCSA_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"YAYCSA_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"YAYCSA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"YAYCSA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"YAYCSA_DB_DSN"`
	Driver string `envconfig:"YAYCSA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"YAYCSA_DB_HOST"`
	LegacyPort     int    `envconfig:"YAYCSA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"YAYCSA_DB_USER"`
	LegacyPassword string `envconfig:"YAYCSA_DB_PASSWORD"`
	LegacyName     string `envconfig:"YAYCSA_DB_NAME"`
	LegacySSLMode  string `envconfig:"YAYCSA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"YAYCSA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"YAYCSA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"YAYCSA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"YAYCSA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// Queries slower than this are logged as db.slow_query. Zero disables.
	SlowQueryThreshold time.Duration `envconfig:"YAYCSA_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// IsSQLite reports whether the local sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"YAYCSA_REDIS_URL"`
	Address      string        `envconfig:"YAYCSA_REDIS_ADDR"`
	Password     string        `envconfig:"YAYCSA_REDIS_PASSWORD"`
	DB           int           `envconfig:"YAYCSA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"YAYCSA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"YAYCSA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"YAYCSA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"YAYCSA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"YAYCSA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"YAYCSA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"YAYCSA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"YAYCSA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RateLimitConfig struct {
	OrderMutationWindow time.Duration `envconfig:"YAYCSA_RATE_LIMIT_ORDER_WINDOW" default:"1m"`
	OrderMutationLimit  int           `envconfig:"YAYCSA_RATE_LIMIT_ORDER_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"YAYCSA_AUTO_MIGRATE" default:"false"`
}

type ChannelsConfig struct {
	DefaultToken  string `envconfig:"YAYCSA_DEFAULT_CHANNEL_TOKEN" default:"__default_channel__"`
	TokenHeader   string `envconfig:"YAYCSA_CHANNEL_TOKEN_HEADER" default:"X-Channel-Token"`
	SessionHeader string `envconfig:"YAYCSA_SESSION_TOKEN_HEADER" default:"X-Session-Token"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"YAYCSA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OffersTopic string `envconfig:"YAYCSA_PUBSUB_OFFERS_TOPIC" default:"offer-events"`
	OrdersTopic string `envconfig:"YAYCSA_PUBSUB_ORDERS_TOPIC" default:"order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"YAYCSA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"YAYCSA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"YAYCSA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:yaycsa.db?cache=shared"
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
