package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "YAYCSA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "YAYCSA_APP_ENV"
	EnvPort     = "YAYCSA_APP_PORT"
	EnvLogLevel = "YAYCSA_LOG_LEVEL"

	EnvDBDSN    = "YAYCSA_DB_DSN"
	EnvDBDriver = "YAYCSA_DB_DRIVER"
	EnvDBHost   = "YAYCSA_DB_HOST"
	EnvDBUser   = "YAYCSA_DB_USER"
	EnvDBName   = "YAYCSA_DB_NAME"

	EnvRedisURL = "YAYCSA_REDIS_URL"

	EnvJWTSecret = "YAYCSA_JWT_SECRET"
	EnvJWTIssuer = "YAYCSA_JWT_ISSUER"

	EnvOrderRateLimit = "YAYCSA_RATE_LIMIT_ORDER_LIMIT"
	EnvDefaultChannel = "YAYCSA_DEFAULT_CHANNEL_TOKEN"
	EnvOrdersTopic    = "YAYCSA_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
