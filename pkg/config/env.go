package config

// EnvPrefix is passed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv     = "STOREFRONT_APP_ENV"
	EnvPort       = "STOREFRONT_APP_PORT"
	EnvLogLevel   = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat  = "STOREFRONT_LOG_FORMAT"
	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBDriver   = "STOREFRONT_DB_DRIVER"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBPort     = "STOREFRONT_DB_PORT"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvUseSQLite  = "STOREFRONT_USE_SQLITE"
	EnvRedisURL   = "STOREFRONT_REDIS_URL"
	EnvCartTTL    = "STOREFRONT_CART_TTL"
	EnvGCPProject = "STOREFRONT_GCP_PROJECT_ID"
)

var dbPartsEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
