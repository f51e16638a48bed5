package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "PINPRICE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv = "PINPRICE_APP_ENV"
	EnvPort   = "PINPRICE_APP_PORT"

	EnvDBDSN  = "PINPRICE_DB_DSN"
	EnvDBHost = "PINPRICE_DB_HOST"
	EnvDBUser = "PINPRICE_DB_USER"
	EnvDBName = "PINPRICE_DB_NAME"

	EnvRedisURL = "PINPRICE_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
