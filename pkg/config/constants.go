package config

const EnvPrefix = "GATEPASS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "GATEPASS_APP_ENV"
	EnvPort         = "GATEPASS_APP_PORT"
	EnvJWTSecret    = "GATEPASS_JWT_SECRET"
	EnvJWTIssuer    = "GATEPASS_JWT_ISSUER"
	EnvUseSQLite    = "GATEPASS_USE_SQLITE"
	EnvDBDSN        = "GATEPASS_DB_DSN"
	EnvDBHost       = "GATEPASS_DB_HOST"
	EnvDBUser       = "GATEPASS_DB_USER"
	EnvDBName       = "GATEPASS_DB_NAME"
	EnvServicePct   = "GATEPASS_SERVICE_PCT"
	EnvAdminAccount = "GATEPASS_ADMIN_ACCOUNT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
