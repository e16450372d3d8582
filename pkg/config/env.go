package config

// EnvPrefix scopes every environment variable this service reads.
const EnvPrefix = "RENTPILOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced in error messages.
const (
	EnvDBDSN  = "RENTPILOT_DB_DSN"
	EnvDBHost = "RENTPILOT_DB_HOST"
	EnvDBUser = "RENTPILOT_DB_USER"
	EnvDBName = "RENTPILOT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
