package config

// EnvPrefix scopes every environment variable consumed by the service.
const EnvPrefix = "smartshop"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SMARTSHOP_DB_DSN"
	EnvDBHost = "SMARTSHOP_DB_HOST"
	EnvDBUser = "SMARTSHOP_DB_USER"
	EnvDBName = "SMARTSHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
