package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MEMORIA_DB_DSN"
	EnvDBHost = "MEMORIA_DB_HOST"
	EnvDBUser = "MEMORIA_DB_USER"
	EnvDBName = "MEMORIA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
