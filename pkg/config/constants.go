package config

const (
	// EnvPrefix is passed to envconfig; variable names carry the full prefix in tags.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "production"
)
