package config

type Config interface {
	EnvConfig
	TokenConfig
	RedisConfig
	PostgresConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Token
	Stores
}

func New() Config {
	return mainConfig{}
}
