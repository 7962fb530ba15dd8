package config

import "time"

type TokenConfig interface {
	GetIssuer() string
	GetAudience() string
	GetKeyID() string
	GetPrivateKeyPath() string
	GetPublicKeyPath() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetRefreshTimeout() time.Duration
}

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetIssuer() string {
	return GetEnv("TOKEN_ISSUER", "com.agrobridge.auth")
}

func (Token) GetAudience() string {
	return GetEnv("TOKEN_AUDIENCE", "agrobridge-api")
}

func (Token) GetKeyID() string {
	return GetEnv("TOKEN_KEY_ID", "agrobridge-auth-1")
}

func (Token) GetPrivateKeyPath() string {
	return GetEnv("TOKEN_PRIVATE_KEY_PATH", "./keys/private.pem")
}

func (Token) GetPublicKeyPath() string {
	return GetEnv("TOKEN_PUBLIC_KEY_PATH", "./keys/public.pem")
}

func (Token) GetAccessTokenTTL() time.Duration {
	return durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (Token) GetRefreshTokenTTL() time.Duration {
	return durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour)
}

func (Token) GetRefreshTimeout() time.Duration {
	return durationEnv("REFRESH_TIMEOUT", 10*time.Second)
}

// durationEnv parses an env var as a time.Duration, falling back to
// defaultValue when unset or unparseable.
func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
