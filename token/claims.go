package token

import "github.com/golang-jwt/jwt/v5"

// Token use values carried in the "use" claim. An access token presented where
// a refresh token is expected (or vice versa) fails verification.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	Use        string `json:"use"`
	Role       string `json:"role,omitempty"`
	ProducerID string `json:"pid,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived refresh token. It deliberately
// carries no role or producer information so a leaked refresh token reveals
// nothing beyond the subject ID.
type RefreshClaims struct {
	Use string `json:"use"`
	jwt.RegisteredClaims
}
