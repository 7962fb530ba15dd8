// Package token implements the stateless codec for signed access and refresh
// tokens: RS256 issuance with fresh jti values, and verification that reports
// expiry distinctly from every other failure.
package token

import (
	"time"

	"github.com/agrobridge/auth-service/token/keys"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// DefaultAccessTTL keeps the replay window for a stolen access token small.
	DefaultAccessTTL = 15 * time.Minute

	// DefaultRefreshTTL bounds how long a session can survive without re-login.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Codec signs and verifies tokens. It holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	keyPair    *keys.KeyPair
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

// CodecOption defines a function type to modify the Codec instance.
type CodecOption func(*Codec)

// WithTokenTTLs overrides the access and refresh token lifetimes.
func WithTokenTTLs(accessTTL, refreshTTL time.Duration) CodecOption {
	return func(c *Codec) {
		if accessTTL > 0 {
			c.accessTTL = accessTTL
		}
		if refreshTTL > 0 {
			c.refreshTTL = refreshTTL
		}
	}
}

// WithNowFunc sets the clock function (primarily for testing).
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec initializes a Codec signing with the given key pair.
func NewCodec(keyPair *keys.KeyPair, issuer, audience string, options ...CodecOption) (*Codec, error) {
	if keyPair == nil || keyPair.PrivateKey == nil || keyPair.PublicKey == nil {
		return nil, errors.New("[NewCodec] complete RSA key pair is required")
	}
	if issuer == "" {
		return nil, errors.New("[NewCodec] issuer is required")
	}

	codec := &Codec{
		keyPair:    keyPair,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		nowFunc:    time.Now,
	}

	for _, opt := range options {
		opt(codec)
	}

	return codec, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccessToken mints a short-lived access token for the subject. The role and
// producer ID travel in the claims so resource handlers can authorize without a
// store lookup.
func (c *Codec) IssueAccessToken(subject, role, producerID string) (string, *AccessClaims, error) {
	now := c.nowFunc()
	claims := &AccessClaims{
		Use:        UseAccess,
		Role:       role,
		ProducerID: producerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}

	signed, err := c.sign(claims)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Codec.IssueAccessToken] signing")
	}
	return signed, claims, nil
}

// IssueRefreshToken mints a long-lived refresh token carrying only the subject.
func (c *Codec) IssueRefreshToken(subject string) (string, *RefreshClaims, error) {
	now := c.nowFunc()
	claims := &RefreshClaims{
		Use: UseRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}

	signed, err := c.sign(claims)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Codec.IssueRefreshToken] signing")
	}
	return signed, claims, nil
}

// VerifyAccess verifies signature, expiry, and token use of an access token.
// Expired tokens fail with ErrTokenExpired; everything else with ErrTokenMalformed.
func (c *Codec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Use != UseAccess {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// VerifyRefresh verifies signature, expiry, and token use of a refresh token.
func (c *Codec) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Use != UseRefresh {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(c.keyPair.GetSigningMethod(), claims)
	tok.Header["kid"] = c.keyPair.KeyID
	return tok.SignedString(c.keyPair.PrivateKey)
}

func (c *Codec) verify(tokenString string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{keys.RS256}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	}
	if c.audience != "" {
		options = append(options, jwt.WithAudience(c.audience))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.keyPair.PublicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}
	if !tok.Valid {
		return ErrTokenMalformed
	}
	return nil
}
