// Package auth composes the token codec, refresh token ledger, and revocation
// store into the four public auth operations: Login, Refresh, Logout, and
// VerifyAuthenticated. Refresh runs behind a per-token single-flight gate so
// rotation executes at most once per concurrent expiry event.
package auth

import (
	"context"
	"time"

	"github.com/agrobridge/auth-service/events"
	"github.com/agrobridge/auth-service/token"
	"github.com/agrobridge/auth-service/token/ledger"
	"github.com/agrobridge/auth-service/token/revocation"
	"github.com/agrobridge/auth-service/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Repos holds the repository dependencies for the Service.
type Repos struct {
	Users  users.Repo  // Account store collaborator
	Ledger ledger.Repo // Persistent refresh token ledger
}

// Service provides the auth operations. Safe for concurrent use.
type Service struct {
	repos       Repos
	codec       *token.Codec
	revocations revocation.Store
	publisher   events.Publisher
	coordinator *Coordinator
	logger      zerolog.Logger
	nowFunc     func() time.Time

	refreshTimeout time.Duration
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowFunc sets the clock function (primarily for testing).
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRefreshTimeout bounds a single refresh rotation attempt.
func WithRefreshTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.refreshTimeout = timeout
	}
}

// NewService initializes a Service with required dependencies. The publisher may
// be nil; events are then skipped.
func NewService(
	repos Repos,
	codec *token.Codec,
	revocations revocation.Store,
	publisher events.Publisher,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Ledger == nil {
		return nil, errors.New("[NewService] Ledger repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] codec is required")
	}
	if revocations == nil {
		return nil, errors.New("[NewService] revocation store is required")
	}

	service := &Service{
		repos:          repos,
		codec:          codec,
		revocations:    revocations,
		publisher:      publisher,
		logger:         zerolog.Nop(),
		nowFunc:        time.Now,
		refreshTimeout: DefaultRefreshTimeout,
	}

	for _, opt := range options {
		opt(service)
	}

	service.coordinator = NewCoordinator(service.rotate, service.refreshTimeout)

	return service, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown email,
// wrong password, and inactive account all fail with ErrAuthentication.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug().Str("email", email).Msg("login: unknown email")
		return nil, ErrAuthentication
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		s.logger.Debug().Str("user_id", user.ID).Msg("login: password mismatch")
		return nil, ErrAuthentication
	}

	if !user.Active {
		s.logger.Debug().Str("user_id", user.ID).Msg("login: inactive account")
		return nil, ErrAuthentication
	}

	pair, _, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] minting token pair")
	}
	return pair, nil
}

// Refresh rotates a refresh token into a new token pair. This is the only entry
// point that triggers the Coordinator: concurrent calls presenting the same
// token share a single rotation and a single result.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.coordinator.Refresh(ctx, refreshToken)
}

// Logout blacklists an access token's jti for the remainder of its lifetime.
// Idempotent: repeating a logout changes nothing. The refresh token ledger is
// untouched; use RevokeRefreshToken to kill the rotation chain as well.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.nowFunc())
	if err := s.revocations.Blacklist(ctx, jti, ttl); err != nil {
		return errors.Wrap(err, "[Service.Logout] blacklisting jti")
	}

	s.publish(events.TopicLogout, events.LogoutEvent{TokenID: jti})
	return nil
}

// RevokeRefreshToken explicitly revokes a refresh token in the ledger.
// Idempotent: unknown and already-revoked tokens are a no-op.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if _, err := s.codec.VerifyRefresh(refreshToken); err != nil {
		s.logger.Debug().Err(err).Msg("revoke refresh: verification failed")
		return nil
	}

	record, err := s.repos.Ledger.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "[Service.RevokeRefreshToken] ledger lookup")
	}

	if err := s.repos.Ledger.Revoke(ctx, record.ID); err != nil {
		return errors.Wrap(err, "[Service.RevokeRefreshToken] ledger revoke")
	}
	return nil
}

// VerifyAuthenticated verifies an access token's signature and expiry, then
// consults the revocation store. Both checks must pass.
func (s *Service) VerifyAuthenticated(ctx context.Context, accessToken string) (*token.AccessClaims, error) {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("verify: codec rejected access token")
		return nil, ErrInvalidToken
	}

	revoked, err := s.revocations.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		// Fail closed: an unreachable revocation store must not admit tokens.
		return nil, errors.Wrap(err, "[Service.VerifyAuthenticated] revocation check")
	}
	if revoked {
		s.logger.Debug().Str("jti", claims.ID).Msg("verify: token blacklisted")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// rotate is the single-flight executor body. It runs at most once per token per
// expiry event and returns only after the new refresh token is durably recorded,
// so no waiter ever observes a partially rotated state.
func (s *Service) rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("refresh: codec rejected refresh token")
		return nil, ErrInvalidToken
	}

	record, err := s.repos.Ledger.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			s.logger.Debug().Str("jti", claims.ID).Msg("refresh: token not in ledger")
			return nil, ErrInvalidToken
		}
		return nil, errors.Wrap(err, "[Service.rotate] ledger lookup")
	}
	if record.Revoked {
		// Reuse of an already-rotated token is a replay signal.
		s.logger.Warn().Str("user_id", record.UserID).Str("jti", claims.ID).Msg("refresh: reuse of rotated token")
		return nil, ErrInvalidToken
	}
	if record.ExpiresAt.Before(s.nowFunc()) {
		s.logger.Debug().Str("jti", claims.ID).Msg("refresh: token past expiry")
		return nil, ErrInvalidToken
	}

	if err := s.repos.Ledger.Revoke(ctx, record.ID); err != nil {
		return nil, errors.Wrap(err, "[Service.rotate] revoking consumed token")
	}

	user, err := s.repos.Users.GetByID(ctx, record.UserID)
	if err != nil {
		s.logger.Debug().Str("user_id", record.UserID).Msg("refresh: owning user missing")
		return nil, ErrInvalidToken
	}
	if !user.Active {
		s.logger.Debug().Str("user_id", user.ID).Msg("refresh: inactive account")
		return nil, ErrInvalidToken
	}

	pair, newClaims, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.rotate] minting token pair")
	}

	s.publish(events.TopicTokenRefreshed, events.TokenRefreshedEvent{
		UserID:     user.ID,
		OldTokenID: claims.ID,
		NewTokenID: newClaims.ID,
	})

	return pair, nil
}

// mintPair issues a new access/refresh pair and persists the refresh token. The
// pair is returned only after the ledger write succeeds.
func (s *Service) mintPair(ctx context.Context, user *users.User) (*TokenPair, *token.RefreshClaims, error) {
	accessToken, _, err := s.codec.IssueAccessToken(user.ID, string(user.Role), user.ProducerID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Service.mintPair] issuing access token")
	}

	refreshToken, refreshClaims, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Service.mintPair] issuing refresh token")
	}

	if _, err := s.repos.Ledger.Create(ctx, user.ID, refreshToken, refreshClaims.ExpiresAt.Time); err != nil {
		return nil, nil, errors.Wrap(err, "[Service.mintPair] persisting refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
	}, refreshClaims, nil
}

func (s *Service) publish(topic string, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(topic, event); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("event publish failed")
	}
}
