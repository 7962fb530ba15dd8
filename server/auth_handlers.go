package server

import (
	"encoding/json"
	"net/http"

	"github.com/agrobridge/auth-service/auth"
	"github.com/pkg/errors"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	invalidCredentialsMessage = "invalid credentials"
	sessionExpiredMessage     = "session expired, please log in again"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// LoginHandler exchanges credentials for a token pair. Every credential
// failure produces the identical response.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
			return
		}

		pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshHandler rotates a refresh token into a new pair. Concurrent requests
// presenting the same token share a single rotation server-side.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, "invalid_request", "refresh_token is required", http.StatusBadRequest)
			return
		}

		pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// LogoutHandler blacklists the presented access token for the remainder of its
// lifetime. An optional refresh_token in the body is revoked in the ledger too.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, "invalid_token", sessionExpiredMessage, http.StatusUnauthorized)
			return
		}

		if err := s.auth.Logout(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			s.writeAuthError(w, err)
			return
		}

		// Body is optional; a missing or malformed one only skips the ledger revoke.
		var req logoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
			if err := s.auth.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
				s.writeAuthError(w, err)
				return
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler returns the verified identity of the caller.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, "invalid_token", sessionExpiredMessage, http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user_id":     claims.Subject,
			"role":        claims.Role,
			"producer_id": claims.ProducerID,
			"expires_at":  claims.ExpiresAt.Unix(),
		})
	}
}

// JWKSHandler serves the public signing key for verification by other services.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.keyPair.ToJWKS()
		if err != nil {
			s.logger.Error().Err(err).Msg("building JWKS")
			writeJSONError(w, "server_error", "internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, jwks)
	}
}

// writeAuthError maps domain failures onto the two uniform 401 bodies. The
// internal cause is logged, never returned.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrAuthentication):
		writeJSONError(w, "invalid_credentials", invalidCredentialsMessage, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRefreshTimeout):
		writeJSONError(w, "invalid_token", sessionExpiredMessage, http.StatusUnauthorized)
	default:
		s.logger.Error().Err(err).Msg("auth operation failed")
		writeJSONError(w, "server_error", "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
