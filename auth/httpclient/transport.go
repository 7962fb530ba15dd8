// Package httpclient provides an http.RoundTripper that attaches the current
// access token to outgoing requests and transparently refreshes it on a 401.
// A process-local gate ensures that a burst of concurrently failing requests
// triggers at most one refresh call.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/agrobridge/auth-service/auth"
	"github.com/pkg/errors"
)

// ErrSessionExpired is returned once the transport has no usable session left:
// either it never held a token pair or a refresh attempt failed. The caller
// must log in again.
var ErrSessionExpired = errors.New("session expired, please log in again")

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

var _ http.RoundTripper = (*Transport)(nil)

// Transport is an http.RoundTripper wrapping a base transport with Bearer
// authentication and 401-driven token refresh. Safe for concurrent use.
type Transport struct {
	base       http.RoundTripper
	refreshURL string

	mu   sync.RWMutex
	pair *auth.TokenPair

	// refreshMu serializes refresh attempts; waiters re-check the pair after
	// acquiring it so only the first one actually calls the refresh endpoint.
	refreshMu sync.Mutex
}

// TransportOption defines a function type to modify the Transport instance.
type TransportOption func(*Transport)

// WithBaseTransport sets the underlying RoundTripper. Defaults to
// http.DefaultTransport.
func WithBaseTransport(base http.RoundTripper) TransportOption {
	return func(t *Transport) {
		t.base = base
	}
}

// NewTransport creates a Transport refreshing against refreshURL. The initial
// pair may be nil; set one with SetTokenPair after logging in.
func NewTransport(refreshURL string, pair *auth.TokenPair, options ...TransportOption) *Transport {
	transport := &Transport{
		base:       http.DefaultTransport,
		refreshURL: refreshURL,
		pair:       pair,
	}
	for _, opt := range options {
		opt(transport)
	}
	return transport
}

// SetTokenPair replaces the transport's session, typically after a login.
func (t *Transport) SetTokenPair(pair *auth.TokenPair) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pair = pair
}

// TokenPair returns the current session pair, or nil when none is held.
func (t *Transport) TokenPair() *auth.TokenPair {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pair
}

func (t *Transport) accessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.pair == nil {
		return ""
	}
	return t.pair.AccessToken
}

// RoundTrip sends req with the current access token. On a 401 it refreshes the
// pair (at most once across concurrent callers) and retries the request a
// single time. Requests whose body cannot be replayed are returned as-is.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	access := t.accessToken()
	if access == "" {
		return nil, ErrSessionExpired
	}

	resp, err := t.send(req, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// A body without GetBody cannot be sent twice.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	fresh, err := t.freshAccessToken(req.Context(), access)
	if err != nil {
		return nil, err
	}
	return t.send(req, fresh)
}

// send issues a clone of req carrying the given access token. The original
// request is never mutated, per the RoundTripper contract.
func (t *Transport) send(req *http.Request, access string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, errors.Wrap(err, "[Transport.send] replaying request body")
		}
		clone.Body = body
	}
	clone.Header.Set("Authorization", fmt.Sprintf("Bearer %s", access))
	return t.base.RoundTrip(clone)
}

// freshAccessToken returns an access token newer than stale, refreshing the
// pair if nobody else already has. A failed refresh clears the session.
func (t *Transport) freshAccessToken(ctx context.Context, stale string) (string, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	// Double-check: another request may have refreshed while we waited.
	if current := t.accessToken(); current != "" && current != stale {
		return current, nil
	}

	pair := t.TokenPair()
	if pair == nil {
		return "", ErrSessionExpired
	}

	fresh, err := t.doRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.SetTokenPair(nil)
		return "", errors.Wrap(ErrSessionExpired, err.Error())
	}

	t.SetTokenPair(fresh)
	return fresh.AccessToken, nil
}

func (t *Transport) doRefresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, errors.Wrap(err, "[Transport.doRefresh] encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[Transport.doRefresh] building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Transport.doRefresh] calling refresh endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("[Transport.doRefresh] refresh endpoint returned %d", resp.StatusCode)
	}

	var pair auth.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, errors.Wrap(err, "[Transport.doRefresh] decoding response")
	}
	return &pair, nil
}
