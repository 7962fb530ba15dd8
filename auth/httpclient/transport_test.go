package httpclient_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/agrobridge/auth-service/auth"
	"github.com/agrobridge/auth-service/auth/httpclient"
	"github.com/stretchr/testify/require"
)

// fakeAuthServer is an httptest backend with one protected endpoint and one
// refresh endpoint. It accepts exactly one access token at a time and rotates
// it on every refresh.
type fakeAuthServer struct {
	server *httptest.Server

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	rotations    int

	refreshCalls atomic.Int32
	refreshFails bool

	lastBody string
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()

	f := &fakeAuthServer{
		accessToken:  "access-0",
		refreshToken: "refresh-0",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", f.handleRefresh)
	mux.HandleFunc("/api/resource", f.handleResource)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAuthServer) handleResource(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	expected := "Bearer " + f.accessToken
	f.mu.Unlock()

	if r.Header.Get("Authorization") != expected {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.lastBody = string(body)
	f.mu.Unlock()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (f *fakeAuthServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)

	if f.refreshFails {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if req.RefreshToken != f.refreshToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.rotations++
	f.accessToken = "access-" + string(rune('0'+f.rotations))
	f.refreshToken = "refresh-" + string(rune('0'+f.rotations))

	json.NewEncoder(w).Encode(auth.TokenPair{
		AccessToken:  f.accessToken,
		RefreshToken: f.refreshToken,
		TokenType:    "bearer",
	})
}

func (f *fakeAuthServer) pair() *auth.TokenPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &auth.TokenPair{
		AccessToken:  f.accessToken,
		RefreshToken: f.refreshToken,
		TokenType:    "bearer",
	}
}

func (f *fakeAuthServer) expireAccessToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rotations++
	f.accessToken = "access-" + string(rune('0'+f.rotations))
}

func newTestClient(f *fakeAuthServer, pair *auth.TokenPair) (*http.Client, *httpclient.Transport) {
	transport := httpclient.NewTransport(f.server.URL+"/auth/refresh", pair)
	return &http.Client{Transport: transport}, transport
}

func TestRoundTripAttachesBearerToken(t *testing.T) {
	f := newFakeAuthServer(t)
	client, _ := newTestClient(f, f.pair())

	resp, err := client.Get(f.server.URL + "/api/resource")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(0), f.refreshCalls.Load())
}

func TestRoundTripRefreshesOnUnauthorized(t *testing.T) {
	f := newFakeAuthServer(t)
	stale := f.pair()
	client, transport := newTestClient(f, stale)

	// The server stops accepting the access token the client holds.
	f.expireAccessToken()

	resp, err := client.Get(f.server.URL + "/api/resource")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), f.refreshCalls.Load())
	require.NotEqual(t, stale.AccessToken, transport.TokenPair().AccessToken)
}

func TestConcurrentRequestsRefreshOnce(t *testing.T) {
	f := newFakeAuthServer(t)
	client, _ := newTestClient(f, f.pair())

	f.expireAccessToken()

	const concurrency = 8
	statuses := make(chan int, concurrency)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(f.server.URL + "/api/resource")
			if err != nil {
				statuses <- 0
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		require.Equal(t, http.StatusOK, status)
	}
	require.Equal(t, int32(1), f.refreshCalls.Load(), "a burst of 401s triggers exactly one refresh")
}

func TestRefreshFailureClearsSession(t *testing.T) {
	f := newFakeAuthServer(t)
	client, transport := newTestClient(f, f.pair())

	f.expireAccessToken()
	f.refreshFails = true

	_, err := client.Get(f.server.URL + "/api/resource")
	require.ErrorIs(t, err, httpclient.ErrSessionExpired)
	require.Nil(t, transport.TokenPair())

	// Terminal: the next request fails without touching the network.
	calls := f.refreshCalls.Load()
	_, err = client.Get(f.server.URL + "/api/resource")
	require.ErrorIs(t, err, httpclient.ErrSessionExpired)
	require.Equal(t, calls, f.refreshCalls.Load())
}

func TestRoundTripWithoutSession(t *testing.T) {
	f := newFakeAuthServer(t)
	client, _ := newTestClient(f, nil)

	_, err := client.Get(f.server.URL + "/api/resource")
	require.ErrorIs(t, err, httpclient.ErrSessionExpired)
}

func TestRetryReplaysRequestBody(t *testing.T) {
	f := newFakeAuthServer(t)
	client, _ := newTestClient(f, f.pair())

	f.expireAccessToken()

	resp, err := client.Post(f.server.URL+"/api/resource", "text/plain", bytes.NewReader([]byte("payload")))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, "payload", f.lastBody)
}
