// Package events publishes auth lifecycle events to the platform's notification
// channel. Consumers (messaging, audit) subscribe out of process.
package events

// Topics for auth lifecycle events.
const (
	TopicLogout         = "auth.logout"
	TopicTokenRefreshed = "auth.token_refreshed"
)

// LogoutEvent is published when an access token is explicitly invalidated.
type LogoutEvent struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id"`
}

// TokenRefreshedEvent is published after a successful refresh rotation.
type TokenRefreshedEvent struct {
	UserID     string `json:"user_id"`
	OldTokenID string `json:"old_token_id"`
	NewTokenID string `json:"new_token_id"`
}

// Publisher is the outbound event contract. Publish failures are logged, never
// surfaced to the end user: events are best-effort notifications, not part of
// the auth state machine.
type Publisher interface {
	Publish(topic string, event interface{}) error
}
