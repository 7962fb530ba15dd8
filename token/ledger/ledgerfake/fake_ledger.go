package ledgerfake

import (
	"context"
	"sync"
	"time"

	"github.com/agrobridge/auth-service/token/ledger"
	"github.com/google/uuid"
)

var _ ledger.Repo = (*FakeLedger)(nil)

// FakeLedger is an in-memory ledger.Repo for tests. It counts mutating calls so
// tests can assert how many rotations actually executed.
type FakeLedger struct {
	mu      sync.RWMutex
	byID    map[string]*ledger.RefreshToken
	byToken map[string]string // token string -> record ID
	creates int
	revokes int
}

// NewFakeLedger creates an empty fake ledger.
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		byID:    make(map[string]*ledger.RefreshToken),
		byToken: make(map[string]string),
	}
}

func (f *FakeLedger) Create(_ context.Context, userID, token string, expiresAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uuid.New().String()
	f.byID[id] = &ledger.RefreshToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
	}
	f.byToken[token] = id
	f.creates++
	return id, nil
}

func (f *FakeLedger) FindByToken(_ context.Context, token string) (*ledger.RefreshToken, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	id, ok := f.byToken[token]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	record := *f.byID[id]
	return &record, nil
}

func (f *FakeLedger) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record, ok := f.byID[id]; ok {
		record.Revoked = true
	}
	f.revokes++
	return nil
}

// CreateCount returns how many Create calls have executed.
func (f *FakeLedger) CreateCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.creates
}

// RevokeCount returns how many Revoke calls have executed.
func (f *FakeLedger) RevokeCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.revokes
}
