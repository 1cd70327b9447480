package auth

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist stores the JWT IDs of revoked tokens.
type TokenBlacklist interface {
	// Add revokes jti until originalTokenExpTime, after which the token is
	// rejected for being expired anyway.
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// MemoryTokenBlacklist is a process-local TokenBlacklist, used when no Redis
// address is configured.
type MemoryTokenBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenBlacklist creates an empty in-memory blacklist.
func NewMemoryTokenBlacklist() *MemoryTokenBlacklist {
	return &MemoryTokenBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryTokenBlacklist) Add(_ context.Context, jti string, originalTokenExpTime time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if !originalTokenExpTime.After(now) {
		return nil
	}
	for k, exp := range b.entries {
		if !exp.After(now) {
			delete(b.entries, k)
		}
	}
	b.entries[jti] = originalTokenExpTime
	return nil
}

func (b *MemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.entries[jti]
	return ok && exp.After(b.now()), nil
}
