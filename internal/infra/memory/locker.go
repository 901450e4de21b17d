package memory

import (
	"context"
	"sync"
	"time"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

var _ adapter.Locker = (*Locker)(nil)

type lease struct {
	token   string
	expires time.Time
}

// Locker is the in-process counterpart of the Redis locker.
type Locker struct {
	mu    sync.Mutex
	held  map[string]lease
	nowFn func() time.Time
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]lease), nowFn: time.Now}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if cur, ok := l.held[key]; ok && (cur.expires.IsZero() || now.Before(cur.expires)) {
		return "", domain.ErrLocked
	}
	token := uuid.NewString()
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.held[key] = lease{token: token, expires: expires}
	return token, nil
}

// Unlock releases key only if token still owns it.
func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[key]; ok && cur.token == token {
		delete(l.held, key)
	}
	return nil
}
