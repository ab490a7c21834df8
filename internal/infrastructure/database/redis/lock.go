package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// unlockScript releases the lock only when the stored token matches, so an
// expired-and-reacquired lock is never released by the old owner.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`

// extendScript refreshes the TTL only for the current owner.
const extendScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`

// Mutex is a single-holder distributed lock.  The vocabulary refresh loop
// takes it so that only one instance fetches the reference list at a time.
type Mutex struct {
	client *Client
	logger logging.Logger
	name   string
	token  string
	ttl    time.Duration
}

// NewMutex creates a lock named name with the given TTL.  The TTL bounds how
// long a crashed holder can block other instances.
func NewMutex(client *Client, log logging.Logger, name string, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Mutex{
		client: client,
		logger: log,
		name:   "lock:" + name,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// TryLock attempts to acquire the lock without blocking.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	if m.client.isClosed() {
		return false, ErrClientClosed
	}
	ok, err := m.client.rdb.SetNX(ctx, m.name, m.token, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock acquire failed")
	}
	return ok, nil
}

// Lock blocks until the lock is acquired or ctx is done, polling with a
// short delay.
func (m *Mutex) Lock(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ErrLockNotAcquired.WithCause(ctx.Err())
		case <-ticker.C:
		}
	}
}

// Unlock releases the lock if this Mutex still holds it.
func (m *Mutex) Unlock(ctx context.Context) error {
	if m.client.isClosed() {
		return ErrClientClosed
	}
	res, err := m.client.rdb.Eval(ctx, unlockScript, []string{m.name}, m.token).Result()
	if err != nil && err != redis.Nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lock release failed")
	}
	if n, ok := res.(int64); !ok || n == 0 {
		m.logger.Warn("Lock already released or taken over", logging.String("lock", m.name))
		return ErrLockNotHeld
	}
	return nil
}

// Extend pushes the lock's expiry out by its TTL while still held.
func (m *Mutex) Extend(ctx context.Context) (bool, error) {
	if m.client.isClosed() {
		return false, ErrClientClosed
	}
	res, err := m.client.rdb.Eval(ctx, extendScript, []string{m.name}, m.token, m.ttl.Milliseconds()).Result()
	if err != nil && err != redis.Nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock extend failed")
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}
