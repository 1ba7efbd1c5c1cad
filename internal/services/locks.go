package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
)

// UserLocker serializes serve calls per user so the select-advance-return
// sequence never interleaves for the same cursor. Acquire blocks until the
// lock is held or ctx is done; the returned release must always be called.
type UserLocker interface {
	Acquire(ctx context.Context, userID uuid.UUID) (release func(), err error)
}

// ---- in-process ----

type keyedMutexLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*userLockEntry
}

type userLockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutexLocker is the single-instance implementation. Entries are
// reference counted and removed when the last holder releases.
func NewKeyedMutexLocker() UserLocker {
	return &keyedMutexLocker{locks: make(map[uuid.UUID]*userLockEntry)}
}

func (l *keyedMutexLocker) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLockEntry{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		entry.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// The goroutine still holds or will hold the mutex; unlock once it
		// lands so the next waiter proceeds.
		go func() {
			<-acquired
			l.release(userID, entry)
		}()
		return nil, ctx.Err()
	}

	return func() { l.release(userID, entry) }, nil
}

func (l *keyedMutexLocker) release(userID uuid.UUID, entry *userLockEntry) {
	entry.mu.Unlock()
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()
}

// ---- redis lease ----

type redisLocker struct {
	log    *logger.Logger
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisLocker leases user locks in redis with SET NX PX, for deployments
// with more than one API instance. Release only deletes the key when the
// lease token still matches, so an expired lease cannot release a successor.
func NewRedisLocker(log *logger.Logger, client *redis.Client, ttl time.Duration) UserLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLocker{
		log:    log.With("service", "RedisLocker"),
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	key := "serve_lock:" + userID.String()
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire user lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release user lock", "key", key, "error", err)
		}
	}
	return release, nil
}
