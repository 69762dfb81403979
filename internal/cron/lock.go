package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock coordinates exclusive cron runs across workers.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type locker interface {
	AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, func(context.Context) error, error)
}

// RedisLock holds a named redis lock for one cycle at a time.
type RedisLock struct {
	client  locker
	name    string
	ttl     time.Duration
	release func(context.Context) error
}

func NewRedisLock(client locker, name string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, name: name, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, release, err := l.client.AcquireLock(ctx, l.name, uuid.NewString(), l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.name, err)
	}
	if ok {
		l.release = release
	}
	return ok, nil
}

// Release frees the lock if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.release == nil {
		return nil
	}
	release := l.release
	l.release = nil
	if err := release(ctx); err != nil {
		return fmt.Errorf("release lock %s: %w", l.name, err)
	}
	return nil
}
