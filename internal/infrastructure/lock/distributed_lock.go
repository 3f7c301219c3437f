package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockFailed = errors.New("failed to acquire distributed lock")

// DistributedLock is a redis SETNX lock with an owner token. The expiration
// bounds how long a crashed holder can block others; Unlock verifies the
// token with a lua script so an expired holder cannot delete a lock it no
// longer owns.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock blocks with retries until the lock is held or maxRetries is spent.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

func (l *DistributedLock) Unlock(ctx context.Context) error {
	// check-and-delete must be atomic, hence the script
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewWalletLock serializes money movement per principal. Different users can
// settle concurrently; two operations on the same wallet cannot.
func NewWalletLock(client *redis.Client, username string) *DistributedLock {
	key := fmt.Sprintf("wallet:lock:%s", username)
	return NewDistributedLock(client, key, uuid.NewString(), 30*time.Second)
}

// NewLifafaLock serializes claim settlement per lifafa so the slot count
// cannot be oversubscribed by concurrent claimants.
func NewLifafaLock(client *redis.Client, code string) *DistributedLock {
	key := fmt.Sprintf("lifafa:lock:%s", code)
	return NewDistributedLock(client, key, uuid.NewString(), 30*time.Second)
}
