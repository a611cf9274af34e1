// Package redis provides the cross-instance case lock on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bibbank/collections-service/internal/domain/port"
)

// ConnectionInfo describes how to reach Redis.
type ConnectionInfo struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	Timeout     time.Duration
}

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, info ConnectionInfo) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         info.Addr,
		Password:     info.Password,
		DB:           info.DB,
		DialTimeout:  info.DialTimeout,
		ReadTimeout:  info.Timeout,
		WriteTimeout: info.Timeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", info.Addr, err)
	}
	return rdb, nil
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is left alone.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// LockerOptions tunes the lock.
type LockerOptions struct {
	Prefix string
	// TTL bounds how long a crashed holder blocks the key.
	TTL time.Duration
	// RetryInterval is the poll period while waiting for a held key.
	RetryInterval time.Duration
}

// CaseLocker implements port.CaseLocker with SET NX PX.
type CaseLocker struct {
	client goredis.Cmdable
	opts   LockerOptions
	token  func() string
}

var _ port.CaseLocker = (*CaseLocker)(nil)

// NewCaseLocker creates a CaseLocker. Zero options default to a 30s TTL and
// 50ms polling.
func NewCaseLocker(client goredis.Cmdable, opts LockerOptions) *CaseLocker {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	return &CaseLocker{client: client, opts: opts, token: uuid.NewString}
}

func (l *CaseLocker) key(tenantID, k string) string {
	return l.opts.Prefix + "lock:" + tenantID + ":" + k
}

// Lock polls until the key is acquired or ctx is done.
func (l *CaseLocker) Lock(ctx context.Context, tenantID, k string) (func(context.Context) error, error) {
	key := l.key(tenantID, k)
	token := l.token()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-timer.C:
		}
	}

	return func(ctx context.Context) error {
		err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
