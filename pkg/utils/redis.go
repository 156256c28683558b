package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior. Zero values take the defaults below.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 4
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

var leaseReleaseScript = redis.NewScript(`
-- KEYS[1] = lease key
-- ARGV[1] = owner token
-- Deletes the key only while the caller still owns it.
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

var leaseExtendScript = redis.NewScript(`
-- KEYS[1] = lease key
-- ARGV[1] = owner token
-- ARGV[2] = ttl_ms
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

func checkLeaseArgs(rdb *redis.Client, key, owner string) error {
	switch {
	case rdb == nil:
		return fmt.Errorf("redis client is nil")
	case key == "":
		return fmt.Errorf("key is required")
	case owner == "":
		return fmt.Errorf("owner is required")
	}
	return nil
}

// AcquireLease takes an exclusive lease on key for owner. It reports false when
// another owner holds it. The TTL frees the lease if the holder dies.
func AcquireLease(ctx context.Context, rdb *redis.Client, key, owner string, ttl time.Duration) (bool, error) {
	if err := checkLeaseArgs(rdb, key, owner); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, fmt.Errorf("ttl must be > 0")
	}
	return rdb.SetNX(ctx, key, owner, ttl).Result()
}

// ReleaseLease drops the lease if owner still holds it. It reports whether a
// lease was removed; an expired or stolen lease is not an error.
func ReleaseLease(ctx context.Context, rdb *redis.Client, key, owner string) (bool, error) {
	if err := checkLeaseArgs(rdb, key, owner); err != nil {
		return false, err
	}
	n, err := leaseReleaseScript.Run(ctx, rdb, []string{key}, owner).Int()
	return n == 1, err
}

// ExtendLease resets the TTL if owner still holds the lease.
func ExtendLease(ctx context.Context, rdb *redis.Client, key, owner string, ttl time.Duration) (bool, error) {
	if err := checkLeaseArgs(rdb, key, owner); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, fmt.Errorf("ttl must be > 0")
	}
	n, err := leaseExtendScript.Run(ctx, rdb, []string{key}, owner, ttl.Milliseconds()).Int()
	return n == 1, err
}
