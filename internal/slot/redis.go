// Package slot provides the cross-process single-flight lease for call log requests.
package slot

import (
	"context"
	"errors"
	"sync"
	"time"

	"callhistory/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is shared by every process reading the same call log.
const DefaultKey = "callhistory:calllog:inflight"

// DefaultTTL bounds how long a crashed holder can block others.
const DefaultTTL = 2 * time.Minute

// MinTTL is the shortest lease; shorter values are raised to it.
const MinTTL = time.Second

// ErrNotHeld is returned by Release when this process holds no lease.
var ErrNotHeld = errors.New("slot: lease not held")

// RedisSlot is an owner-tagged Redis lease. It implements calllog.Slot.
// The controller holds at most one lease at a time per process.
type RedisSlot struct {
	rdb *redis.Client
	key string
	ttl time.Duration

	mu    sync.Mutex
	owner string
	stop  chan struct{}
}

func NewRedisSlot(rdb *redis.Client, key string, ttl time.Duration) (*RedisSlot, error) {
	if rdb == nil {
		return nil, errors.New("slot: redis client is nil")
	}
	if key == "" {
		key = DefaultKey
	}
	switch {
	case ttl <= 0:
		ttl = DefaultTTL
	case ttl < MinTTL:
		ttl = MinTTL
	}
	return &RedisSlot{rdb: rdb, key: key, ttl: ttl}, nil
}

func (s *RedisSlot) Acquire(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != "" {
		return false, nil
	}
	owner := uuid.NewString()
	ok, err := utils.AcquireLease(ctx, s.rdb, s.key, owner, s.ttl)
	if err != nil || !ok {
		return false, err
	}
	s.owner = owner
	s.stop = make(chan struct{})
	go s.keepAlive(owner, s.stop)
	return true, nil
}

// keepAlive extends the lease until Release, so a request that waits long on
// its permission prompt keeps the slot.
func (s *RedisSlot) keepAlive(owner string, stop <-chan struct{}) {
	t := time.NewTicker(s.ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.ttl/3)
			ok, err := utils.ExtendLease(ctx, s.rdb, s.key, owner, s.ttl)
			cancel()
			if err == nil && !ok {
				return
			}
		}
	}
}

// Release drops the lease. A lease that already expired is released silently.
func (s *RedisSlot) Release(ctx context.Context) error {
	s.mu.Lock()
	owner := s.owner
	s.owner = ""
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
	if owner == "" {
		return ErrNotHeld
	}
	_, err := utils.ReleaseLease(ctx, s.rdb, s.key, owner)
	return err
}
