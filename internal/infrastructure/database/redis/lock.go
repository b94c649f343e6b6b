package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// ErrLockNotHeld is returned by Unlock when the lock expired or another
// owner holds it.  Contention in TryLock is reported as false, not an error.
var ErrLockNotHeld = errors.New(errors.ErrCodeConflict, "lock not held by this owner")

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RunLock guards one export object so that two workers never convert it at
// the same time.  The lock expires after its TTL if the holder dies.
type RunLock struct {
	client *Client
	key    string
	value  string
	ttl    time.Duration
	logger logging.Logger
}

// NewRunLock creates an unlocked lock for name.
func NewRunLock(client *Client, name string, ttl time.Duration, log logging.Logger) *RunLock {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RunLock{
		client: client,
		key:    "aopgraph:lock:" + name,
		value:  uuid.New().String(),
		ttl:    ttl,
		logger: log,
	}
}

// TryLock acquires the lock without waiting.
func (l *RunLock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.rdb.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "acquiring run lock")
	}
	if ok {
		l.logger.Debug("run lock acquired", logging.String("key", l.key))
	}
	return ok, nil
}

// Unlock releases the lock if this instance still holds it.
func (l *RunLock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.client.rdb, []string{l.key}, l.value).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "releasing run lock")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
