package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/aopwiki-graph/internal/domain/xref"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// emptyMarker is stored for keys that resolved to no cross-references.
const emptyMarker = "__empty__"

// XrefCache stores resolved cross-reference sets under
// <prefix><kind>:<key>.  Concurrent reads of one key share a round trip.
type XrefCache struct {
	client       *Client
	logger       logging.Logger
	prefix       string
	ttl          time.Duration
	singleflight singleflight.Group
}

type CacheOption func(*XrefCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *XrefCache) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *XrefCache) { c.ttl = ttl }
}

func NewXrefCache(client *Client, log logging.Logger, opts ...CacheOption) *XrefCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &XrefCache{
		client: client,
		logger: log,
		prefix: "aopgraph:xref:",
		ttl:    7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *XrefCache) fullKey(kind xref.Kind, key string) string {
	return c.prefix + string(kind) + ":" + key
}

// jitterTTL spreads expiry by +/- 10%.
func (c *XrefCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// Get returns the cached set for key; ok is false on a miss.
func (c *XrefCache) Get(ctx context.Context, kind xref.Kind, key string) (*xref.Set, bool, error) {
	fullKey := c.fullKey(kind, key)
	v, err, _ := c.singleflight.Do(fullKey, func() (interface{}, error) {
		data, err := c.client.rdb.Get(ctx, fullKey).Bytes()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	data, _ := v.([]byte)
	if data == nil {
		return nil, false, nil
	}
	if string(data) == emptyMarker {
		return xref.NewSet(), true, nil
	}
	var refs []xref.Reference
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeSerialization, "decoding cached xrefs")
	}
	return xref.NewSet(refs...), true, nil
}

// Set stores refs for key.
func (c *XrefCache) Set(ctx context.Context, kind xref.Kind, key string, refs *xref.Set) error {
	value := emptyMarker
	if refs.Len() > 0 {
		data, err := json.Marshal(refs.Refs())
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encoding xrefs")
		}
		value = string(data)
	}
	if err := c.client.rdb.Set(ctx, c.fullKey(kind, key), value, c.jitterTTL(c.ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}
