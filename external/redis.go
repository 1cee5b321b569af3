package external

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/logging"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// KeyPrefix namespaces the container hashes. Defaults to "bpmcore".
	KeyPrefix string
	// TTL expires a container hash after its last write. Zero keeps it.
	TTL time.Duration
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

// RedisStore is a KVStore keeping one hash per container.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	log    logging.Logger
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb goredis.UniversalClient, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{KeyPrefix: "bpmcore"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{
		rdb:    rdb,
		prefix: opts.KeyPrefix,
		ttl:    opts.TTL,
		log:    logging.OrNoOp(opts.Logger),
	}
}

// DialRedis connects to addr and verifies the connection with a ping.
func DialRedis(ctx context.Context, addr string, optFns ...func(o *RedisOptions)) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(rdb, optFns...), nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) key(c core.Container) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, c.Type, c.ID)
}

// Get implements core.KVStore.
func (s *RedisStore) Get(ctx context.Context, c core.Container, names []string) (map[string]any, error) {
	out := make(map[string]any, len(names))
	if len(names) == 0 {
		return out, nil
	}
	raw, err := s.rdb.HMGet(ctx, s.key(c), names...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(str), &decoded); err != nil {
			return nil, fmt.Errorf("decode external data [%s]: %w", names[i], err)
		}
		out[names[i]] = decoded
	}
	return out, nil
}

// Put implements core.KVStore.
func (s *RedisStore) Put(ctx context.Context, c core.Container, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode external data [%s]: %w", name, err)
	}
	key := s.key(c)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, name, raw)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	s.log.Debug("external.put", "key", key, "field", name)
	return nil
}

// Delete implements core.KVStore.
func (s *RedisStore) Delete(ctx context.Context, c core.Container, name string) error {
	n, err := s.rdb.HDel(ctx, s.key(c), name).Result()
	if err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("external data [%s]: %w", name, core.ErrNotFound)
	}
	return nil
}

var _ core.KVStore = (*RedisStore)(nil)
