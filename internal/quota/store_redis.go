package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Reserva un cupo solo si el contador sigue por debajo del limite.
// Devuelve -1 cuando el cupo esta agotado.
const redisReserveScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
  return -1
end
return redis.call("INCR", KEYS[1])
`

// Devuelve un cupo reservado sin dejar el contador por debajo de cero.
const redisReleaseScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current <= 0 then
  return 0
end
return redis.call("DECR", KEYS[1])
`

type redisStore struct {
	client redisCmdable
	key    string
	limit  int
}

type redisCmdable interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// NewRedisStore construye un Store respaldado por Redis. El limite es
// fijo por configuración; el contador vive bajo CounterKey.
func NewRedisStore(client *redis.Client, limit int) Store {
	if client == nil {
		return nil
	}
	if limit <= 0 {
		limit = 100
	}
	return &redisStore{
		client: client,
		key:    CounterKey,
		limit:  limit,
	}
}

func (s *redisStore) Snapshot(ctx context.Context) (Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{Registered: 0, Limit: s.limit}, nil
		}
		return Snapshot{}, fmt.Errorf("read counter: %w", err)
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		count = 0
	}
	return Snapshot{Registered: count, Limit: s.limit}, nil
}

func (s *redisStore) Reserve(ctx context.Context) (bool, error) {
	res, err := s.client.Eval(ctx, redisReserveScript, []string{s.key}, s.limit).Int()
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return res >= 0, nil
}

func (s *redisStore) Release(ctx context.Context) error {
	if err := s.client.Eval(ctx, redisReleaseScript, []string{s.key}).Err(); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}
