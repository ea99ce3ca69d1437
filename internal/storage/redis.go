package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photoshare/internal/observability"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the session keys.
const DefaultRedisPrefix = "photoshare:session:"

// Redis stores the record as two string keys. Saves run in a MULTI/EXEC
// pipeline and clears are a single DEL, so both keys always change together.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// DialRedis connects to addr, which may be a host:port or a redis:// URL, and
// verifies the connection with a PING.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.StorageErrors.WithLabelValues("redis", cmd.Name()).Inc()
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.StorageErrors.WithLabelValues("redis", "pipeline").Inc()
		}
		return err
	}
}

func (r *Redis) tokenKey() string { return r.prefix + KeyToken }
func (r *Redis) roleKey() string  { return r.prefix + KeyRole }

func (r *Redis) Load(ctx context.Context) (Record, error) {
	vals, err := r.client.MGet(ctx, r.tokenKey(), r.roleKey()).Result()
	if err != nil {
		return Record{}, fmt.Errorf("load session keys: %w", err)
	}
	var rec Record
	if len(vals) == 2 {
		rec.Token, _ = vals[0].(string)
		rec.Role, _ = vals[1].(string)
	}
	return rec, nil
}

func (r *Redis) Save(ctx context.Context, rec Record) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.MSet(ctx, r.tokenKey(), rec.Token, r.roleKey(), rec.Role)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session keys: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.roleKey()).Err(); err != nil {
		return fmt.Errorf("clear session keys: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
