// Package cache opens the Redis client used for chat fan-out and rate
// limiting. With no address configured it starts an embedded miniredis, which
// is enough for a single instance.
package cache

import (
	"context"
	"fmt"

	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Client   *redis.Client
	embedded *miniredis.Miniredis
}

func Open(ctx context.Context, addr string, log logging.Logger) (*Redis, error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded redis: %w", err)
		}
		log.Info(ctx, "embedded redis started", "addr", mr.Addr())
		return &Redis{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}), embedded: mr}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	log.Info(ctx, "connected to redis", "addr", addr)
	return &Redis{Client: client}, nil
}

func (r *Redis) Embedded() bool { return r.embedded != nil }

func (r *Redis) Close() error {
	err := r.Client.Close()
	if r.embedded != nil {
		r.embedded.Close()
	}
	return err
}
