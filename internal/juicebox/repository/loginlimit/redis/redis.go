package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed logins per username in a fixed window.
type LoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
}

func New(ctx context.Context, cfg config.LoginLimit) (LoginLimiter, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redistools.Connect(ctx, rdb); err != nil {
		return LoginLimiter{}, fmt.Errorf("connect error: %w", err)
	}

	return NewWithClient(rdb, cfg.MaxAttempts, cfg.Window), nil
}

func NewWithClient(rdb *redis.Client, maxAttempts int, window time.Duration) LoginLimiter {
	return LoginLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (ll LoginLimiter) Blocked(ctx context.Context, username string) (bool, error) {
	n, err := ll.rdb.Get(ctx, key(username)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("get error: %w", err)
	}

	return ll.maxAttempts > 0 && n >= ll.maxAttempts, nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (ll LoginLimiter) Fail(ctx context.Context, username string) error {
	k := key(username)

	_, err := ll.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, ll.window)

		return nil
	})
	if err != nil {
		return fmt.Errorf("incr error: %w", err)
	}

	return nil
}

func (ll LoginLimiter) Reset(ctx context.Context, username string) error {
	if _, err := ll.rdb.Del(ctx, key(username)).Result(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}

func (ll LoginLimiter) Shutdown(_ context.Context) error {
	if err := ll.rdb.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}

	return nil
}

func key(username string) string {
	return fmt.Sprintf("login:failed:%s", username) //nolint:perfsprint
}
