package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"mrchooks/backend/internal/logging"
)

// Redis is a Cache backed by go-redis. Calls go through a circuit breaker
// so an unreachable Redis fails fast instead of stalling every catalog read.
type Redis struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func NewRedis(addr string, password string, db int, bs BreakerSettings) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return newRedisWithClient(client, bs)
}

func newRedisWithClient(client *redis.Client, bs BreakerSettings) *Redis {
	if bs.FailureThreshold == 0 {
		bs.FailureThreshold = 5
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}
	log := logging.With("cache")
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cache breaker state change")
		},
	})
	return &Redis{client: client, breaker: breaker}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.breaker.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is not a failure for the breaker.
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return nil, false, err
	}
	if val == nil {
		return nil, false, nil
	}
	return val, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, value, ttl).Err()
	})
	return err
}

func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	return err
}
