package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	if err := c.Set(ctx, KeyProducts, []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.Get(ctx, KeyProducts); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestRedisBreakerOpensWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := newRedisWithClient(client, BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, _, err := c.Get(ctx, KeyProducts); err == nil {
			t.Fatalf("expected dial error on attempt %d", i)
		}
	}

	_, _, err := c.Get(ctx, KeyProducts)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
}
