package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/foodielens/dishbook/internal/usecase"
)

var tracer = otel.Tracer("lock")

const keyPrefix = "dishbook:lock:"

// release deletes the key only while it still holds our token, so a holder
// whose TTL expired cannot free a lock someone else has since taken.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extend pushes the expiry out only while the key still holds our token.
var extend = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis serializes holders across processes sharing one redis. The TTL bounds
// how long a crashed holder can block others; a live holder keeps extending it
// until it unlocks.
type Redis struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
}

func NewRedis(rdb *redis.Client, ttl, retry time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &Redis{rdb: rdb, ttl: ttl, retry: retry}
}

func (l *Redis) Lock(ctx context.Context, name string) (func(), error) {
	ctx, span := tracer.Start(ctx, "Lock.Redis.Lock")
	defer span.End()

	key := keyPrefix + name
	token := uuid.NewString()
	span.SetAttributes(attribute.String("key", key))

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("lock %s: %w", name, err)
		}
		if ok {
			span.SetAttributes(attribute.Int("attempts", attempt))
			break
		}

		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// the caller's ctx may already be cancelled; release regardless
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
				slog.Error(
					"failed to release lock",
					slog.String("key", key),
					slog.String("error", err.Error()),
					slog.String("module", "lock"),
				)
			}
		})
	}, nil
}

// keepAlive refreshes the TTL every third of its length until stop is closed.
func (l *Redis) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extend.Run(ctx, l.rdb, []string{key}, token, l.ttl.Milliseconds()).Int64()
		cancel()
		if err != nil {
			slog.Warn(
				"failed to extend lock",
				slog.String("key", key),
				slog.String("error", err.Error()),
				slog.String("module", "lock"),
			)
			continue
		}
		if n == 0 {
			slog.Error(
				"lock lost before unlock",
				slog.String("key", key),
				slog.String("module", "lock"),
			)
			return
		}
	}
}

var _ usecase.Locker = (*Redis)(nil)
