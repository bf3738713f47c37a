package profiles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisClient parses cfg.URL and applies the configured timeouts
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout

	return redis.NewClient(opts), nil
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger logging.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logging.OrGlobal(logger)}
}

func lockKey(key string) string {
	return fmt.Sprintf("malt:acquisition:lock:%s", key)
}

// TryLock sets the key with NX and a TTL, so a crashed holder frees it on expiry
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	k := lockKey(key)

	ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to take lock %s: %w", k, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// release even when the request ctx is gone
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{k}, token).Err(); err != nil {
			l.logger.Warn("Failed to release acquisition lock", map[string]interface{}{
				"key":   k,
				"error": err.Error(),
			})
		}
	}
	return unlock, true, nil
}

// Ping checks the connection
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
