package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blackneinnn-ctrl/oreteki-game-news/internal/domain"
)

const defaultKey = "generation:progress"

// RedisSink хранит запись прогресса в одном ключе Redis:
// один писатель, последняя запись побеждает.
type RedisSink struct {
	client *redis.Client
	key    string
}

var _ domain.ProgressSink = (*RedisSink)(nil)

// NewRedisSink создаёт хранилище прогресса.
func NewRedisSink(client *redis.Client, key string) *RedisSink {
	if key == "" {
		key = defaultKey
	}
	return &RedisSink{client: client, key: key}
}

// Publish перезаписывает запись прогресса.
func (s *RedisSink) Publish(ctx context.Context, p domain.Progress) error {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// Current возвращает последнюю запись прогресса.
// Если записей ещё не было, возвращается статус idle.
func (s *RedisSink) Current(ctx context.Context) (domain.Progress, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Progress{Status: domain.ProgressIdle, Message: "ожидание", Timestamp: time.Now().UTC()}, nil
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("get progress: %w", err)
	}
	var p domain.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Progress{}, fmt.Errorf("decode progress: %w", err)
	}
	return p, nil
}

// RedisRunLock не даёт выполняться двум запускам конвейера одновременно.
type RedisRunLock struct {
	client *redis.Client
	key    string
}

var _ domain.RunLock = (*RedisRunLock)(nil)

// NewRedisRunLock создаёт блокировку запуска.
func NewRedisRunLock(client *redis.Client, key string) *RedisRunLock {
	if key == "" {
		key = "generation:lock"
	}
	return &RedisRunLock{client: client, key: key}
}

// Acquire берёт блокировку с TTL. Возвращает false, если запуск уже идёт.
func (l *RedisRunLock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	return ok, nil
}

// Release снимает блокировку.
func (l *RedisRunLock) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}
