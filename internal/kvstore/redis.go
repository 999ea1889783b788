package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis stores each key under a namespace prefix. Values larger than
// maxValueBytes, and writes rejected by a full server, map to
// ErrQuotaExceeded.
type Redis struct {
	client        redis.Cmdable
	prefix        string
	maxValueBytes int
}

func NewRedis(client redis.Cmdable, prefix string, maxValueBytes int) *Redis {
	return &Redis{client: client, prefix: prefix, maxValueBytes: maxValueBytes}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if r.maxValueBytes > 0 && len(value) > r.maxValueBytes {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", ErrQuotaExceeded, key, len(value), r.maxValueBytes)
	}
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		if isOutOfMemory(err) {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.prefix+prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, r.prefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(keys)
	return keys, nil
}

func isOutOfMemory(err error) bool {
	return strings.HasPrefix(err.Error(), "OOM ")
}
