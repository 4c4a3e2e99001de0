package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/TomaTV/taquiz.fr/pkg/cache"
)

// RedisStore keeps each document in one Redis hash: the document root
// ("sessions/{id}") is the hash key and the remaining path segments are the
// hash field. Writes fan out to watchers through a pub/sub channel per
// document; subscribers re-read on every notification, so a dropped message
// is caught up by the next one.
type RedisStore struct {
	cache *cache.RedisClient
}

func NewRedisStore(c *cache.RedisClient) *RedisStore {
	return &RedisStore{cache: c}
}

func (s *RedisStore) Put(ctx context.Context, path string, value []byte) error {
	key, field := splitDoc(path)
	if err := s.cache.HSet(ctx, key, field, value); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, path, err)
	}
	return s.notify(ctx, key)
}

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	key, field := splitDoc(path)
	v, err := s.cache.HGet(ctx, key, field)
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, path, err)
	}
	return []byte(v), nil
}

func (s *RedisStore) Snapshot(ctx context.Context, prefix string) (map[string][]byte, error) {
	key, field := splitDoc(prefix)
	fields, err := s.cache.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %v", ErrUnavailable, prefix, err)
	}

	out := make(map[string][]byte)
	for f, v := range fields {
		if field == "" || under(f, field) {
			out[key+"/"+f] = []byte(v)
		}
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, prefix string) error {
	key, field := splitDoc(prefix)
	names, err := s.cache.HKeys(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, prefix, err)
	}

	var doomed []string
	for _, f := range names {
		if field == "" || under(f, field) {
			doomed = append(doomed, f)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	if err := s.cache.HDel(ctx, key, doomed...); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, prefix, err)
	}
	return s.notify(ctx, key)
}

func (s *RedisStore) Watch(ctx context.Context, path string, onChange func()) (func(), error) {
	key := DocRoot(path)
	pubsub := s.cache.Subscribe(ctx, changeChannel(key))

	// Confirm the subscription before returning so no write committed
	// after Watch returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("%w: watch %s: %v", ErrUnavailable, path, err)
	}

	go func() {
		for range pubsub.Channel() {
			onChange()
		}
	}()

	cancel := func() {
		pubsub.Close()
	}
	return cancel, nil
}

func (s *RedisStore) notify(ctx context.Context, key string) error {
	if err := s.cache.Publish(ctx, changeChannel(key), "1"); err != nil {
		return fmt.Errorf("%w: notify %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func changeChannel(docKey string) string {
	return "updates:" + docKey
}

// splitDoc separates a path into its hash key (first two segments) and
// hash field (the rest, empty when the path is a document root).
func splitDoc(path string) (key, field string) {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 2 {
		return path, ""
	}
	key = parts[0] + "/" + parts[1]
	if len(parts) == 3 {
		field = parts[2]
	}
	return key, field
}
