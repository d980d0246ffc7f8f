// Package cache stores raw feed responses for a short time so repeated
// explanations and validation runs do not hammer upstream APIs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Store is a TTL key/value cache. Values round-trip through JSON.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Fetch returns the cached value for key, or calls load and caches its
// result for ttl. Cache read and write failures fall through to load.
func Fetch[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if s != nil {
		if err := s.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if s != nil {
		_ = s.Set(ctx, key, v, ttl)
	}
	return v, nil
}

// Key joins parts into a namespaced cache key.
func Key(namespace string, parts ...any) string {
	k := namespace
	for _, p := range parts {
		switch v := p.(type) {
		case time.Time:
			k += ":" + fmt.Sprint(v.Unix())
		default:
			k += ":" + fmt.Sprint(v)
		}
	}
	return k
}

func encode(value any) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}

func decode(data []byte, dest any) error {
	if p, ok := dest.(*string); ok {
		*p = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}
