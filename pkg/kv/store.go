package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Store is a flat key-value namespace.
// Get returns ErrNotFound for missing or expired keys.
// A zero ttl passed to Put means the key never expires.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a readiness probe for the store.
// Stores without a Ping method are always considered healthy.
func Healthcheck(s Store) func(context.Context) error {
	return func(ctx context.Context) error {
		if s == nil {
			return ErrUnavailable
		}
		if p, ok := s.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return errors.Join(ErrUnavailable, err)
			}
		}
		return nil
	}
}

// GetJSON loads key and decodes it into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data, ttl)
}
