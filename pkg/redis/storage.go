package redis

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/newsletter/pkg/kv"
)

// Storage implements kv.Store on top of a Redis client.
// Every key is stored under the configured prefix so several deployments
// can share one database.
type Storage struct {
	db            redis.UniversalClient
	prefix        string
	scanBatchSize int64
}

var _ kv.Store = (*Storage)(nil)

// NewStorage wraps client with the prefix and scan settings from cfg.
func NewStorage(client redis.UniversalClient, cfg Config) *Storage {
	batch := int64(cfg.ScanBatchSize)
	if batch <= 0 {
		batch = 500
	}
	return &Storage{
		db:            client,
		prefix:        cfg.KeyPrefix,
		scanBatchSize: batch,
	}
}

// Get returns kv.ErrNotFound when the key does not exist (redis.Nil).
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, kv.ErrEmptyKey
	}
	val, err := s.db.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(kv.ErrUnavailable, ErrOperationFailed, err)
	}
	return val, nil
}

// Put stores value with expiration ttl. Zero ttl means no expiration.
func (s *Storage) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if err := s.db.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return errors.Join(kv.ErrUnavailable, ErrOperationFailed, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if err := s.db.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(kv.ErrUnavailable, ErrOperationFailed, err)
	}
	return nil
}

// List walks the keyspace with SCAN so large namespaces never block Redis.
// Returned keys have the storage prefix stripped.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(s.prefix+prefix) + "*"

	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.db.Scan(ctx, cursor, match, s.scanBatchSize).Result()
		if err != nil {
			return nil, errors.Join(kv.ErrUnavailable, ErrOperationFailed, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return uniqueKeys(keys), nil
}

// uniqueKeys drops the repeats SCAN is allowed to return.
func uniqueKeys(keys []string) []string {
	slices.Sort(keys)
	return slices.Compact(keys)
}

// Ping satisfies kv.Pinger.
func (s *Storage) Ping(ctx context.Context) error {
	return Healthcheck(s.db)(ctx)
}

// Close terminates the underlying client.
func (s *Storage) Close() error {
	return s.db.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
