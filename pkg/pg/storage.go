package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/newsletter/pkg/kv"
)

// DB is the subset of *pgxpool.Pool used by Storage.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	getQuery = `SELECT value FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`
	putQuery = `INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`
	deleteQuery = `DELETE FROM kv_entries WHERE key = $1`
	listQuery   = `SELECT key FROM kv_entries
		WHERE key LIKE $1 ESCAPE '\' AND (expires_at IS NULL OR expires_at > now())
		ORDER BY key`
	purgeQuery = `DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= now()`
)

// Storage implements kv.Store on the kv_entries table created by Migrate.
// Expired rows are invisible to reads and removed by PurgeExpired.
type Storage struct {
	db DB
}

var _ kv.Store = (*Storage)(nil)

func NewStorage(db DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, kv.ErrEmptyKey
	}
	var value []byte
	if err := s.db.QueryRow(ctx, getQuery, key).Scan(&value); err != nil {
		if IsNotFoundError(err) {
			return nil, kv.ErrNotFound
		}
		return nil, errors.Join(kv.ErrUnavailable, ErrQueryFailed, err)
	}
	return value, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}
	if _, err := s.db.Exec(ctx, putQuery, key, value, expiresAt); err != nil {
		return errors.Join(kv.ErrUnavailable, ErrQueryFailed, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if _, err := s.db.Exec(ctx, deleteQuery, key); err != nil {
		return errors.Join(kv.ErrUnavailable, ErrQueryFailed, err)
	}
	return nil
}

func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Query(ctx, listQuery, escapeLike(prefix)+"%")
	if err != nil {
		return nil, errors.Join(kv.ErrUnavailable, ErrQueryFailed, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(kv.ErrUnavailable, ErrQueryFailed, err)
	}
	return keys, nil
}

// PurgeExpired deletes rows whose TTL has passed and returns how many were removed.
func (s *Storage) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, purgeQuery)
	if err != nil {
		return 0, errors.Join(kv.ErrUnavailable, ErrQueryFailed, err)
	}
	return tag.RowsAffected(), nil
}

// Ping satisfies kv.Pinger.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
