// Package kv defines the key-value contract the newsletter service persists
// through, together with an in-memory implementation.
//
// A Store offers four primitives: Get, Put (with an optional TTL), Delete and
// List by key prefix. There are no multi-key transactions and no conditional
// writes; callers accept last-write-wins semantics.
//
// Backends:
//   - kv.Memory: process-local map, used for development and tests
//   - redis.Storage (pkg/redis): Redis via go-redis
//   - pg.Storage (pkg/pg): a PostgreSQL table via pgx
//
// GetJSON and PutJSON wrap the byte-level API for JSON encoded records:
//
//	var sub Subscriber
//	if err := kv.GetJSON(ctx, store, "subscriber:a@example.com", &sub); err != nil {
//	    if errors.Is(err, kv.ErrNotFound) {
//	        // absent
//	    }
//	}
package kv
