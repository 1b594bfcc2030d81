// Package redis connects to Redis and exposes it as a kv.Store.
//
// Connect retries until the server answers a PING, Storage implements the
// kv.Store contract (Get, Put with TTL, Delete, prefix List via SCAN), and
// Healthcheck plugs the client into readiness probes.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := redis.NewStorage(client, cfg)
//	defer store.Close()
//
// All keys written through Storage carry cfg.KeyPrefix ("newsletter:" by
// default). List strips the prefix again, so callers only ever see their own
// key names.
//
// Errors from go-redis are joined with the package sentinels
// (ErrRedisNotReady, ErrOperationFailed, ...) and can be matched with errors.Is.
package redis
