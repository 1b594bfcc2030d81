// Package pg provides a PostgreSQL backed kv.Store built on pgx/v5.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies the embedded
// goose migrations (a single kv_entries table), and Storage implements the
// kv.Store contract on that table. TTLs are stored as an expires_at column;
// reads filter expired rows and PurgeExpired reclaims them.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pg.NewStorage(pool)
//
// Underscore and percent characters in List prefixes are escaped, so
// "subscriber_" does not match "subscriberX".
package pg
