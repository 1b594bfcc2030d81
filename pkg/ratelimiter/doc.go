// Package ratelimiter throttles clients with a token bucket.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request spends one token; a request arriving at an
// empty bucket is denied until the next refill.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//
//	r.With(ratelimiter.Middleware(limiter, keyByIP, deny)).Post("/auth", login)
//
// Middleware fails open: a store error lets the request through.
package ratelimiter
