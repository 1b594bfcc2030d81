// Package token issues the opaque tokens used by the subscription flow.
//
// Confirmation and unsubscribe tokens are random UUIDs: they carry no payload
// and are only meaningful as a lookup key stored next to the subscriber
// record. Confirmation tokens are valid for TTL (24 hours) after issuance;
// expiry is strict, so a token is still accepted at the exact instant it
// expires.
//
// # Usage
//
//	import "github.com/dmitrymomot/newsletter/pkg/token"
//
//	tok := token.Generate()
//	expiresAt := token.Expiry(time.Now())
//
//	if token.IsExpired(expiresAt, time.Now()) {
//	    // ask the subscriber to start over
//	}
//
// Admin sessions use longer hex tokens produced by Random.
package token
