// Package subscriber implements the newsletter subscriber lifecycle.
//
// Records live in a kv.Store under "subscriber:<email>" and move through
// pending, active and unsubscribed. Every Service operation looks the record
// up, asks the lifecycle table (lifecycle.go) for the next state and only then
// writes. Rejections come back as *Error values whose Kind the HTTP layer maps
// to a status code:
//
//	res, err := svc.Subscribe(ctx, subscriber.SubscribeInput{Email: "a@example.com"})
//	if e, ok := subscriber.AsError(err); ok {
//	    // e.Kind == subscriber.KindConflict, e.Message is client-safe
//	}
//
// Token lookups are linear scans over every record; the KV store has no
// secondary indexes. The aggregate "subscriber_count" counter is a plain
// read-modify-write and may drift under concurrent updates.
package subscriber
