package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/pkg/token"
)

const (
	keyPrefix       = "subscriber:"
	countKey        = "subscriber_count"
	confirmedPrefix = "confirmed:"
	unsubbedPrefix  = "unsubscribed:"
)

// SpentUnsubscribeTTL is how long a used unsubscribe link keeps answering
// "already unsubscribed". Such links live in old emails, so it is long.
const SpentUnsubscribeTTL = 30 * 24 * time.Hour

// Key returns the KV key of a subscriber record.
func Key(email string) string {
	return keyPrefix + email
}

// Store reads and writes subscriber records and the aggregate counter.
// There are no secondary indexes: token lookups scan every record.
type Store struct {
	kv kv.Store
}

// NewStore wraps a key-value store.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Get returns ErrNotFound when there is no record for email.
func (s *Store) Get(ctx context.Context, email string) (*Subscriber, error) {
	var sub Subscriber
	if err := kv.GetJSON(ctx, s.kv, Key(email), &sub); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return &sub, nil
}

// Put writes sub under its email key, without expiry.
func (s *Store) Put(ctx context.Context, sub *Subscriber) error {
	if err := kv.PutJSON(ctx, s.kv, Key(sub.Email), sub, 0); err != nil {
		return fmt.Errorf("put subscriber: %w", err)
	}
	return nil
}

// Delete removes the record for email. Missing records are not an error.
func (s *Store) Delete(ctx context.Context, email string) error {
	if err := s.kv.Delete(ctx, Key(email)); err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return nil
}

// FindByConfirmationToken scans all records for a matching confirmation token.
func (s *Store) FindByConfirmationToken(ctx context.Context, token string) (*Subscriber, error) {
	return s.find(ctx, func(sub *Subscriber) bool {
		return sub.ConfirmationToken != "" && sub.ConfirmationToken == token
	})
}

// FindByUnsubscribeToken scans all records for a matching unsubscribe token.
func (s *Store) FindByUnsubscribeToken(ctx context.Context, token string) (*Subscriber, error) {
	return s.find(ctx, func(sub *Subscriber) bool {
		return sub.UnsubscribeToken != "" && sub.UnsubscribeToken == token
	})
}

func (s *Store) find(ctx context.Context, match func(*Subscriber) bool) (*Subscriber, error) {
	var found *Subscriber
	err := s.each(ctx, func(sub *Subscriber) bool {
		if match(sub) {
			found = sub
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// All loads every subscriber record.
func (s *Store) All(ctx context.Context) ([]*Subscriber, error) {
	var subs []*Subscriber
	err := s.each(ctx, func(sub *Subscriber) bool {
		subs = append(subs, sub)
		return true
	})
	return subs, err
}

// each visits records in key order until fn returns false. Keys that vanish
// between List and Get are skipped; undecodable records are skipped too so
// one corrupt value cannot take down listings and token lookups.
func (s *Store) each(ctx context.Context, fn func(*Subscriber) bool) error {
	keys, err := s.kv.List(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	for _, key := range keys {
		data, err := s.kv.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("get subscriber: %w", err)
		}
		var sub Subscriber
		if err := json.Unmarshal(data, &sub); err != nil {
			continue
		}
		if sub.Email == "" {
			sub.Email = strings.TrimPrefix(key, keyPrefix)
		}
		if !fn(&sub) {
			return nil
		}
	}
	return nil
}

// Count returns the aggregate counter; a missing or unparsable value is 0.
func (s *Store) Count(ctx context.Context) (int, error) {
	data, err := s.kv.Get(ctx, countKey)
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get subscriber count: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// IncrementCount adds delta to the counter, never going below zero.
// It is a plain read-modify-write; concurrent updates may be lost.
func (s *Store) IncrementCount(ctx context.Context, delta int) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	n = max(0, n+delta)
	if err := s.kv.Put(ctx, countKey, []byte(strconv.Itoa(n)), 0); err != nil {
		return 0, fmt.Errorf("put subscriber count: %w", err)
	}
	return n, nil
}

// MarkConfirmed remembers which address a spent confirmation token belonged
// to, for as long as the token could have been valid. Repeated confirmations
// of the same link can then be answered as "already confirmed".
func (s *Store) MarkConfirmed(ctx context.Context, tok, email string) error {
	return s.markSpent(ctx, confirmedPrefix, tok, email, token.TTL)
}

// ConfirmedBy returns the address that spent tok, or ErrNotFound.
func (s *Store) ConfirmedBy(ctx context.Context, tok string) (string, error) {
	return s.spentBy(ctx, confirmedPrefix, tok)
}

// MarkUnsubscribed is MarkConfirmed for unsubscribe tokens.
func (s *Store) MarkUnsubscribed(ctx context.Context, tok, email string) error {
	return s.markSpent(ctx, unsubbedPrefix, tok, email, SpentUnsubscribeTTL)
}

// UnsubscribedBy returns the address that spent the unsubscribe token tok.
func (s *Store) UnsubscribedBy(ctx context.Context, tok string) (string, error) {
	return s.spentBy(ctx, unsubbedPrefix, tok)
}

func (s *Store) markSpent(ctx context.Context, prefix, tok, email string, ttl time.Duration) error {
	if err := s.kv.Put(ctx, prefix+tok, []byte(email), ttl); err != nil {
		return fmt.Errorf("mark token spent: %w", err)
	}
	return nil
}

func (s *Store) spentBy(ctx context.Context, prefix, tok string) (string, error) {
	if tok == "" {
		return "", ErrNotFound
	}
	data, err := s.kv.Get(ctx, prefix+tok)
	if errors.Is(err, kv.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get spent token: %w", err)
	}
	return string(data), nil
}
