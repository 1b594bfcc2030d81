package subscriber

import (
	"cmp"
	"context"
	"slices"
	"time"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaskedListLimit bounds the masked listing, which is meant as a preview.
	MaskedListLimit = 50
)

// ListItem is the admin view of a subscriber.
type ListItem struct {
	Email          string     `json:"email"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	Status         Status     `json:"status"`
	ConfirmedAt    *time.Time `json:"confirmedAt,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}

// Pagination describes where a Page sits in the full listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// Page is one page of a listing.
type Page struct {
	Subscribers []ListItem `json:"subscribers"`
	Pagination  Pagination `json:"pagination"`
}

// Stats are per-status totals from a full scan, next to the stored counter.
type Stats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Active       int `json:"active"`
	Unsubscribed int `json:"unsubscribed"`
	Counter      int `json:"counter"`
}

// List returns one page of subscribers, newest first. page and limit are
// clamped to sane values.
func (s *Service) List(ctx context.Context, page, limit int) (Page, error) {
	subs, err := s.sorted(ctx)
	if err != nil {
		return Page{}, err
	}
	return paginate(subs, page, clampLimit(limit, MaxPageLimit), func(sub *Subscriber) ListItem {
		return ListItem{
			Email:          sub.Email,
			SubscribedAt:   sub.SubscribedAt,
			Status:         sub.Status,
			ConfirmedAt:    sub.ConfirmedAt,
			TokenExpiresAt: sub.TokenExpiresAt,
		}
	}), nil
}

// ListMasked is List with masked addresses and no token metadata.
func (s *Service) ListMasked(ctx context.Context, page, limit int) (Page, error) {
	subs, err := s.sorted(ctx)
	if err != nil {
		return Page{}, err
	}
	return paginate(subs, page, clampLimit(limit, MaskedListLimit), func(sub *Subscriber) ListItem {
		return ListItem{
			Email:        MaskEmail(sub.Email),
			SubscribedAt: sub.SubscribedAt,
			Status:       sub.Status,
		}
	}), nil
}

// Count returns the stored aggregate counter.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, storeError(err, MsgListFailed)
	}
	return n, nil
}

// Stats counts subscribers per status by scanning every record, and
// reports the stored counter next to the totals.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	subs, err := s.store.All(ctx)
	if err != nil {
		return Stats{}, storeError(err, MsgListFailed)
	}
	st := Stats{Total: len(subs)}
	for _, sub := range subs {
		switch sub.Status {
		case StatusPending:
			st.Pending++
		case StatusActive:
			st.Active++
		case StatusUnsubscribed:
			st.Unsubscribed++
		}
	}
	if st.Counter, err = s.store.Count(ctx); err != nil {
		return Stats{}, storeError(err, MsgListFailed)
	}
	return st, nil
}

// Active returns every active subscriber.
func (s *Service) Active(ctx context.Context) ([]*Subscriber, error) {
	subs, err := s.store.All(ctx)
	if err != nil {
		return nil, storeError(err, MsgListFailed)
	}
	return slices.DeleteFunc(subs, func(sub *Subscriber) bool { return !sub.IsActive() }), nil
}

func (s *Service) sorted(ctx context.Context) ([]*Subscriber, error) {
	subs, err := s.store.All(ctx)
	if err != nil {
		return nil, storeError(err, MsgListFailed)
	}
	slices.SortStableFunc(subs, func(a, b *Subscriber) int {
		if c := b.SubscribedAt.Compare(a.SubscribedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Email, b.Email)
	})
	return subs, nil
}

func clampLimit(limit, maxLimit int) int {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return min(limit, maxLimit)
}

func paginate(subs []*Subscriber, page, limit int, view func(*Subscriber) ListItem) Page {
	total := len(subs)
	totalPages := (total + limit - 1) / limit
	if page < 1 {
		page = 1
	}

	items := []ListItem{}
	// Checked before multiplying so huge page numbers cannot overflow the offset.
	if page <= totalPages {
		offset := (page - 1) * limit
		for _, sub := range subs[offset:min(offset+limit, total)] {
			items = append(items, view(sub))
		}
	}

	return Page{
		Subscribers: items,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalCount:  total,
			Limit:       limit,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	}
}
