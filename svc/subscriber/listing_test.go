package subscriber_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

func seed(t *testing.T, f *fixture, n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		status := subscriber.StatusActive
		switch i % 3 {
		case 1:
			status = subscriber.StatusPending
		case 2:
			status = subscriber.StatusUnsubscribed
		}
		require.NoError(t, f.svc.Store().Put(ctx, &subscriber.Subscriber{
			Email:        fmt.Sprintf("user%02d@example.com", i),
			SubscribedAt: base.Add(time.Duration(i) * time.Hour),
			Status:       status,
		}))
	}
}

func TestService_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	seed(t, f, 7)

	page, err := f.svc.List(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, page.Subscribers, 3)
	assert.Equal(t, "user06@example.com", page.Subscribers[0].Email, "newest first")
	assert.Equal(t, "user04@example.com", page.Subscribers[2].Email)
	assert.Equal(t, subscriber.Pagination{
		CurrentPage: 1, TotalPages: 3, TotalCount: 7, Limit: 3, HasNext: true, HasPrevious: false,
	}, page.Pagination)

	last, err := f.svc.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, last.Subscribers, 1)
	assert.Equal(t, "user00@example.com", last.Subscribers[0].Email)
	assert.False(t, last.Pagination.HasNext)
	assert.True(t, last.Pagination.HasPrevious)

	beyond, err := f.svc.List(ctx, 9, 3)
	require.NoError(t, err)
	assert.Empty(t, beyond.Subscribers)
	assert.NotNil(t, beyond.Subscribers)
}

func TestService_ListPageBeyondRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	seed(t, f, 2)

	for _, page := range []int{math.MaxInt, math.MaxInt / 20, 3} {
		var (
			res subscriber.Page
			err error
		)
		require.NotPanics(t, func() { res, err = f.svc.List(ctx, page, 20) })
		require.NoError(t, err)
		assert.Empty(t, res.Subscribers)
		assert.Equal(t, page, res.Pagination.CurrentPage)
		assert.Equal(t, 1, res.Pagination.TotalPages)
		assert.Equal(t, 2, res.Pagination.TotalCount)
		assert.False(t, res.Pagination.HasNext)

		require.NotPanics(t, func() { res, err = f.svc.ListMasked(ctx, page, 20) })
		require.NoError(t, err)
		assert.Empty(t, res.Subscribers)
	}
}

func TestService_ListDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seed(t, f, 2)

	page, err := f.svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, subscriber.DefaultPageLimit, page.Pagination.Limit)

	page, err = f.svc.List(context.Background(), 1, 10_000)
	require.NoError(t, err)
	assert.Equal(t, subscriber.MaxPageLimit, page.Pagination.Limit)

	empty, err := newFixture(t).svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
	assert.False(t, empty.Pagination.HasNext)
}

func TestService_ListMasked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seed(t, f, 3)

	page, err := f.svc.ListMasked(context.Background(), 1, 500)
	require.NoError(t, err)
	assert.Equal(t, subscriber.MaskedListLimit, page.Pagination.Limit)
	require.Len(t, page.Subscribers, 3)
	for _, item := range page.Subscribers {
		assert.Regexp(t, `^us\*\*\*@example\.com$`, item.Email)
		assert.Nil(t, item.ConfirmedAt)
	}
}

func TestService_StatsAndActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	seed(t, f, 7)
	_, err := f.svc.Store().IncrementCount(ctx, 2)
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, subscriber.Stats{Total: 7, Active: 3, Pending: 2, Unsubscribed: 2, Counter: 2}, st)

	active, err := f.svc.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	for _, sub := range active {
		assert.True(t, sub.IsActive())
	}
}
