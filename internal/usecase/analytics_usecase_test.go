package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain/entity"
	"gigmarket/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBucketStart(t *testing.T) {
	// 2026-05-06 is a Wednesday.
	at := time.Date(2026, 5, 6, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, day(2026, 5, 6), bucketStart(at, IntervalDay))
	assert.Equal(t, day(2026, 5, 4), bucketStart(at, IntervalWeek))
	assert.Equal(t, day(2026, 5, 1), bucketStart(at, IntervalMonth))
	assert.Equal(t, day(2026, 5, 4), bucketStart(day(2026, 5, 10), IntervalWeek), "Sunday belongs to the week before")
}

func TestBuildBucketsZeroFillsRange(t *testing.T) {
	buckets := buildBuckets(day(2026, 1, 30), day(2026, 4, 2), IntervalMonth)

	assert.Equal(t, []time.Time{day(2026, 1, 1), day(2026, 2, 1), day(2026, 3, 1), day(2026, 4, 1)}, buckets)
}

type analyticsFixture struct {
	uc     *AnalyticsUseCase
	users  *fakeUserRepo
	gigs   *fakeGigRepo
	orders *fakeOrderRepo
}

func newAnalyticsFixture() *analyticsFixture {
	completedAt := func(t time.Time) *time.Time { return &t }
	users := newFakeUserRepo(
		&entity.User{ID: "u1", Email: "u1@x", Role: entity.RoleClient, IsActive: true, CreatedAt: day(2026, 5, 1)},
		&entity.User{ID: "u2", Email: "u2@x", Role: entity.RoleClient, IsActive: true, IsSuspended: true, CreatedAt: day(2026, 5, 1)},
		&entity.User{ID: "u3", Email: "u3@x", Role: entity.RoleFreelancer, IsActive: false, CreatedAt: day(2026, 5, 3)},
		&entity.User{ID: "u4", Email: "u4@x", Role: entity.RoleAdmin, IsActive: true, CreatedAt: day(2026, 4, 1)},
	)
	gigs := newFakeGigRepo(
		&entity.Gig{ID: "g1", Category: "design", Status: entity.GigStatusActive},
		&entity.Gig{ID: "g2", Category: "design", Status: entity.GigStatusPaused},
		&entity.Gig{ID: "g3", Category: "writing", Status: entity.GigStatusDraft},
	)
	orders := newFakeOrderRepo(users, gigs,
		&entity.Order{ID: "o1", Amount: 10.10, Status: entity.OrderStatusCompleted, PaymentStatus: entity.PaymentStatusPaid,
			CreatedAt: day(2026, 5, 1), CompletedAt: completedAt(day(2026, 5, 2).Add(time.Hour))},
		&entity.Order{ID: "o2", Amount: 20.20, Status: entity.OrderStatusCompleted, PaymentStatus: entity.PaymentStatusPaid,
			CreatedAt: day(2026, 5, 1), CompletedAt: completedAt(day(2026, 5, 2).Add(2 * time.Hour))},
		&entity.Order{ID: "o3", Amount: 99, Status: entity.OrderStatusCompleted, PaymentStatus: entity.PaymentStatusPending,
			CreatedAt: day(2026, 5, 3), CompletedAt: completedAt(day(2026, 5, 3))},
		&entity.Order{ID: "o4", Amount: 50, Status: entity.OrderStatusCancelled, PaymentStatus: entity.PaymentStatusRefunded,
			CreatedAt: day(2026, 5, 3)},
	)
	f := &analyticsFixture{users: users, gigs: gigs, orders: orders}
	f.uc = NewAnalyticsUseCase(users, gigs, orders)
	f.uc.now = fixedClock(day(2026, 5, 5))
	return f
}

func TestOverview(t *testing.T) {
	f := newAnalyticsFixture()

	o, err := f.uc.Overview(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 4, o.Users.Total)
	assert.EqualValues(t, 2, o.Users.ByRole[entity.RoleClient])
	assert.EqualValues(t, 2, o.Users.ByState["active"])
	assert.EqualValues(t, 1, o.Users.ByState["suspended"])
	assert.EqualValues(t, 1, o.Users.ByState["inactive"])

	assert.EqualValues(t, 1, o.Gigs.ByStatus[entity.GigStatusActive])
	assert.EqualValues(t, 2, o.Gigs.ByCategory["design"])

	assert.EqualValues(t, 3, o.Orders.ByStatus[entity.OrderStatusCompleted])
	assert.EqualValues(t, 0, o.Orders.ByStatus[entity.OrderStatusPending])
	assert.Equal(t, "30.3", o.Revenue.String(), "only completed and paid orders count")
}

func TestTrendsRevenueByDay(t *testing.T) {
	f := newAnalyticsFixture()
	from, to := day(2026, 5, 1), day(2026, 5, 4)

	series, err := f.uc.Trends(context.Background(), TrendInput{Metric: MetricRevenue, From: &from, To: &to})
	require.NoError(t, err)

	assert.Equal(t, IntervalDay, series.Interval)
	require.Len(t, series.Points, 3)
	assert.Equal(t, 0.0, series.Points[0].Value)
	assert.Equal(t, 30.3, series.Points[1].Value)
	assert.Equal(t, 0.0, series.Points[2].Value, "unpaid completion is excluded")
}

func TestTrendsCountsOrdersAndUsers(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()
	from, to := day(2026, 5, 1), day(2026, 5, 4)

	orders, err := f.uc.Trends(ctx, TrendInput{Metric: MetricOrders, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0, 2}, values(orders))

	users, err := f.uc.Trends(ctx, TrendInput{Metric: MetricUsers, Interval: IntervalWeek, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, users.Points, 1)
	assert.Equal(t, day(2026, 4, 27), users.Points[0].Bucket)
	assert.Equal(t, 3.0, users.Points[0].Value)
}

func TestTrendsDefaultsAndValidation(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	series, err := f.uc.Trends(ctx, TrendInput{Metric: MetricOrders})
	require.NoError(t, err)
	assert.Equal(t, day(2026, 5, 5), series.To)
	assert.Len(t, series.Points, 30)

	_, err = f.uc.Trends(ctx, TrendInput{Metric: "gigs"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = f.uc.Trends(ctx, TrendInput{Metric: MetricOrders, Interval: "hour"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	from, to := day(2026, 5, 4), day(2026, 5, 1)
	_, err = f.uc.Trends(ctx, TrendInput{Metric: MetricOrders, From: &from, To: &to})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	from = day(2020, 1, 1)
	to = day(2026, 1, 1)
	_, err = f.uc.Trends(ctx, TrendInput{Metric: MetricOrders, From: &from, To: &to})
	assert.True(t, errors.Is(err, errors.CodeBadRequest), "too many daily buckets")
}

func values(s *TrendSeries) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}
