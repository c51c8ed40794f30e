package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

const (
	MetricUsers   = "users"
	MetricOrders  = "orders"
	MetricRevenue = "revenue"

	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"

	defaultTrendWindow = 30 * 24 * time.Hour
	maxTrendBuckets    = 400
)

type AnalyticsUseCase struct {
	userRepo  repository.UserRepository
	gigRepo   repository.GigRepository
	orderRepo repository.OrderRepository
	now       func() time.Time
}

func NewAnalyticsUseCase(userRepo repository.UserRepository, gigRepo repository.GigRepository, orderRepo repository.OrderRepository) *AnalyticsUseCase {
	return &AnalyticsUseCase{
		userRepo:  userRepo,
		gigRepo:   gigRepo,
		orderRepo: orderRepo,
		now:       time.Now,
	}
}

type UserCounts struct {
	Total   int64            `json:"total"`
	ByRole  map[string]int64 `json:"byRole"`
	ByState map[string]int64 `json:"byState"`
}

type GigCounts struct {
	ByStatus   map[string]int64 `json:"byStatus"`
	ByCategory map[string]int64 `json:"byCategory"`
}

type OrderCounts struct {
	ByStatus map[string]int64 `json:"byStatus"`
}

type Overview struct {
	Users       UserCounts      `json:"users"`
	Gigs        GigCounts       `json:"gigs"`
	Orders      OrderCounts     `json:"orders"`
	Revenue     decimal.Decimal `json:"revenue"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

type TrendPoint struct {
	Bucket time.Time `json:"bucket"`
	Value  float64   `json:"value"`
}

type TrendSeries struct {
	Metric   string       `json:"metric"`
	Interval string       `json:"interval"`
	From     time.Time    `json:"from"`
	To       time.Time    `json:"to"`
	Points   []TrendPoint `json:"points"`
}

type TrendInput struct {
	Metric   string
	Interval string
	From     *time.Time
	To       *time.Time
}

func (uc *AnalyticsUseCase) Overview(ctx context.Context) (*Overview, error) {
	overview := &Overview{
		Users: UserCounts{
			ByRole:  make(map[string]int64),
			ByState: make(map[string]int64),
		},
		Gigs:        GigCounts{ByStatus: make(map[string]int64)},
		Orders:      OrderCounts{ByStatus: make(map[string]int64)},
		GeneratedAt: uc.now().UTC(),
	}

	for _, role := range []string{entity.RoleClient, entity.RoleFreelancer, entity.RoleAdmin} {
		n, err := uc.userRepo.CountByField(ctx, "role", role)
		if err != nil {
			return nil, err
		}
		overview.Users.ByRole[role] = n
		overview.Users.Total += n
	}
	for _, state := range []string{"active", "suspended", "inactive"} {
		_, n, err := uc.userRepo.List(ctx, repository.UserFilter{State: state}, 1, 0)
		if err != nil {
			return nil, err
		}
		overview.Users.ByState[state] = n
	}

	for _, status := range []string{
		entity.GigStatusDraft, entity.GigStatusPending, entity.GigStatusActive,
		entity.GigStatusPaused, entity.GigStatusRejected,
	} {
		n, err := uc.gigRepo.CountByField(ctx, "status", status)
		if err != nil {
			return nil, err
		}
		overview.Gigs.ByStatus[status] = n
	}
	byCategory, err := uc.gigRepo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	overview.Gigs.ByCategory = byCategory

	for _, status := range []string{
		entity.OrderStatusPending, entity.OrderStatusAccepted, entity.OrderStatusInProgress,
		entity.OrderStatusDelivered, entity.OrderStatusCompleted, entity.OrderStatusCancelled,
		entity.OrderStatusDisputed,
	} {
		n, err := uc.orderRepo.CountByField(ctx, "status", status)
		if err != nil {
			return nil, err
		}
		overview.Orders.ByStatus[status] = n
	}

	paid, _, err := uc.orderRepo.List(ctx, repository.OrderFilter{
		Status:        entity.OrderStatusCompleted,
		PaymentStatus: entity.PaymentStatusPaid,
	}, 0, 0)
	if err != nil {
		return nil, err
	}
	overview.Revenue = sumAmounts(paid)

	return overview, nil
}

func sumAmounts(orders []*entity.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(decimal.NewFromFloat(o.Amount))
	}
	return total.Round(2)
}

func (uc *AnalyticsUseCase) Trends(ctx context.Context, input TrendInput) (*TrendSeries, error) {
	interval := input.Interval
	if interval == "" {
		interval = IntervalDay
	}
	if interval != IntervalDay && interval != IntervalWeek && interval != IntervalMonth {
		return nil, errors.BadRequest("Interval must be day, week or month", nil)
	}
	switch input.Metric {
	case MetricUsers, MetricOrders, MetricRevenue:
	default:
		return nil, errors.BadRequest("Metric must be users, orders or revenue", nil)
	}

	to := uc.now().UTC()
	if input.To != nil {
		to = input.To.UTC()
	}
	from := to.Add(-defaultTrendWindow)
	if input.From != nil {
		from = input.From.UTC()
	}
	if !from.Before(to) {
		return nil, errors.BadRequest("from must be before to", nil)
	}

	buckets := buildBuckets(from, to, interval)
	if len(buckets) > maxTrendBuckets {
		return nil, errors.BadRequest("Range is too large for the chosen interval", nil)
	}
	start := buckets[0]

	values := make(map[time.Time]decimal.Decimal, len(buckets))
	switch input.Metric {
	case MetricUsers:
		users, err := uc.userRepo.ListCreatedBetween(ctx, start, to)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			key := bucketStart(u.CreatedAt, interval)
			values[key] = values[key].Add(decimal.NewFromInt(1))
		}
	case MetricOrders:
		orders, err := uc.orderRepo.ListCreatedBetween(ctx, start, to)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			key := bucketStart(o.CreatedAt, interval)
			values[key] = values[key].Add(decimal.NewFromInt(1))
		}
	case MetricRevenue:
		orders, err := uc.orderRepo.ListCompletedBetween(ctx, start, to)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			if o.PaymentStatus != entity.PaymentStatusPaid || o.CompletedAt == nil {
				continue
			}
			key := bucketStart(*o.CompletedAt, interval)
			values[key] = values[key].Add(decimal.NewFromFloat(o.Amount))
		}
	}

	points := make([]TrendPoint, len(buckets))
	for i, b := range buckets {
		points[i] = TrendPoint{Bucket: b, Value: values[b].Round(2).InexactFloat64()}
	}

	return &TrendSeries{
		Metric:   input.Metric,
		Interval: interval,
		From:     from,
		To:       to,
		Points:   points,
	}, nil
}

// bucketStart truncates t (in UTC) to the start of its day, ISO week or month.
func bucketStart(t time.Time, interval string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch interval {
	case IntervalWeek:
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case IntervalMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

func nextBucket(t time.Time, interval string) time.Time {
	switch interval {
	case IntervalWeek:
		return t.AddDate(0, 0, 7)
	case IntervalMonth:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// buildBuckets lists every bucket touching [from, to).
func buildBuckets(from, to time.Time, interval string) []time.Time {
	var buckets []time.Time
	for b := bucketStart(from, interval); b.Before(to); b = nextBucket(b, interval) {
		buckets = append(buckets, b)
		if len(buckets) > maxTrendBuckets {
			break
		}
	}
	return buckets
}
