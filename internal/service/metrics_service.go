package service

import (
	"context"
	"time"

	"fintrack/internal/metrics"
	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Default windows and the widest range accepted.
const (
	DashboardMonths = 3
	ReportMonths    = 6
	MaxRangeMonths  = 36

	// bucketQueryLimit bounds concurrent sub-queries so one request cannot drain the pool.
	bucketQueryLimit = 8
)

// ChargeSource reports provider-side revenue for a range.
type ChargeSource interface {
	SumCharges(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

// BucketMetrics holds every figure computed for one month.
type BucketMetrics struct {
	metrics.Bucket
	LedgerIncome    decimal.Decimal
	ProviderCharges decimal.Decimal
	Revenue         decimal.Decimal
	Costs           decimal.Decimal
	NewUsers        int
	PaidUsers       int
	Churned         int
	Subscribers     int
	MRR             decimal.Decimal
	ChurnRate       float64
	ConversionRate  float64
}

// MetricsTotals aggregates a whole range. Revenue, Costs and user counts are
// exact sums over the buckets; MRR is the latest bucket's value.
type MetricsTotals struct {
	Revenue        decimal.Decimal
	Costs          decimal.Decimal
	Profit         decimal.Decimal
	NewUsers       int
	PaidUsers      int
	Churned        int
	MRR            decimal.Decimal
	ARPU           decimal.Decimal
	ChurnRate      float64
	ConversionRate float64
}

// MetricsGrowth compares the last bucket with the one before it.
type MetricsGrowth struct {
	Revenue float64
	Users   float64
	MRR     float64
}

// Dashboard is the bucketed snapshot behind every admin metrics endpoint.
type Dashboard struct {
	From    time.Time
	To      time.Time
	Buckets []BucketMetrics
	Totals  MetricsTotals
	Growth  MetricsGrowth
}

// Overview adds the current plan distribution to a dashboard.
type Overview struct {
	Dashboard
	PlanDistribution []repository.PlanCount
}

// Dataset is one named series of a chart.
type Dataset struct {
	Label string
	Data  []float64
}

// Chart is a labeled set of series ready for a charting library.
type Chart struct {
	Labels   []string
	Datasets []Dataset
}

// Report carries chart datasets for revenue, costs, users and conversions.
type Report struct {
	Revenue     Chart
	Costs       Chart
	Users       Chart
	Conversions Chart
	Totals      MetricsTotals
	Growth      MetricsGrowth
}

type MetricsService interface {
	// DashboardRange covers [from, to]; nil bounds default to the last three months.
	DashboardRange(ctx context.Context, from, to *time.Time) (*Dashboard, error)
	// Overview covers the six months ending at year/month; zero values mean now.
	Overview(ctx context.Context, year, month int) (*Overview, error)
	Reports(ctx context.Context, year, month int) (*Report, error)
}

type metricsService struct {
	repo           repository.MetricsRepository
	charges        ChargeSource
	includeCharges bool
	timeout        time.Duration
	now            func() time.Time
	logger         zerolog.Logger
}

// NewMetricsService builds the aggregator. A nil charges source, or
// includeCharges false, leaves provider revenue out.
func NewMetricsService(repo repository.MetricsRepository, charges ChargeSource, includeCharges bool, timeout time.Duration, logger zerolog.Logger) MetricsService {
	return &metricsService{
		repo:           repo,
		charges:        charges,
		includeCharges: includeCharges && charges != nil,
		timeout:        timeout,
		now:            time.Now,
		logger:         logger.With().Str("service", "MetricsService").Logger(),
	}
}

func (s *metricsService) DashboardRange(ctx context.Context, from, to *time.Time) (*Dashboard, error) {
	now := s.now().UTC()
	end := now
	if to != nil {
		end = to.UTC()
	}
	var buckets []metrics.Bucket
	if from != nil {
		buckets = metrics.MonthBuckets(from.UTC(), end)
	} else {
		buckets = metrics.LastMonths(end, DashboardMonths)
	}
	if len(buckets) > MaxRangeMonths {
		return nil, invalidf("range must not exceed %d months", MaxRangeMonths)
	}
	return s.aggregate(ctx, buckets)
}

func (s *metricsService) Overview(ctx context.Context, year, month int) (*Overview, error) {
	anchor, err := s.anchor(year, month)
	if err != nil {
		return nil, err
	}

	var (
		dash  *Dashboard
		plans []repository.PlanCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dash, err = s.aggregate(gctx, metrics.LastMonths(anchor, ReportMonths))
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = s.repo.PlanDistribution(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute metrics overview")
		return nil, err
	}
	return &Overview{Dashboard: *dash, PlanDistribution: plans}, nil
}

func (s *metricsService) Reports(ctx context.Context, year, month int) (*Report, error) {
	anchor, err := s.anchor(year, month)
	if err != nil {
		return nil, err
	}
	dash, err := s.aggregate(ctx, metrics.LastMonths(anchor, ReportMonths))
	if err != nil {
		return nil, err
	}
	return buildReport(dash), nil
}

// anchor returns a time inside the requested month, defaulting to the current one.
func (s *metricsService) anchor(year, month int) (time.Time, error) {
	now := s.now().UTC()
	if year == 0 && month == 0 {
		return now, nil
	}
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return time.Time{}, invalidf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, invalidf("year must be between 2000 and 2100")
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// aggregate fans the per-bucket sub-queries out and joins them by bucket index.
func (s *metricsService) aggregate(ctx context.Context, buckets []metrics.Bucket) (*Dashboard, error) {
	if len(buckets) == 0 {
		return nil, invalidf("empty range")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results := make([]BucketMetrics, len(buckets))
	var rangeSubscribers int
	rangeStart, rangeEnd := buckets[0].Start, buckets[len(buckets)-1].End

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bucketQueryLimit)
	for i, b := range buckets {
		r := &results[i]
		r.Bucket = b
		g.Go(func() (err error) {
			r.LedgerIncome, err = s.repo.SumTransactions(gctx, model.TypeIncome, b.Start, b.End)
			return err
		})
		g.Go(func() (err error) {
			r.Costs, err = s.repo.SumTransactions(gctx, model.TypeExpense, b.Start, b.End)
			return err
		})
		g.Go(func() error {
			r.ProviderCharges = s.providerCharges(gctx, b)
			return nil
		})
		g.Go(func() (err error) {
			r.NewUsers, err = s.repo.CountNewUsers(gctx, b.Start, b.End)
			return err
		})
		g.Go(func() (err error) {
			r.PaidUsers, err = s.repo.CountPaidNewUsers(gctx, b.Start, b.End)
			return err
		})
		g.Go(func() (err error) {
			r.Churned, err = s.repo.CountChurned(gctx, b.Start, b.End)
			return err
		})
		g.Go(func() (err error) {
			r.Subscribers, err = s.repo.CountSubscribersDuring(gctx, b.Start, b.End)
			return err
		})
		g.Go(func() (err error) {
			r.MRR, err = s.repo.SumMRR(gctx, b.Start, b.End)
			return err
		})
	}
	g.Go(func() (err error) {
		rangeSubscribers, err = s.repo.CountSubscribersDuring(gctx, rangeStart, rangeEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Time("from", rangeStart).Time("to", rangeEnd).Msg("Failed to aggregate metrics")
		return nil, err
	}

	for i := range results {
		r := &results[i]
		r.Revenue = r.LedgerIncome.Add(r.ProviderCharges)
		r.ChurnRate = metrics.Rate(float64(r.Churned), float64(r.Subscribers))
		r.ConversionRate = metrics.Rate(float64(r.PaidUsers), float64(r.NewUsers))
	}
	return &Dashboard{
		From:    rangeStart,
		To:      rangeEnd,
		Buckets: results,
		Totals:  totalsOf(results, rangeSubscribers),
		Growth:  growthOf(results),
	}, nil
}

// providerCharges never fails the request: an unavailable provider counts as zero revenue.
func (s *metricsService) providerCharges(ctx context.Context, b metrics.Bucket) decimal.Decimal {
	if !s.includeCharges {
		return decimal.Zero
	}
	sum, err := s.charges.SumCharges(ctx, b.Start, b.End)
	if err != nil {
		s.logger.Warn().Err(err).Str("bucket", b.Label).Msg("Provider charges unavailable; counting as zero")
		return decimal.Zero
	}
	return sum
}

func totalsOf(buckets []BucketMetrics, rangeSubscribers int) MetricsTotals {
	t := MetricsTotals{Revenue: decimal.Zero, Costs: decimal.Zero, MRR: decimal.Zero}
	for _, b := range buckets {
		t.Revenue = t.Revenue.Add(b.Revenue)
		t.Costs = t.Costs.Add(b.Costs)
		t.NewUsers += b.NewUsers
		t.PaidUsers += b.PaidUsers
		t.Churned += b.Churned
	}
	if n := len(buckets); n > 0 {
		t.MRR = buckets[n-1].MRR
	}
	t.Profit = t.Revenue.Sub(t.Costs)
	t.ARPU = metrics.ARPU(t.Revenue, t.NewUsers)
	t.ChurnRate = metrics.Rate(float64(t.Churned), float64(rangeSubscribers))
	t.ConversionRate = metrics.Rate(float64(t.PaidUsers), float64(t.NewUsers))
	return t
}

func growthOf(buckets []BucketMetrics) MetricsGrowth {
	n := len(buckets)
	if n == 0 {
		return MetricsGrowth{}
	}
	current := buckets[n-1]
	var previous BucketMetrics
	if n > 1 {
		previous = buckets[n-2]
	}
	return MetricsGrowth{
		Revenue: metrics.CalculateGrowth(current.Revenue.InexactFloat64(), previous.Revenue.InexactFloat64()),
		Users:   metrics.CalculateGrowth(float64(current.NewUsers), float64(previous.NewUsers)),
		MRR:     metrics.CalculateGrowth(current.MRR.InexactFloat64(), previous.MRR.InexactFloat64()),
	}
}

func buildReport(d *Dashboard) *Report {
	n := len(d.Buckets)
	labels := make([]string, n)
	ledger, charges, revenue := make([]float64, n), make([]float64, n), make([]float64, n)
	costs, newUsers, paidUsers := make([]float64, n), make([]float64, n), make([]float64, n)
	conversion, churn := make([]float64, n), make([]float64, n)
	for i, b := range d.Buckets {
		labels[i] = b.Label
		ledger[i] = b.LedgerIncome.InexactFloat64()
		charges[i] = b.ProviderCharges.InexactFloat64()
		revenue[i] = b.Revenue.InexactFloat64()
		costs[i] = b.Costs.InexactFloat64()
		newUsers[i] = float64(b.NewUsers)
		paidUsers[i] = float64(b.PaidUsers)
		conversion[i] = b.ConversionRate
		churn[i] = b.ChurnRate
	}
	return &Report{
		Revenue: Chart{Labels: labels, Datasets: []Dataset{
			{Label: "Revenue", Data: revenue},
			{Label: "Ledger income", Data: ledger},
			{Label: "Provider charges", Data: charges},
		}},
		Costs: Chart{Labels: labels, Datasets: []Dataset{{Label: "Costs", Data: costs}}},
		Users: Chart{Labels: labels, Datasets: []Dataset{
			{Label: "New users", Data: newUsers},
			{Label: "Paid users", Data: paidUsers},
		}},
		Conversions: Chart{Labels: labels, Datasets: []Dataset{
			{Label: "Conversion rate", Data: conversion},
			{Label: "Churn rate", Data: churn},
		}},
		Totals: d.Totals,
		Growth: d.Growth,
	}
}
