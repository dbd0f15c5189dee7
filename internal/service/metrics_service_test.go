package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMetricsRepo answers every query from per-month tables keyed by bucket start.
type fakeMetricsRepo struct {
	income      map[time.Time]decimal.Decimal
	expense     map[time.Time]decimal.Decimal
	newUsers    map[time.Time]int
	paidUsers   map[time.Time]int
	churned     map[time.Time]int
	subscribers map[time.Time]int
	mrr         map[time.Time]decimal.Decimal
	failOn      string
}

func (r *fakeMetricsRepo) SumTransactions(_ context.Context, txType string, start, _ time.Time) (decimal.Decimal, error) {
	if r.failOn == "sum" {
		return decimal.Zero, errors.New("db down")
	}
	if txType == model.TypeIncome {
		return r.income[start], nil
	}
	return r.expense[start], nil
}

func (r *fakeMetricsRepo) CountNewUsers(_ context.Context, start, _ time.Time) (int, error) {
	return r.newUsers[start], nil
}

func (r *fakeMetricsRepo) CountPaidNewUsers(_ context.Context, start, _ time.Time) (int, error) {
	return r.paidUsers[start], nil
}

func (r *fakeMetricsRepo) CountChurned(_ context.Context, start, _ time.Time) (int, error) {
	return r.churned[start], nil
}

func (r *fakeMetricsRepo) CountSubscribersDuring(_ context.Context, start, end time.Time) (int, error) {
	if n, ok := r.subscribers[start]; ok && end.Equal(start.AddDate(0, 1, 0)) {
		return n, nil
	}
	total := 0
	for _, n := range r.subscribers {
		total += n
	}
	return total, nil
}

func (r *fakeMetricsRepo) SumMRR(_ context.Context, start, _ time.Time) (decimal.Decimal, error) {
	return r.mrr[start], nil
}

func (r *fakeMetricsRepo) PlanDistribution(context.Context) ([]repository.PlanCount, error) {
	return []repository.PlanCount{{Plan: "pro", Count: 3}}, nil
}

func month(m time.Month) time.Time {
	return time.Date(2026, m, 1, 0, 0, 0, 0, time.UTC)
}

func newMetricsFixture(gateway *fakeGateway) (*metricsService, *fakeMetricsRepo) {
	repo := &fakeMetricsRepo{
		income:      map[time.Time]decimal.Decimal{month(1): decimal.RequireFromString("100.10"), month(2): decimal.RequireFromString("200.20"), month(3): decimal.RequireFromString("300.30")},
		expense:     map[time.Time]decimal.Decimal{month(3): decimal.RequireFromString("50")},
		newUsers:    map[time.Time]int{month(1): 4, month(2): 10, month(3): 15},
		paidUsers:   map[time.Time]int{month(2): 5, month(3): 3},
		churned:     map[time.Time]int{month(3): 2},
		subscribers: map[time.Time]int{month(3): 8},
		mrr:         map[time.Time]decimal.Decimal{month(2): decimal.NewFromInt(100), month(3): decimal.NewFromInt(150)},
	}
	svc := NewMetricsService(repo, gateway, true, time.Second, zerolog.Nop()).(*metricsService)
	svc.now = func() time.Time { return time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestDashboardRevenueIsSumOfBuckets(t *testing.T) {
	gateway := &fakeGateway{charges: map[time.Time]decimal.Decimal{
		month(1): decimal.RequireFromString("9.90"),
		month(3): decimal.RequireFromString("29.90"),
	}}
	svc, _ := newMetricsFixture(gateway)

	dash, err := svc.DashboardRange(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, dash.Buckets, DashboardMonths)
	assert.Equal(t, []string{"2026-01", "2026-02", "2026-03"}, []string{dash.Buckets[0].Label, dash.Buckets[1].Label, dash.Buckets[2].Label})

	sum := decimal.Zero
	for _, b := range dash.Buckets {
		assert.True(t, b.Revenue.Equal(b.LedgerIncome.Add(b.ProviderCharges)))
		sum = sum.Add(b.Revenue)
	}
	assert.True(t, dash.Totals.Revenue.Equal(sum))
	assert.Equal(t, "640.40", dash.Totals.Revenue.StringFixed(2))
	assert.Equal(t, "590.40", dash.Totals.Profit.StringFixed(2))
	assert.Equal(t, "150", dash.Totals.MRR.String())

	last := dash.Buckets[2]
	assert.Equal(t, 25.0, last.ChurnRate)
	assert.Equal(t, 20.0, last.ConversionRate)
	assert.Equal(t, 0.0, dash.Buckets[0].ChurnRate)

	assert.Equal(t, 50.0, dash.Growth.Users)
	assert.Equal(t, 50.0, dash.Growth.MRR)
	assert.InDelta(t, 64.9, dash.Growth.Revenue, 0.001)
}

func TestDashboardChargesFailureCountsAsZero(t *testing.T) {
	svc, _ := newMetricsFixture(&fakeGateway{chargesErr: errors.New("stripe unavailable")})

	dash, err := svc.DashboardRange(context.Background(), nil, nil)
	require.NoError(t, err)
	for _, b := range dash.Buckets {
		assert.True(t, b.ProviderCharges.IsZero())
	}
	assert.Equal(t, "600.60", dash.Totals.Revenue.StringFixed(2))
}

func TestDashboardQueryFailureFails(t *testing.T) {
	svc, repo := newMetricsFixture(&fakeGateway{})
	repo.failOn = "sum"

	_, err := svc.DashboardRange(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestDashboardCustomRange(t *testing.T) {
	svc, _ := newMetricsFixture(&fakeGateway{})
	from := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)

	dash, err := svc.DashboardRange(context.Background(), &from, &to)
	require.NoError(t, err)
	require.Len(t, dash.Buckets, 4)
	for i := 1; i < len(dash.Buckets); i++ {
		assert.Equal(t, dash.Buckets[i-1].End, dash.Buckets[i].Start)
	}

	tooWide := to.AddDate(-5, 0, 0)
	_, err = svc.DashboardRange(context.Background(), &tooWide, &to)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestOverviewAndReports(t *testing.T) {
	svc, _ := newMetricsFixture(&fakeGateway{})
	ctx := context.Background()

	ov, err := svc.Overview(ctx, 2026, 3)
	require.NoError(t, err)
	assert.Len(t, ov.Buckets, ReportMonths)
	assert.Equal(t, "2025-10", ov.Buckets[0].Label)
	assert.Equal(t, []repository.PlanCount{{Plan: "pro", Count: 3}}, ov.PlanDistribution)

	report, err := svc.Reports(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, report.Revenue.Labels, ReportMonths)
	assert.Equal(t, "2026-03", report.Revenue.Labels[ReportMonths-1])
	assert.Equal(t, 300.30, report.Revenue.Datasets[0].Data[ReportMonths-1])
	assert.Equal(t, 50.0, report.Costs.Datasets[0].Data[ReportMonths-1])

	_, err = svc.Reports(ctx, 2026, 13)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
