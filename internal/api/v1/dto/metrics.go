package dto

import (
	"time"

	"fintrack/internal/service"
)

// BucketMetricsDTO is one month of the admin dashboard
type BucketMetricsDTO struct {
	Label           string    `json:"label" example:"2025-03"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Revenue         string    `json:"revenue"`
	LedgerIncome    string    `json:"ledger_income"`
	ProviderCharges string    `json:"provider_charges"`
	Costs           string    `json:"costs"`
	NewUsers        int       `json:"new_users"`
	PaidUsers       int       `json:"paid_users"`
	Churned         int       `json:"churned"`
	Subscribers     int       `json:"subscribers"`
	MRR             string    `json:"mrr"`
	ChurnRate       float64   `json:"churn_rate"`
	ConversionRate  float64   `json:"conversion_rate"`
}

// MetricsTotalsDTO sums the whole range
type MetricsTotalsDTO struct {
	Revenue        string  `json:"revenue"`
	Costs          string  `json:"costs"`
	Profit         string  `json:"profit"`
	NewUsers       int     `json:"new_users"`
	PaidUsers      int     `json:"paid_users"`
	Churned        int     `json:"churned"`
	MRR            string  `json:"mrr" doc:"MRR of the most recent month"`
	ARPU           string  `json:"arpu"`
	ChurnRate      float64 `json:"churn_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}

// MetricsGrowthDTO compares the last two months, in percent
type MetricsGrowthDTO struct {
	Revenue float64 `json:"revenue"`
	Users   float64 `json:"users"`
	MRR     float64 `json:"mrr"`
}

// DashboardResponseDTO is returned by the range dashboard
type DashboardResponseDTO struct {
	From    time.Time          `json:"from"`
	To      time.Time          `json:"to"`
	Buckets []BucketMetricsDTO `json:"buckets"`
	Totals  MetricsTotalsDTO   `json:"totals"`
	Growth  MetricsGrowthDTO   `json:"growth"`
}

// PlanCountDTO is one slice of the plan distribution
type PlanCountDTO struct {
	Plan  string `json:"plan"`
	Count int    `json:"count"`
}

// OverviewResponseDTO adds the plan distribution to the dashboard
type OverviewResponseDTO struct {
	DashboardResponseDTO
	PlanDistribution []PlanCountDTO `json:"plan_distribution"`
}

// DatasetDTO is one named chart series
type DatasetDTO struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// ChartDTO is a labeled set of series
type ChartDTO struct {
	Labels   []string     `json:"labels"`
	Datasets []DatasetDTO `json:"datasets"`
}

// ReportResponseDTO carries the chart datasets for the reports page
type ReportResponseDTO struct {
	Revenue     ChartDTO         `json:"revenue"`
	Costs       ChartDTO         `json:"costs"`
	Users       ChartDTO         `json:"users"`
	Conversions ChartDTO         `json:"conversions"`
	Totals      MetricsTotalsDTO `json:"totals"`
	Growth      MetricsGrowthDTO `json:"growth"`
}

func NewDashboardResponse(d *service.Dashboard) DashboardResponseDTO {
	buckets := make([]BucketMetricsDTO, len(d.Buckets))
	for i, b := range d.Buckets {
		buckets[i] = BucketMetricsDTO{
			Label:           b.Label,
			Start:           b.Start,
			End:             b.End,
			Revenue:         Money(b.Revenue),
			LedgerIncome:    Money(b.LedgerIncome),
			ProviderCharges: Money(b.ProviderCharges),
			Costs:           Money(b.Costs),
			NewUsers:        b.NewUsers,
			PaidUsers:       b.PaidUsers,
			Churned:         b.Churned,
			Subscribers:     b.Subscribers,
			MRR:             Money(b.MRR),
			ChurnRate:       b.ChurnRate,
			ConversionRate:  b.ConversionRate,
		}
	}
	return DashboardResponseDTO{
		From:    d.From,
		To:      d.To,
		Buckets: buckets,
		Totals:  newTotals(d.Totals),
		Growth:  newGrowth(d.Growth),
	}
}

func NewOverviewResponse(o *service.Overview) OverviewResponseDTO {
	plans := make([]PlanCountDTO, len(o.PlanDistribution))
	for i, p := range o.PlanDistribution {
		plans[i] = PlanCountDTO{Plan: p.Plan, Count: p.Count}
	}
	return OverviewResponseDTO{
		DashboardResponseDTO: NewDashboardResponse(&o.Dashboard),
		PlanDistribution:     plans,
	}
}

func NewReportResponse(r *service.Report) ReportResponseDTO {
	return ReportResponseDTO{
		Revenue:     newChart(r.Revenue),
		Costs:       newChart(r.Costs),
		Users:       newChart(r.Users),
		Conversions: newChart(r.Conversions),
		Totals:      newTotals(r.Totals),
		Growth:      newGrowth(r.Growth),
	}
}

func newTotals(t service.MetricsTotals) MetricsTotalsDTO {
	return MetricsTotalsDTO{
		Revenue:        Money(t.Revenue),
		Costs:          Money(t.Costs),
		Profit:         Money(t.Profit),
		NewUsers:       t.NewUsers,
		PaidUsers:      t.PaidUsers,
		Churned:        t.Churned,
		MRR:            Money(t.MRR),
		ARPU:           Money(t.ARPU),
		ChurnRate:      t.ChurnRate,
		ConversionRate: t.ConversionRate,
	}
}

func newGrowth(g service.MetricsGrowth) MetricsGrowthDTO {
	return MetricsGrowthDTO{Revenue: g.Revenue, Users: g.Users, MRR: g.MRR}
}

func newChart(c service.Chart) ChartDTO {
	datasets := make([]DatasetDTO, len(c.Datasets))
	for i, ds := range c.Datasets {
		datasets[i] = DatasetDTO{Label: ds.Label, Data: ds.Data}
	}
	return ChartDTO{Labels: c.Labels, Datasets: datasets}
}
