package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateGrowth(t *testing.T) {
	tests := []struct {
		name              string
		current, previous float64
		want              float64
	}{
		{"both zero", 0, 0, 0},
		{"from zero", 50, 0, 100},
		{"half up", 150, 100, 50},
		{"drop", 50, 100, -50},
		{"to zero", 0, 80, -100},
		{"rounded", 1, 3, -66.7},
		{"small rise", 101, 100, 1},
		{"one decimal", 100.5, 100, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateGrowth(tt.current, tt.previous))
		})
	}
}

func TestCalculateGrowthGuardIsTotal(t *testing.T) {
	values := []float64{0, 0.1, 1, 3, 7.5, 100, 12345}
	for _, c := range values {
		for _, p := range values {
			got := CalculateGrowth(c, p)
			switch {
			case c == 0 && p == 0:
				assert.Equal(t, 0.0, got)
			case p == 0:
				assert.Equal(t, 100.0, got)
			default:
				assert.Equal(t, Round1((c-p)/p*100), got)
			}
		}
	}
}

func TestRateBounds(t *testing.T) {
	tests := []struct {
		name     string
		num, den float64
		want     float64
	}{
		{"zero denominator", 5, 0, 0},
		{"negative denominator", 5, -1, 0},
		{"zero numerator", 0, 10, 0},
		{"quarter", 1, 4, 25},
		{"third", 1, 3, 33.3},
		{"clamped", 12, 10, 100},
		{"all", 10, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rate(tt.num, tt.den)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestARPU(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(ARPU(decimal.NewFromInt(100), 0)))
	assert.Equal(t, "33.33", ARPU(decimal.NewFromInt(100), 3).StringFixed(2))
}

func TestMonthBucketsCoverage(t *testing.T) {
	from := time.Date(2025, 11, 17, 9, 30, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	buckets := MonthBuckets(from, to)
	require.Len(t, buckets, 5)
	assert.Equal(t, "2025-11", buckets[0].Label)
	assert.Equal(t, "2026-03", buckets[4].Label)
	assert.True(t, buckets[0].Contains(from))
	assert.True(t, buckets[4].Contains(to))

	for i := 1; i < len(buckets); i++ {
		assert.True(t, buckets[i-1].End.Equal(buckets[i].Start), "gap or overlap at %d", i)
		assert.True(t, buckets[i-1].Start.Before(buckets[i].Start), "not ordered at %d", i)
	}
}

func TestMonthBucketsSingleMonthAndSwapped(t *testing.T) {
	a := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)

	assert.Len(t, MonthBuckets(a, b), 1)
	assert.Equal(t, MonthBuckets(a, b), MonthBuckets(b, a))
}

func TestLastMonths(t *testing.T) {
	anchor := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	buckets := LastMonths(anchor, 6)
	require.Len(t, buckets, 6)
	assert.Equal(t, "2025-08", buckets[0].Label)
	assert.Equal(t, "2026-01", buckets[5].Label)
	assert.Nil(t, LastMonths(anchor, 0))
}
