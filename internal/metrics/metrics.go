// Package metrics holds the arithmetic behind the admin dashboards: growth
// percentages, ratio guards and calendar-month bucketing.
package metrics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CalculateGrowth returns the percentage change from previous to current,
// rounded to one decimal. A rise from zero counts as 100%.
func CalculateGrowth(current, previous float64) float64 {
	if current == 0 && previous == 0 {
		return 0
	}
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return Round1((current - previous) / previous * 100)
}

// Rate returns numerator/denominator as a percentage clamped to [0, 100] and
// rounded to one decimal. A non-positive denominator yields 0.
func Rate(numerator, denominator float64) float64 {
	if denominator <= 0 || numerator <= 0 {
		return 0
	}
	return Round1(math.Min(numerator/denominator*100, 100))
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ARPU is the average revenue per user, or zero without users.
func ARPU(revenue decimal.Decimal, users int) decimal.Decimal {
	if users <= 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(int64(users))).Round(2)
}

// Bucket is a calendar month covering [Start, End).
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the bucket.
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func newBucket(start time.Time) Bucket {
	return Bucket{
		Label: start.Format("2006-01"),
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

// MonthBuckets returns one bucket per calendar month touched by [from, to],
// oldest first. Buckets are contiguous: each End is the next Start.
func MonthBuckets(from, to time.Time) []Bucket {
	if to.Before(from) {
		from, to = to, from
	}
	last := monthStart(to)
	var buckets []Bucket
	for start := monthStart(from); !start.After(last); start = start.AddDate(0, 1, 0) {
		buckets = append(buckets, newBucket(start))
	}
	return buckets
}

// LastMonths returns the n buckets ending with anchor's month.
func LastMonths(anchor time.Time, n int) []Bucket {
	if n <= 0 {
		return nil
	}
	end := monthStart(anchor)
	return MonthBuckets(end.AddDate(0, -(n - 1), 0), end)
}
