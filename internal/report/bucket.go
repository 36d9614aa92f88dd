// Package report buckets completed sales into fixed-size time series for
// charting.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
)

var windowSizes = map[domain.Period]int{
	domain.PeriodDaily:   7,
	domain.PeriodWeekly:  4,
	domain.PeriodMonthly: 6,
	domain.PeriodYearly:  3,
}

var labelLayouts = map[domain.Period]string{
	domain.PeriodDaily:   "2006-01-02",
	domain.PeriodWeekly:  "2006-01-02",
	domain.PeriodMonthly: "2006-01",
	domain.PeriodYearly:  "2006",
}

// WindowSize returns the fixed bucket count for a period, or 0 if unknown.
func WindowSize(period domain.Period) int {
	return windowSizes[period]
}

func ParsePeriod(raw string) (domain.Period, error) {
	p := domain.Period(raw)
	if _, ok := windowSizes[p]; !ok {
		return "", apperr.Invalid("period", "unknown period %q", raw)
	}
	return p, nil
}

func ParseRange(raw string) (domain.Range, error) {
	switch r := domain.Range(raw); r {
	case domain.RangeCurrent, domain.RangePrevious:
		return r, nil
	case "":
		return domain.RangeCurrent, nil
	default:
		return "", apperr.Invalid("range", "unknown range %q", raw)
	}
}

// Bucket sums total_amount and total_margin of completed sales per bucket.
// Buckets are anchored at the period containing now, in now's location, and
// returned oldest first. The previous range shifts the whole window back by
// one window size.
func Bucket(sales []domain.SaleHeader, period domain.Period, rng domain.Range, now time.Time) ([]domain.TimeBucket, error) {
	size, ok := windowSizes[period]
	if !ok {
		return nil, apperr.Invalid("period", "unknown period %q", period)
	}
	shift := 0
	switch rng {
	case domain.RangeCurrent:
	case domain.RangePrevious:
		shift = size
	default:
		return nil, apperr.Invalid("range", "unknown range %q", rng)
	}

	anchor := PeriodStart(period, now)
	buckets := make([]domain.TimeBucket, 0, size)
	for i := 0; i < size; i++ {
		start := step(period, anchor, -(i + shift))
		buckets = append(buckets, domain.TimeBucket{
			Label:       start.Format(labelLayouts[period]),
			PeriodStart: start,
			PeriodEnd:   step(period, start, 1),
			SalesSum:    decimal.Zero,
			MarginSum:   decimal.Zero,
		})
	}

	for _, sale := range sales {
		if sale.Status != domain.SaleCompleted {
			continue
		}
		for i := range buckets {
			b := &buckets[i]
			if !sale.CreatedAt.Before(b.PeriodStart) && sale.CreatedAt.Before(b.PeriodEnd) {
				b.SalesSum = b.SalesSum.Add(sale.TotalAmount)
				b.MarginSum = b.MarginSum.Add(sale.TotalMargin)
				break
			}
		}
	}

	for i, j := 0, len(buckets)-1; i < j; i, j = i+1, j-1 {
		buckets[i], buckets[j] = buckets[j], buckets[i]
	}
	return buckets, nil
}

// Sums adds up a bucket series.
func Sums(buckets []domain.TimeBucket) (sales decimal.Decimal, margin decimal.Decimal) {
	sales, margin = decimal.Zero, decimal.Zero
	for _, b := range buckets {
		sales = sales.Add(b.SalesSum)
		margin = margin.Add(b.MarginSum)
	}
	return sales, margin
}

// PeriodStart returns the start of the period containing now, in now's
// location. Weeks start on Monday.
func PeriodStart(period domain.Period, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch period {
	case domain.PeriodWeekly:
		offset := (int(now.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case domain.PeriodMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case domain.PeriodYearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

func step(period domain.Period, t time.Time, n int) time.Time {
	switch period {
	case domain.PeriodWeekly:
		return t.AddDate(0, 0, 7*n)
	case domain.PeriodMonthly:
		return t.AddDate(0, n, 0)
	case domain.PeriodYearly:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}
