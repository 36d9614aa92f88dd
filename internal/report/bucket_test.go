package report

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/domain"
)

var fixedNow = time.Date(2026, time.October, 18, 15, 0, 0, 0, time.UTC)

func sale(at time.Time, total, margin int64, status domain.SaleStatus) domain.SaleHeader {
	return domain.SaleHeader{
		CreatedAt:   at,
		TotalAmount: decimal.NewFromInt(total),
		TotalMargin: decimal.NewFromInt(margin),
		Status:      status,
	}
}

func TestBucketWindowSizes(t *testing.T) {
	for period, want := range map[domain.Period]int{
		domain.PeriodDaily:   7,
		domain.PeriodWeekly:  4,
		domain.PeriodMonthly: 6,
		domain.PeriodYearly:  3,
	} {
		for _, rng := range []domain.Range{domain.RangeCurrent, domain.RangePrevious} {
			buckets, err := Bucket(nil, period, rng, fixedNow)
			if err != nil {
				t.Fatalf("bucket %s/%s: %v", period, rng, err)
			}
			if len(buckets) != want {
				t.Fatalf("bucket %s/%s: got %d buckets, want %d", period, rng, len(buckets), want)
			}
			for i := 1; i < len(buckets); i++ {
				if !buckets[i-1].PeriodStart.Before(buckets[i].PeriodStart) {
					t.Fatalf("bucket %s/%s not oldest-first at %d", period, rng, i)
				}
				if !buckets[i-1].PeriodEnd.Equal(buckets[i].PeriodStart) {
					t.Fatalf("bucket %s/%s has a gap at %d", period, rng, i)
				}
			}
		}
	}
}

func TestBucketMonthlyCurrentAndPrevious(t *testing.T) {
	current, err := Bucket(nil, domain.PeriodMonthly, domain.RangeCurrent, fixedNow)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	if current[0].Label != "2026-05" || current[5].Label != "2026-10" {
		t.Fatalf("unexpected current labels: %s .. %s", current[0].Label, current[5].Label)
	}

	previous, err := Bucket(nil, domain.PeriodMonthly, domain.RangePrevious, fixedNow)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	if previous[0].Label != "2025-11" || previous[5].Label != "2026-04" {
		t.Fatalf("unexpected previous labels: %s .. %s", previous[0].Label, previous[5].Label)
	}
	if !previous[5].PeriodEnd.Equal(current[0].PeriodStart) {
		t.Fatalf("previous window must end where current starts")
	}
}

func TestBucketWeeklyStartsOnMonday(t *testing.T) {
	buckets, err := Bucket(nil, domain.PeriodWeekly, domain.RangeCurrent, fixedNow)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	last := buckets[len(buckets)-1]
	if last.Label != "2026-10-12" || last.PeriodStart.Weekday() != time.Monday {
		t.Fatalf("unexpected current week bucket: %s (%s)", last.Label, last.PeriodStart.Weekday())
	}
}

func TestBucketSumsOnlyCompletedSales(t *testing.T) {
	sales := []domain.SaleHeader{
		sale(time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC), 3050, 1200, domain.SaleCompleted),
		sale(time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), 1000, 400, domain.SaleCompleted),
		sale(time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC), 9999, 9999, domain.SaleCancelled),
		sale(time.Date(2026, time.October, 17, 23, 59, 0, 0, time.UTC), 500, 100, domain.SaleCompleted),
		sale(time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC), 7777, 7777, domain.SaleReturned),
		sale(time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC), 200, 50, domain.SaleCompleted),
	}

	buckets, err := Bucket(sales, domain.PeriodDaily, domain.RangeCurrent, fixedNow)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	today := buckets[6]
	if today.Label != "2026-10-18" {
		t.Fatalf("expected newest bucket last, got %s", today.Label)
	}
	if !today.SalesSum.Equal(decimal.NewFromInt(4050)) || !today.MarginSum.Equal(decimal.NewFromInt(1600)) {
		t.Fatalf("unexpected today sums: %s / %s", today.SalesSum, today.MarginSum)
	}
	yesterday := buckets[5]
	if !yesterday.SalesSum.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected yesterday sum: %s", yesterday.SalesSum)
	}
	if !buckets[4].SalesSum.IsZero() {
		t.Fatalf("returned sale must not be counted, got %s", buckets[4].SalesSum)
	}

	total, margin := Sums(buckets)
	if !total.Equal(decimal.NewFromInt(4550)) || !margin.Equal(decimal.NewFromInt(1700)) {
		t.Fatalf("unexpected window sums: %s / %s", total, margin)
	}
}

func TestBucketIsIdempotent(t *testing.T) {
	sales := []domain.SaleHeader{
		sale(time.Date(2026, time.August, 3, 9, 0, 0, 0, time.UTC), 100, 10, domain.SaleCompleted),
		sale(time.Date(2026, time.October, 3, 9, 0, 0, 0, time.UTC), 300, 30, domain.SaleCompleted),
	}
	first, err := Bucket(sales, domain.PeriodMonthly, domain.RangeCurrent, fixedNow)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	second, err := Bucket(sales, domain.PeriodMonthly, domain.RangeCurrent, fixedNow)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results across runs")
	}
}

func TestBucketRejectsUnknownInputs(t *testing.T) {
	if _, err := Bucket(nil, domain.Period("hourly"), domain.RangeCurrent, fixedNow); err == nil {
		t.Fatalf("expected unknown period to be rejected")
	}
	if _, err := Bucket(nil, domain.PeriodDaily, domain.Range("next"), fixedNow); err == nil {
		t.Fatalf("expected unknown range to be rejected")
	}
	if r, err := ParseRange(""); err != nil || r != domain.RangeCurrent {
		t.Fatalf("expected empty range to default to current, got %q %v", r, err)
	}
}
