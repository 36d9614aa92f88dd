package display

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCurrencyRoundsAndGroups(t *testing.T) {
	f := New("id-ID")
	cases := map[string]string{
		"3050":    "Rp 3.050",
		"1234.5":  "Rp 1.235",
		"1234.49": "Rp 1.234",
		"-2050.5": "-Rp 2.051",
		"1000000": "Rp 1.000.000",
		"0.4":     "Rp 0",
	}
	for in, want := range cases {
		if got := f.Currency(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Currency(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestNumberUsesLocaleSeparator(t *testing.T) {
	if got := New("en-US").Number(decimal.NewFromInt(1234567)); got != "1,234,567" {
		t.Fatalf("en-US number = %q", got)
	}
	if got := New("not a locale!!").Number(decimal.NewFromInt(4550)); got != "4.550" {
		t.Fatalf("fallback number = %q", got)
	}
}

func TestDate(t *testing.T) {
	if got := Date(time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC)); got != "2026-10-18" {
		t.Fatalf("Date = %q", got)
	}
}
