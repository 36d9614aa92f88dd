package xid

import (
	"strings"
	"testing"
	"time"
)

func TestSaleNumberFormat(t *testing.T) {
	at := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	got := SaleNumber(at)
	if !strings.HasPrefix(got, "SAL-20261018-") || len(got) != len("SAL-20261018-")+6 {
		t.Fatalf("unexpected sale number %q", got)
	}
	if SaleNumber(at) == got {
		t.Fatalf("expected distinct numbers for repeated calls")
	}
	if !strings.HasPrefix(OrderNumber(at), "PO-20261018-") {
		t.Fatalf("unexpected order number %q", OrderNumber(at))
	}
}
