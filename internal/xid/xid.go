package xid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a random identity for a stored row.
func New() string {
	return uuid.NewString()
}

// SaleNumber builds a human-facing sale number such as SAL-20261018-3F9A1C.
func SaleNumber(at time.Time) string {
	return number("SAL", at)
}

// OrderNumber builds a human-facing purchase order number.
func OrderNumber(at time.Time) string {
	return number("PO", at)
}

func number(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, at.UTC().Format("20060102"), suffix)
}
