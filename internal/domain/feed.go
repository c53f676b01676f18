package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BookingRow is one line item from the booking/POS export (feed A).
type BookingRow struct {
	Channel     string          `json:"channel"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Tax         decimal.Decimal `json:"tax"`
	Email       string          `json:"email"`
}

// SettlementRow is one charge from the payment-processor export (feed B).
// Status indicates whether the charge completed; only completed charges
// participate in reconciliation.
type SettlementRow struct {
	Status string          `json:"status"`
	Email  string          `json:"email"`
	Gross  decimal.Decimal `json:"gross"`
	Fee    decimal.Decimal `json:"fee"`
}

// Completed reports whether the status field marks a completed charge.
func (r SettlementRow) Completed() bool {
	return containsFold(r.Status, "paid")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
