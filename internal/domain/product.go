package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the durable per-item-description classification memory. A record
// is created on first operator approval and updated on every subsequent run
// that sees the same description. While Approved it overrides every keyword
// rule in the classifier.
type Product struct {
	ID              int64           `json:"id" db:"id"`
	Description     string          `json:"description" db:"description"`
	Category        string          `json:"category" db:"category"`
	TaxRate         decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	LedgerCode      string          `json:"ledger_code" db:"ledger_code"`
	Handling        SpecialHandling `json:"handling,omitempty" db:"handling"`
	HandlingPeriods int             `json:"handling_periods,omitempty" db:"handling_periods"`
	HandlingStart   *time.Time      `json:"handling_start,omitempty" db:"handling_start"`
	HandlingEnd     *time.Time      `json:"handling_end,omitempty" db:"handling_end"`
	Approved        bool            `json:"approved" db:"approved"`
	FirstSeen       time.Time       `json:"first_seen" db:"first_seen"`
	LastSeen        time.Time       `json:"last_seen" db:"last_seen"`
	TxCount         int             `json:"tx_count" db:"tx_count"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Classification returns the product's stored settings as a classification.
func (p Product) Classification() Classification {
	return Classification{
		Category:   p.Category,
		TaxRate:    p.TaxRate,
		LedgerCode: p.LedgerCode,
		Handling:   p.Handling,
		FromMemory: true,
	}
}
