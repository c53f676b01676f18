package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingStatus represents the state of a suspended run.
type PendingStatus string

const (
	PendingAwaitingReview PendingStatus = "AWAITING_REVIEW"
)

// NewItemCandidate is an item description with no product-memory record,
// pre-classified by the keyword ruleset as a suggestion for the operator.
type NewItemCandidate struct {
	Description string          `json:"description"`
	Suggestion  Classification  `json:"suggestion"`
	TxCount     int             `json:"tx_count"`
	Amount      decimal.Decimal `json:"amount"`
}

// PendingReconciliation is a suspended run awaiting operator classification
// of unseen items. It carries the already-parsed rows of both feeds so the
// run can resume after a process restart. Deleted once resumed or discarded.
type PendingReconciliation struct {
	ID             string             `json:"id" db:"id"`
	Period         string             `json:"period" db:"period"`
	BookingRows    []BookingRow       `json:"booking_rows"`
	SettlementRows []SettlementRow    `json:"settlement_rows"`
	Candidates     []NewItemCandidate `json:"candidates"`
	NewItemCount   int                `json:"new_item_count" db:"new_item_count"`
	Status         PendingStatus      `json:"status" db:"status"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
}

// ReviewDecision is one operator classification for a new-item candidate.
type ReviewDecision struct {
	Description     string          `json:"description" binding:"required"`
	Category        string          `json:"category" binding:"required"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	LedgerCode      string          `json:"ledger_code"`
	Handling        SpecialHandling `json:"handling,omitempty"`
	HandlingPeriods int             `json:"handling_periods,omitempty"`
	HandlingStart   *time.Time      `json:"handling_start,omitempty"`
	HandlingEnd     *time.Time      `json:"handling_end,omitempty"`
}
