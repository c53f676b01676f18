package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle state of a reconciliation session.
type SessionStatus string

const (
	SessionCompleted SessionStatus = "COMPLETED"
	SessionArchived  SessionStatus = "ARCHIVED"
)

// Session is one finalized reconciliation run with its aggregate totals.
// Immutable after creation except Status.
type Session struct {
	ID                   string          `json:"id" db:"id"`
	Period               string          `json:"period" db:"period"`
	FeedATotal           decimal.Decimal `json:"feed_a_total" db:"feed_a_total"`
	FeedBGross           decimal.Decimal `json:"feed_b_gross" db:"feed_b_gross"`
	FeedBFee             decimal.Decimal `json:"feed_b_fee" db:"feed_b_fee"`
	FeedBNet             decimal.Decimal `json:"feed_b_net" db:"feed_b_net"`
	NonReconcilableTotal decimal.Decimal `json:"non_reconcilable_total" db:"non_reconcilable_total"`
	MatchedCount         int             `json:"matched_count" db:"matched_count"`
	UnmatchedCount       int             `json:"unmatched_count" db:"unmatched_count"`
	Status               SessionStatus   `json:"status" db:"status"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// MatchStatus classifies how a customer's feed-A and feed-B totals relate.
type MatchStatus string

const (
	StatusMatch     MatchStatus = "match"
	StatusSmallDiff MatchStatus = "small_diff"
	StatusLargeDiff MatchStatus = "large_diff"
	StatusOnlyInA   MatchStatus = "only_in_a"
	StatusOnlyInB   MatchStatus = "only_in_b"
)

// Comparison is the per-identity reconciliation record of one session.
type Comparison struct {
	ID         int64           `json:"id" db:"id" csv:"-"`
	SessionID  string          `json:"session_id" db:"session_id" csv:"-"`
	Identity   string          `json:"identity" db:"identity" csv:"identity"`
	FeedATotal decimal.Decimal `json:"feed_a_total" db:"feed_a_total" csv:"feed_a_total"`
	FeedBGross decimal.Decimal `json:"feed_b_gross" db:"feed_b_gross" csv:"feed_b_gross"`
	FeedBFee   decimal.Decimal `json:"feed_b_fee" db:"feed_b_fee" csv:"feed_b_fee"`
	FeedBNet   decimal.Decimal `json:"feed_b_net" db:"feed_b_net" csv:"feed_b_net"`
	Difference decimal.Decimal `json:"difference" db:"difference" csv:"difference"`
	Status     MatchStatus     `json:"status" db:"status" csv:"status"`
	Items      string          `json:"items" db:"items" csv:"items"`
	Dates      string          `json:"dates" db:"dates" csv:"dates"`
	TxCount    int             `json:"tx_count" db:"tx_count" csv:"tx_count"`
}

// CategorySummary is one category's totals within a session.
type CategorySummary struct {
	ID         int64           `json:"id" db:"id"`
	SessionID  string          `json:"session_id" db:"session_id"`
	Category   string          `json:"category" db:"category"`
	TxCount    int             `json:"tx_count" db:"tx_count"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Tax        decimal.Decimal `json:"tax" db:"tax"`
	TaxRate    decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	LedgerCode string          `json:"ledger_code" db:"ledger_code"`
	Share      decimal.Decimal `json:"share" db:"share"`
}

// CategoryItem is the per-description drill-down of one category summary.
type CategoryItem struct {
	ID          int64           `json:"id" db:"id"`
	SessionID   string          `json:"session_id" db:"session_id"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	TxCount     int             `json:"tx_count" db:"tx_count"`
	Dates       string          `json:"dates" db:"dates"`
}

// ChannelSummary is one payment channel's totals within a session.
type ChannelSummary struct {
	ID              int64           `json:"id" db:"id"`
	SessionID       string          `json:"session_id" db:"session_id"`
	Channel         string          `json:"channel" db:"channel"`
	TxCount         int             `json:"tx_count" db:"tx_count"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Share           decimal.Decimal `json:"share" db:"share"`
	SettlesViaFeedB bool            `json:"settles_via_feed_b" db:"settles_via_feed_b"`
}
