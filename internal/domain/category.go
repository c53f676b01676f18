package domain

import (
	"github.com/shopspring/decimal"
)

// CategoryGroup tags a rule with its accounting group.
type CategoryGroup string

const (
	GroupMembership CategoryGroup = "membership"
	GroupClass      CategoryGroup = "class"
	GroupWorkshop   CategoryGroup = "workshop"
	GroupRetail     CategoryGroup = "retail"
	GroupGiftCard   CategoryGroup = "giftcard"
	GroupOther      CategoryGroup = "other"
)

// SpecialHandling marks categories whose revenue is not recognized at sale time.
type SpecialHandling string

const (
	HandlingNone    SpecialHandling = ""
	HandlingAccrual SpecialHandling = "accrual"
	HandlingSpread  SpecialHandling = "spread"
)

// CategoryRule maps item descriptions to an accounting category by keyword.
// Rules evaluate in ascending Priority order; the first match wins. A rule
// matches when the lower-cased description contains any keyword and none of
// the exclusion terms. The catch-all rule has an empty keyword list and the
// highest priority number.
type CategoryRule struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Keywords   []string        `json:"keywords" yaml:"keywords"`
	Excludes   []string        `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	TaxRate    decimal.Decimal `json:"tax_rate" yaml:"tax_rate"`
	LedgerCode string          `json:"ledger_code" yaml:"ledger_code"`
	Group      CategoryGroup   `json:"group" yaml:"group"`
	Handling   SpecialHandling `json:"handling,omitempty" yaml:"handling,omitempty"`
	Priority   int             `json:"priority" yaml:"priority"`
}

// CatchAll reports whether the rule matches every description.
func (r CategoryRule) CatchAll() bool {
	return len(r.Keywords) == 0
}

// Matches applies the rule's keywords and exclusion terms to a description.
// The catch-all rule matches everything.
func (r CategoryRule) Matches(description string) bool {
	if r.CatchAll() {
		return true
	}
	for _, excl := range r.Excludes {
		if containsFold(description, excl) {
			return false
		}
	}
	for _, kw := range r.Keywords {
		if containsFold(description, kw) {
			return true
		}
	}
	return false
}

// Classification is the resolved category assignment for one item description.
type Classification struct {
	Category   string          `json:"category"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	LedgerCode string          `json:"ledger_code"`
	Handling   SpecialHandling `json:"handling,omitempty"`
	FromMemory bool            `json:"from_memory"`
}
