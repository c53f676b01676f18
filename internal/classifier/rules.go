package classifier

import (
	"regexp"
	"sort"

	"github.com/shopspring/decimal"

	"studio-recon/internal/domain"
)

// Dutch VAT rates applicable to the business's revenue buckets.
var (
	taxHigh = decimal.RequireFromString("0.21")
	taxLow  = decimal.RequireFromString("0.09")
	taxNone = decimal.Zero
)

// giftCardCode matches bare gift-card voucher codes as they appear on booking
// lines (fixed-length uppercase alphanumeric). Evaluated before keyword rules.
var giftCardCode = regexp.MustCompile(`^[A-Z0-9]{9}$`)

// CatchAllCategory is assigned when no rule matches.
const CatchAllCategory = "Overig"

// DefaultRules is the built-in category ruleset. Rules evaluate in ascending
// Priority order; exactly one catch-all rule (empty keyword list) carries the
// highest priority number. Operators can override the set through the rules
// store; this slice itself is never mutated.
func DefaultRules() []domain.CategoryRule {
	return []domain.CategoryRule{
		{
			ID:         "giftcards",
			Name:       "Cadeaubonnen",
			Keywords:   []string{"cadeaubon", "giftcard", "gift card", "kadobon"},
			TaxRate:    taxNone,
			LedgerCode: "8900",
			Group:      domain.GroupGiftCard,
			Handling:   domain.HandlingAccrual,
			Priority:   10,
		},
		{
			ID:         "annual-memberships",
			Name:       "Jaarabonnementen",
			Keywords:   []string{"jaarabonnement", "jaarlidmaatschap", "annual membership", "yearly"},
			TaxRate:    taxLow,
			LedgerCode: "8010",
			Group:      domain.GroupMembership,
			Handling:   domain.HandlingSpread,
			Priority:   20,
		},
		{
			// "abonnement" also appears inside "jaarabonnement"; the annual
			// rule runs first and this one excludes the annual wording so the
			// overlap cannot misclassify.
			ID:         "memberships",
			Name:       "Abonnementen",
			Keywords:   []string{"abonnement", "lidmaatschap", "membership", "monthly"},
			Excludes:   []string{"jaar", "annual", "yearly"},
			TaxRate:    taxLow,
			LedgerCode: "8000",
			Group:      domain.GroupMembership,
			Priority:   30,
		},
		{
			ID:         "class-cards",
			Name:       "Strippenkaarten",
			Keywords:   []string{"strippenkaart", "rittenkaart", "class card", "10 lessen", "5 lessen"},
			TaxRate:    taxLow,
			LedgerCode: "8100",
			Group:      domain.GroupClass,
			Handling:   domain.HandlingAccrual,
			Priority:   40,
		},
		{
			// "les" overlaps with the class-card names ("10 lessen"); those
			// are excluded so a card purchase is not booked as a single class.
			ID:         "single-classes",
			Name:       "Losse lessen",
			Keywords:   []string{"les", "class", "drop-in", "proefles"},
			Excludes:   []string{"strippenkaart", "rittenkaart", "10 lessen", "5 lessen"},
			TaxRate:    taxLow,
			LedgerCode: "8110",
			Group:      domain.GroupClass,
			Priority:   50,
		},
		{
			ID:         "workshops",
			Name:       "Workshops",
			Keywords:   []string{"workshop", "cursus", "training", "retreat"},
			TaxRate:    taxLow,
			LedgerCode: "8200",
			Group:      domain.GroupWorkshop,
			Priority:   60,
		},
		{
			ID:         "retail",
			Name:       "Verkoop artikelen",
			Keywords:   []string{"mat", "handdoek", "fles", "bidon", "shirt", "thee", "verkoop"},
			TaxRate:    taxHigh,
			LedgerCode: "8300",
			Group:      domain.GroupRetail,
			Priority:   70,
		},
		{
			ID:         "catch-all",
			Name:       CatchAllCategory,
			Keywords:   nil,
			TaxRate:    taxHigh,
			LedgerCode: "8999",
			Group:      domain.GroupOther,
			Priority:   1000,
		},
	}
}

// SortRules orders a ruleset for evaluation, keeping ties stable by ID so
// operator-edited sets evaluate deterministically.
func SortRules(rules []domain.CategoryRule) []domain.CategoryRule {
	sorted := make([]domain.CategoryRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
