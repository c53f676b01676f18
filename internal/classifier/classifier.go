// Package classifier assigns every booking line item to an accounting
// category. Approved product-memory records override the keyword ruleset;
// a structural gift-card code check runs before the keyword rules; the
// catch-all rule guarantees a result. Classification is a pure function of
// the inputs and never fails.
package classifier

import (
	"strings"

	"studio-recon/internal/domain"
)

// ProductLookup resolves an exact item description to its product-memory
// record, if one exists.
type ProductLookup interface {
	Lookup(description string) (domain.Product, bool)
}

// ProductMap is a snapshot of product memory keyed by description.
type ProductMap map[string]domain.Product

func (m ProductMap) Lookup(description string) (domain.Product, bool) {
	p, ok := m[description]
	return p, ok
}

// Classifier resolves descriptions against a fixed snapshot of product
// memory and a sorted ruleset, so one run observes consistent state.
type Classifier struct {
	products ProductLookup
	rules    []domain.CategoryRule
	giftCard domain.CategoryRule
	catchAll domain.CategoryRule
}

// New builds a classifier from a product-memory snapshot and a ruleset.
// A nil or catch-all-less ruleset falls back to the defaults.
func New(products ProductLookup, rules []domain.CategoryRule) *Classifier {
	if len(rules) == 0 || !hasCatchAll(rules) {
		rules = DefaultRules()
	}
	if products == nil {
		products = ProductMap{}
	}

	sorted := SortRules(rules)
	c := &Classifier{products: products, rules: sorted}
	for _, r := range sorted {
		if r.Group == domain.GroupGiftCard && c.giftCard.ID == "" {
			c.giftCard = r
		}
		if r.CatchAll() {
			c.catchAll = r
			break
		}
	}
	return c
}

// Classify resolves a description to a category, tax rate, ledger code and
// special-handling tag. Resolution order: approved product memory, gift-card
// code pattern, keyword rules by priority, catch-all.
func (c *Classifier) Classify(description string) domain.Classification {
	description = strings.TrimSpace(description)
	if description == "" {
		return c.fromRule(c.catchAll)
	}

	if p, ok := c.products.Lookup(description); ok && p.Approved {
		return p.Classification()
	}

	return c.Suggest(description)
}

// Suggest applies only the ruleset, ignoring product memory. The review
// workflow uses it to pre-classify new-item candidates.
func (c *Classifier) Suggest(description string) domain.Classification {
	if c.giftCard.ID != "" && giftCardCode.MatchString(strings.TrimSpace(description)) {
		return c.fromRule(c.giftCard)
	}

	for _, rule := range c.rules {
		if rule.Matches(description) {
			return c.fromRule(rule)
		}
	}
	// Unreachable while the ruleset holds a catch-all; kept as a hard floor.
	return c.fromRule(c.catchAll)
}

func (c *Classifier) fromRule(r domain.CategoryRule) domain.Classification {
	return domain.Classification{
		Category:   r.Name,
		TaxRate:    r.TaxRate,
		LedgerCode: r.LedgerCode,
		Handling:   r.Handling,
	}
}

func hasCatchAll(rules []domain.CategoryRule) bool {
	for _, r := range rules {
		if r.CatchAll() {
			return true
		}
	}
	return false
}
