// Package matcher joins the per-identity accumulators of both feeds into
// comparison records with a tolerance-banded match status.
package matcher

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"studio-recon/internal/aggregate"
	"studio-recon/internal/domain"
)

// Tolerance bands in whole monetary units. A difference strictly under
// matchTolerance counts as a match; under smallDiffTolerance as a small
// difference; anything else is a large difference.
var (
	matchTolerance     = decimal.NewFromInt(1)
	smallDiffTolerance = decimal.NewFromInt(5)
)

// Matcher compares booking and settlement identity totals, skipping a fixed
// deny-list of operator-owned identities (the business's own accounts show
// up in both feeds and would only add noise).
type Matcher struct {
	denied map[string]struct{}
}

func New(denyList []string) *Matcher {
	denied := make(map[string]struct{}, len(denyList))
	for _, identity := range denyList {
		identity = strings.ToLower(strings.TrimSpace(identity))
		if identity != "" {
			denied[identity] = struct{}{}
		}
	}
	return &Matcher{denied: denied}
}

// Compare produces one comparison per identity present in either accumulator,
// sorted by descending absolute difference so operators see the largest
// discrepancies first. Ties sort by identity to keep output deterministic.
func (m *Matcher) Compare(
	bookings map[string]*aggregate.BookingIdentity,
	settlements map[string]*aggregate.SettlementIdentity,
) []domain.Comparison {
	identities := make(map[string]struct{}, len(bookings)+len(settlements))
	for identity := range bookings {
		identities[identity] = struct{}{}
	}
	for identity := range settlements {
		identities[identity] = struct{}{}
	}

	comparisons := make([]domain.Comparison, 0, len(identities))
	for identity := range identities {
		if _, skip := m.denied[identity]; skip {
			continue
		}
		comparisons = append(comparisons, m.compareOne(identity, bookings[identity], settlements[identity]))
	}

	sort.Slice(comparisons, func(i, j int) bool {
		di, dj := comparisons[i].Difference.Abs(), comparisons[j].Difference.Abs()
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return comparisons[i].Identity < comparisons[j].Identity
	})
	return comparisons
}

func (m *Matcher) compareOne(identity string, booking *aggregate.BookingIdentity, settlement *aggregate.SettlementIdentity) domain.Comparison {
	cmp := domain.Comparison{
		Identity:   identity,
		FeedATotal: decimal.Zero,
		FeedBGross: decimal.Zero,
		FeedBFee:   decimal.Zero,
	}

	if booking != nil {
		cmp.FeedATotal = booking.Total
		cmp.Items = booking.JoinedItems()
		cmp.Dates = booking.JoinedDates()
		cmp.TxCount = booking.TxCount
	}
	if settlement != nil {
		cmp.FeedBGross = settlement.Gross
		cmp.FeedBFee = settlement.Fee
		if cmp.TxCount == 0 {
			cmp.TxCount = settlement.TxCount
		}
	}

	cmp.FeedBNet = cmp.FeedBGross.Sub(cmp.FeedBFee)
	cmp.Difference = cmp.FeedATotal.Sub(cmp.FeedBGross)
	cmp.Status = classify(cmp.FeedATotal, cmp.FeedBGross)
	return cmp
}

// classify is a pure function of the two totals; statuses are terminal.
func classify(feedATotal, feedBGross decimal.Decimal) domain.MatchStatus {
	switch {
	case feedATotal.IsPositive() && feedBGross.IsZero():
		return domain.StatusOnlyInA
	case feedATotal.IsZero() && feedBGross.IsPositive():
		return domain.StatusOnlyInB
	}

	diff := feedATotal.Sub(feedBGross).Abs()
	switch {
	case diff.LessThan(matchTolerance):
		return domain.StatusMatch
	case diff.LessThan(smallDiffTolerance):
		return domain.StatusSmallDiff
	default:
		return domain.StatusLargeDiff
	}
}
