package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-recon/internal/aggregate"
	"studio-recon/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func booking(total string) *aggregate.BookingIdentity {
	return &aggregate.BookingIdentity{
		Total: dec(total),
		Items: map[string]struct{}{"Monthly Membership": {}},
		Dates: map[string]struct{}{"2025-03-01": {}},
	}
}

func settlement(gross, fee string) *aggregate.SettlementIdentity {
	return &aggregate.SettlementIdentity{Gross: dec(gross), Fee: dec(fee), TxCount: 1}
}

func TestClassify_ToleranceBands(t *testing.T) {
	tests := []struct {
		name     string
		feedA    string
		feedB    string
		expected domain.MatchStatus
	}{
		{"exact match", "100.00", "100.00", domain.StatusMatch},
		{"difference of 0.999 still matches", "100.00", "99.001", domain.StatusMatch},
		{"difference exactly 1.00 is not a match", "100.00", "99.00", domain.StatusSmallDiff},
		{"difference of 4.99", "100.00", "95.01", domain.StatusSmallDiff},
		{"difference exactly 5.00 is not small", "100.00", "95.00", domain.StatusLargeDiff},
		{"large difference", "100.00", "50.00", domain.StatusLargeDiff},
		{"only in feed A", "100.00", "0", domain.StatusOnlyInA},
		{"only in feed B", "0", "100.00", domain.StatusOnlyInB},
	}

	m := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comparisons := m.Compare(
				map[string]*aggregate.BookingIdentity{"c@x.com": booking(tt.feedA)},
				map[string]*aggregate.SettlementIdentity{"c@x.com": settlement(tt.feedB, "0")},
			)
			require.Len(t, comparisons, 1)
			assert.Equal(t, tt.expected, comparisons[0].Status)
		})
	}
}

func TestCompare_NetAndDifference(t *testing.T) {
	m := New(nil)

	comparisons := m.Compare(
		map[string]*aggregate.BookingIdentity{"alice@x.com": booking("100.00")},
		map[string]*aggregate.SettlementIdentity{"alice@x.com": settlement("98.00", "3.00")},
	)
	require.Len(t, comparisons, 1)

	cmp := comparisons[0]
	assert.Equal(t, domain.StatusSmallDiff, cmp.Status)
	assert.True(t, cmp.Difference.Equal(dec("2.00")), "difference is signed feed A minus feed B gross")
	assert.True(t, cmp.FeedBNet.Equal(dec("95.00")))
	assert.Equal(t, "Monthly Membership", cmp.Items)
	assert.Equal(t, "2025-03-01", cmp.Dates)
}

func TestCompare_NetComputedForUnmatched(t *testing.T) {
	m := New(nil)

	comparisons := m.Compare(
		nil,
		map[string]*aggregate.SettlementIdentity{"ghost@x.com": settlement("20.00", "0.50")},
	)
	require.Len(t, comparisons, 1)
	assert.Equal(t, domain.StatusOnlyInB, comparisons[0].Status)
	assert.True(t, comparisons[0].FeedBNet.Equal(dec("19.50")))
	assert.Equal(t, 1, comparisons[0].TxCount)
}

func TestCompare_DenyListExcludesOperatorIdentities(t *testing.T) {
	m := New([]string{" Info@Studio.example "})

	comparisons := m.Compare(
		map[string]*aggregate.BookingIdentity{
			"info@studio.example": booking("250.00"),
			"alice@x.com":         booking("50.00"),
		},
		nil,
	)
	require.Len(t, comparisons, 1)
	assert.Equal(t, "alice@x.com", comparisons[0].Identity)
}

func TestCompare_SortedByDescendingAbsoluteDifference(t *testing.T) {
	m := New(nil)

	comparisons := m.Compare(
		map[string]*aggregate.BookingIdentity{
			"small@x.com": booking("100.00"),
			"big@x.com":   booking("100.00"),
			"even@x.com":  booking("100.00"),
		},
		map[string]*aggregate.SettlementIdentity{
			"small@x.com": settlement("98.00", "0"),
			"big@x.com":   settlement("10.00", "0"),
			"even@x.com":  settlement("100.00", "0"),
		},
	)
	require.Len(t, comparisons, 3)
	assert.Equal(t, "big@x.com", comparisons[0].Identity)
	assert.Equal(t, "small@x.com", comparisons[1].Identity)
	assert.Equal(t, "even@x.com", comparisons[2].Identity)
}
