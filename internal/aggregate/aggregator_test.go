package aggregate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-recon/internal/classifier"
	"studio-recon/internal/domain"
)

var reconcilable = []string{"card", "ideal", "online"}

func newAggregator() *Aggregator {
	return New(classifier.New(nil, nil), reconcilable)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestRun_IdentityAggregation(t *testing.T) {
	agg := newAggregator()

	bookings := []domain.BookingRow{
		{Channel: "Card", Description: "Monthly Membership", Date: day(1), Amount: dec("50.00"), Email: "Alice@X.com"},
		{Channel: "iDEAL", Description: "Losse les", Date: day(2), Amount: dec("15.00"), Email: "alice@x.com "},
		{Channel: "Contant", Description: "Thee", Date: day(2), Amount: dec("2.50"), Email: "alice@x.com"},
		{Channel: "Card", Description: "Workshop", Date: day(3), Amount: dec("30.00"), Email: ""},
	}
	settlements := []domain.SettlementRow{
		{Status: "paid", Email: "ALICE@x.com", Gross: dec("48.00"), Fee: dec("1.50")},
		{Status: "paid", Email: "alice@x.com", Gross: dec("15.00"), Fee: dec("0.30")},
		{Status: "failed", Email: "alice@x.com", Gross: dec("99.00"), Fee: dec("2.00")},
		{Status: "paid", Email: "", Gross: dec("10.00"), Fee: dec("0.10")},
	}

	res := agg.Run(bookings, settlements)

	// Identity variants normalize to one key; the cash row stays out.
	require.Len(t, res.ByIdentityA, 1)
	alice := res.ByIdentityA["alice@x.com"]
	require.NotNil(t, alice)
	assert.True(t, alice.Total.Equal(dec("65.00")))
	assert.Equal(t, 2, alice.TxCount)
	assert.Equal(t, "Losse les, Monthly Membership", alice.JoinedItems())
	assert.Equal(t, "2025-03-01, 2025-03-02", alice.JoinedDates())

	// Failed charges and empty identities are skipped on feed B.
	require.Len(t, res.ByIdentityB, 1)
	b := res.ByIdentityB["alice@x.com"]
	assert.True(t, b.Gross.Equal(dec("63.00")))
	assert.True(t, b.Fee.Equal(dec("1.80")))

	// The empty-identity card row still lands in the reconcilable total.
	assert.True(t, res.ReconcilableTotal.Equal(dec("95.00")))
	assert.True(t, res.NonReconcilableTotal.Equal(dec("2.50")))
	assert.True(t, res.GrandTotal.Equal(dec("97.50")))
}

func TestRun_CategoryTotalsCoverAllChannels(t *testing.T) {
	agg := newAggregator()

	bookings := []domain.BookingRow{
		{Channel: "Card", Description: "Monthly Membership", Date: day(1), Amount: dec("50.00"), Tax: dec("4.13")},
		{Channel: "Contant", Description: "Monthly Membership", Date: day(2), Amount: dec("50.00"), Tax: dec("4.13")},
		{Channel: "Card", Description: "Yoga mat", Date: day(1), Amount: dec("25.00"), Tax: dec("4.34")},
	}

	res := agg.Run(bookings, nil)
	summaries := res.CategorySummaries()
	require.Len(t, summaries, 2)

	// Both membership rows count, including the non-reconcilable cash one.
	assert.Equal(t, "Abonnementen", summaries[0].Category)
	assert.Equal(t, 2, summaries[0].TxCount)
	assert.True(t, summaries[0].Amount.Equal(dec("100.00")))
	assert.True(t, summaries[0].Tax.Equal(dec("8.26")))
	assert.True(t, summaries[0].Share.Equal(dec("80.00")))

	assert.Equal(t, "Verkoop artikelen", summaries[1].Category)
	assert.True(t, summaries[1].Share.Equal(dec("20.00")))

	items := res.CategoryItems("Abonnementen")
	require.Len(t, items, 1)
	assert.Equal(t, "Monthly Membership", items[0].Description)
	assert.Equal(t, 2, items[0].TxCount)
	assert.Equal(t, "2025-03-01, 2025-03-02", items[0].Dates)
}

func TestRun_ChannelSummaries(t *testing.T) {
	agg := newAggregator()

	bookings := []domain.BookingRow{
		{Channel: "Card", Description: "Les", Date: day(1), Amount: dec("15.00")},
		{Channel: "Card", Description: "Les", Date: day(2), Amount: dec("15.00")},
		{Channel: "Contant", Description: "Thee", Date: day(1), Amount: dec("10.00")},
	}

	res := agg.Run(bookings, nil)
	channels := res.ChannelSummaries()
	require.Len(t, channels, 2)

	assert.Equal(t, "Card", channels[0].Channel)
	assert.Equal(t, 2, channels[0].TxCount)
	assert.True(t, channels[0].SettlesViaFeedB)
	assert.True(t, channels[0].Share.Equal(dec("75.00")))

	assert.Equal(t, "Contant", channels[1].Channel)
	assert.False(t, channels[1].SettlesViaFeedB)
}

func TestRun_EmptyInputYieldsZeroShares(t *testing.T) {
	res := newAggregator().Run(nil, nil)

	assert.Empty(t, res.CategorySummaries())
	assert.Empty(t, res.ChannelSummaries())
	assert.True(t, res.GrandTotal.IsZero())
}

func TestReconcilable_SubstringMatchIsCaseInsensitive(t *testing.T) {
	agg := newAggregator()

	assert.True(t, agg.Reconcilable("CARD"))
	assert.True(t, agg.Reconcilable("Creditcard online"))
	assert.True(t, agg.Reconcilable("iDEAL"))
	assert.False(t, agg.Reconcilable("Contant"))
	assert.False(t, agg.Reconcilable("Pin"))
}

// Running twice on identical input must produce byte-identical derived
// outputs, independent of map iteration order.
func TestRun_Deterministic(t *testing.T) {
	bookings := []domain.BookingRow{
		{Channel: "Card", Description: "Monthly Membership", Date: day(1), Amount: dec("50.00"), Email: "a@x.com"},
		{Channel: "iDEAL", Description: "Workshop", Date: day(2), Amount: dec("30.00"), Email: "b@x.com"},
		{Channel: "Contant", Description: "Yoga mat", Date: day(3), Amount: dec("25.00"), Email: "c@x.com"},
		{Channel: "Card", Description: "Strippenkaart 10 lessen", Date: day(4), Amount: dec("80.00"), Email: "a@x.com"},
	}
	settlements := []domain.SettlementRow{
		{Status: "paid", Email: "a@x.com", Gross: dec("130.00"), Fee: dec("2.00")},
		{Status: "paid", Email: "b@x.com", Gross: dec("30.00"), Fee: dec("0.50")},
	}

	first := newAggregator().Run(bookings, settlements)
	second := newAggregator().Run(bookings, settlements)

	assert.Equal(t, marshal(t, first.CategorySummaries()), marshal(t, second.CategorySummaries()))
	assert.Equal(t, marshal(t, first.ChannelSummaries()), marshal(t, second.ChannelSummaries()))
	for _, category := range first.Categories() {
		assert.Equal(t, marshal(t, first.CategoryItems(category)), marshal(t, second.CategoryItems(category)))
	}
}

func marshal(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
