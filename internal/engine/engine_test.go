package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-recon/internal/domain"
	"studio-recon/internal/repository"
)

var (
	reconcilable = []string{"card", "ideal", "online"}
	denyList     = []string{"info@studio.example"}
)

func newEngine(store repository.Store) *Engine {
	return New(store, reconcilable, denyList)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bookingRows() []domain.BookingRow {
	return []domain.BookingRow{
		{Channel: "Card", Description: "Monthly Membership", Amount: dec("60.00"), Tax: dec("4.95"), Email: "alice@x.com"},
		{Channel: "Card", Description: "Monthly Membership", Amount: dec("40.00"), Tax: dec("3.30"), Email: "alice@x.com"},
	}
}

func settlementRows() []domain.SettlementRow {
	return []domain.SettlementRow{
		{Status: "paid", Email: "alice@x.com", Gross: dec("98.00"), Fee: dec("3.00")},
	}
}

func TestReconcile_EndToEnd(t *testing.T) {
	store := repository.NewMemoryStore()
	e := newEngine(store)

	outcome, err := e.Reconcile(bookingRows(), settlementRows(), "2025-03", true)
	require.NoError(t, err)
	require.NotNil(t, outcome.Session)
	assert.Nil(t, outcome.Pending)

	session := outcome.Session
	assert.True(t, session.FeedATotal.Equal(dec("100.00")))
	assert.True(t, session.FeedBGross.Equal(dec("98.00")))
	assert.True(t, session.FeedBFee.Equal(dec("3.00")))
	assert.True(t, session.FeedBNet.Equal(dec("95.00")))
	assert.Equal(t, 0, session.MatchedCount)
	assert.Equal(t, 1, session.UnmatchedCount)
	assert.Equal(t, domain.SessionCompleted, session.Status)

	comparisons, err := store.GetComparisons(session.ID)
	require.NoError(t, err)
	require.Len(t, comparisons, 1)
	cmp := comparisons[0]
	assert.Equal(t, "alice@x.com", cmp.Identity)
	assert.Equal(t, domain.StatusSmallDiff, cmp.Status)
	assert.True(t, cmp.Difference.Equal(dec("2.00")))
	assert.True(t, cmp.FeedBNet.Equal(dec("95.00")))

	summaries, err := store.GetCategorySummaries(session.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Abonnementen", summaries[0].Category)
	assert.True(t, summaries[0].Amount.Equal(dec("100.00")))
	assert.Equal(t, 2, summaries[0].TxCount)

	items, err := store.GetCategoryItems(session.ID, "Abonnementen")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Monthly Membership", items[0].Description)

	channels, err := store.GetChannelSummaries(session.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "Card", channels[0].Channel)
	assert.True(t, channels[0].SettlesViaFeedB)
}

func TestReconcile_RejectsEmptyFeeds(t *testing.T) {
	e := newEngine(repository.NewMemoryStore())

	_, err := e.Reconcile(nil, settlementRows(), "2025-03", true)
	assert.ErrorIs(t, err, domain.ErrEmptyFeed)

	_, err = e.Reconcile(bookingRows(), nil, "2025-03", true)
	assert.ErrorIs(t, err, domain.ErrEmptyFeed)
}

func TestReconcile_SuspendsOnNewItems(t *testing.T) {
	store := repository.NewMemoryStore()
	e := newEngine(store)

	outcome, err := e.Reconcile(bookingRows(), settlementRows(), "2025-03", false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Pending)
	assert.Nil(t, outcome.Session)

	pending := outcome.Pending
	assert.Equal(t, domain.PendingAwaitingReview, pending.Status)
	assert.Equal(t, 1, pending.NewItemCount)
	require.Len(t, pending.Candidates, 1)

	candidate := pending.Candidates[0]
	assert.Equal(t, "Monthly Membership", candidate.Description)
	assert.Equal(t, "Abonnementen", candidate.Suggestion.Category, "suggestion comes from the keyword rules")
	assert.Equal(t, 2, candidate.TxCount)
	assert.True(t, candidate.Amount.Equal(dec("100.00")))

	// No session yet; the pending record is durable.
	sessions, err := store.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
	stored, err := store.GetPending(pending.ID)
	require.NoError(t, err)
	require.Len(t, stored.BookingRows, 2)
}

func TestResume_AppliesDecisionsAndDeletesPending(t *testing.T) {
	store := repository.NewMemoryStore()
	e := newEngine(store)

	outcome, err := e.Reconcile(bookingRows(), settlementRows(), "2025-03", false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Pending)

	decision := domain.ReviewDecision{
		Description: "Monthly Membership",
		Category:    "Workshops",
		TaxRate:     dec("0.09"),
		LedgerCode:  "8200",
	}
	session, err := e.Resume(outcome.Pending.ID, []domain.ReviewDecision{decision})
	require.NoError(t, err)

	// The operator decision, not the keyword suggestion, shapes the session.
	summaries, err := store.GetCategorySummaries(session.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Workshops", summaries[0].Category)
	assert.True(t, summaries[0].Amount.Equal(dec("100.00")))
	assert.Equal(t, "8200", summaries[0].LedgerCode)

	_, err = store.GetPending(outcome.Pending.ID)
	assert.ErrorIs(t, err, domain.ErrPendingNotFound)

	product, err := store.GetProduct("Monthly Membership")
	require.NoError(t, err)
	assert.True(t, product.Approved)
	assert.Equal(t, "Workshops", product.Category)
	assert.Equal(t, 2, product.TxCount, "finalization counts this run's transactions")
}

func TestResume_NotFound(t *testing.T) {
	e := newEngine(repository.NewMemoryStore())

	_, err := e.Resume("does-not-exist", nil)
	assert.ErrorIs(t, err, domain.ErrPendingNotFound)
}

func TestDiscard_LeavesProductMemoryAlone(t *testing.T) {
	store := repository.NewMemoryStore()
	e := newEngine(store)

	outcome, err := e.Reconcile(bookingRows(), settlementRows(), "2025-03", false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Pending)

	require.NoError(t, e.Discard(outcome.Pending.ID))

	_, err = store.GetPending(outcome.Pending.ID)
	assert.ErrorIs(t, err, domain.ErrPendingNotFound)
	products, err := store.ListProducts()
	require.NoError(t, err)
	assert.Empty(t, products)

	assert.ErrorIs(t, e.Discard(outcome.Pending.ID), domain.ErrPendingNotFound)
}

func TestReconcile_KnownItemsDoNotSuspend(t *testing.T) {
	store := repository.NewMemoryStore()
	e := newEngine(store)

	require.NoError(t, e.SubmitDecisions([]domain.ReviewDecision{{
		Description: "Monthly Membership",
		Category:    "Abonnementen",
		TaxRate:     dec("0.09"),
		LedgerCode:  "8000",
	}}))

	outcome, err := e.Reconcile(bookingRows(), settlementRows(), "2025-03", false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Session)

	// Counters on the existing record track every finalized run.
	product, err := store.GetProduct("Monthly Membership")
	require.NoError(t, err)
	assert.Equal(t, 2, product.TxCount)

	outcome2, err := e.Reconcile(bookingRows(), settlementRows(), "2025-04", false)
	require.NoError(t, err)
	require.NotNil(t, outcome2.Session)
	product, err = store.GetProduct("Monthly Membership")
	require.NoError(t, err)
	assert.Equal(t, 4, product.TxCount)
}

func TestReconcile_DenyListedIdentityExcluded(t *testing.T) {
	store := repository.NewMemoryStore()
	e := newEngine(store)

	bookings := append(bookingRows(), domain.BookingRow{
		Channel: "Card", Description: "Monthly Membership", Amount: dec("10.00"), Email: "info@studio.example",
	})

	outcome, err := e.Reconcile(bookings, settlementRows(), "2025-03", true)
	require.NoError(t, err)

	comparisons, err := store.GetComparisons(outcome.Session.ID)
	require.NoError(t, err)
	require.Len(t, comparisons, 1)
	assert.Equal(t, "alice@x.com", comparisons[0].Identity)
}
