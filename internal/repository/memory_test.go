package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-recon/internal/domain"
)

func TestMemoryStore_SessionsNewestFirst(t *testing.T) {
	store := NewMemoryStore()

	older := &domain.Session{ID: "a", Period: "2025-02", Status: domain.SessionCompleted, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &domain.Session{ID: "b", Period: "2025-03", Status: domain.SessionCompleted, CreatedAt: time.Now()}
	require.NoError(t, store.CreateSession(older))
	require.NoError(t, store.CreateSession(newer))

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].ID)
	assert.Equal(t, "a", sessions[1].ID)

	_, err = store.GetSession("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore_ProductUpsertKeysOnDescription(t *testing.T) {
	store := NewMemoryStore()

	first := &domain.Product{
		Description: "Monthly Membership",
		Category:    "Abonnementen",
		TaxRate:     decimal.RequireFromString("0.09"),
		Approved:    true,
		TxCount:     3,
	}
	require.NoError(t, store.UpsertProduct(first))
	assert.NotZero(t, first.ID)

	second := &domain.Product{
		Description: "Monthly Membership",
		Category:    "Overig",
		Approved:    true,
		TxCount:     5,
	}
	require.NoError(t, store.UpsertProduct(second))
	assert.Equal(t, first.ID, second.ID, "same description updates in place")

	got, err := store.GetProduct("Monthly Membership")
	require.NoError(t, err)
	assert.Equal(t, "Overig", got.Category)
	assert.Equal(t, 5, got.TxCount)

	products, err := store.ListProducts()
	require.NoError(t, err)
	assert.Len(t, products, 1)

	require.NoError(t, store.DeleteProduct(got.ID))
	_, err = store.GetProduct("Monthly Membership")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, store.DeleteProduct(got.ID), domain.ErrProductNotFound)
}

func TestMemoryStore_RuleOverridesNilUntilSaved(t *testing.T) {
	store := NewMemoryStore()

	rules, err := store.GetRuleOverrides()
	require.NoError(t, err)
	assert.Nil(t, rules)

	saved := []domain.CategoryRule{{ID: "x", Name: "X", Keywords: []string{"x"}, Priority: 1}}
	require.NoError(t, store.SaveRuleOverrides(saved))

	rules, err = store.GetRuleOverrides()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "X", rules[0].Name)

	require.NoError(t, store.ResetRuleOverrides())
	rules, err = store.GetRuleOverrides()
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestMemoryStore_PendingLifecycle(t *testing.T) {
	store := NewMemoryStore()

	pending := &domain.PendingReconciliation{
		ID:           "p1",
		Period:       "2025-03",
		BookingRows:  []domain.BookingRow{{Description: "Workshop", Amount: decimal.NewFromInt(30)}},
		NewItemCount: 1,
		Status:       domain.PendingAwaitingReview,
	}
	require.NoError(t, store.SavePending(pending))

	got, err := store.GetPending("p1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.NewItemCount)
	require.Len(t, got.BookingRows, 1)

	require.NoError(t, store.DeletePending("p1"))
	assert.ErrorIs(t, store.DeletePending("p1"), domain.ErrPendingNotFound)

	_, err = store.GetPending("p1")
	assert.ErrorIs(t, err, domain.ErrPendingNotFound)
}
