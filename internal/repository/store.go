// Package repository defines the storage contract the engine consumes and
// provides its Postgres and in-memory implementations.
package repository

import (
	"studio-recon/internal/domain"
)

// SessionStore persists finalized sessions and their derived record sets.
// Derived records are written in one batch at finalization and read-only
// afterwards; reads return them in the order they were written.
type SessionStore interface {
	CreateSession(session *domain.Session) error
	GetSession(id string) (*domain.Session, error)
	ListSessions() ([]domain.Session, error)

	PutComparisons(sessionID string, records []domain.Comparison) error
	GetComparisons(sessionID string) ([]domain.Comparison, error)

	PutCategorySummaries(sessionID string, records []domain.CategorySummary) error
	GetCategorySummaries(sessionID string) ([]domain.CategorySummary, error)

	PutCategoryItems(sessionID, category string, items []domain.CategoryItem) error
	GetCategoryItems(sessionID, category string) ([]domain.CategoryItem, error)

	PutChannelSummaries(sessionID string, records []domain.ChannelSummary) error
	GetChannelSummaries(sessionID string) ([]domain.ChannelSummary, error)
}

// ProductStore persists the product memory. Upserts key on description with
// last-writer-wins semantics for concurrent review submissions.
type ProductStore interface {
	GetProduct(description string) (*domain.Product, error)
	ListProducts() ([]domain.Product, error)
	UpsertProduct(product *domain.Product) error
	DeleteProduct(id int64) error
}

// RuleStore persists the operator's category-rule overrides. GetRuleOverrides
// returns nil when no override set has been saved, in which case the built-in
// defaults apply.
type RuleStore interface {
	GetRuleOverrides() ([]domain.CategoryRule, error)
	SaveRuleOverrides(rules []domain.CategoryRule) error
	ResetRuleOverrides() error
}

// PendingStore persists suspended runs. Records must survive process
// restarts; losing pending state is an operational failure, not a cache miss.
type PendingStore interface {
	SavePending(pending *domain.PendingReconciliation) error
	GetPending(id string) (*domain.PendingReconciliation, error)
	DeletePending(id string) error
	ListPending() ([]domain.PendingReconciliation, error)
}

// Store is the full contract the engine runs against.
type Store interface {
	SessionStore
	ProductStore
	RuleStore
	PendingStore
}
