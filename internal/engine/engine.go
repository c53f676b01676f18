// Package engine owns the lifecycle of a reconciliation run: classification,
// aggregation, matching, the suspend/resume review workflow, and persistence
// of the finalized session with its derived record sets.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"studio-recon/internal/aggregate"
	"studio-recon/internal/classifier"
	"studio-recon/internal/domain"
	"studio-recon/internal/matcher"
	"studio-recon/internal/repository"
	"studio-recon/pkg/logger"
)

// Outcome is the result of a reconcile call: either a suspended run awaiting
// operator review or a finalized session. Exactly one field is set.
type Outcome struct {
	Pending *domain.PendingReconciliation `json:"pending,omitempty"`
	Session *domain.Session               `json:"session,omitempty"`
}

// Engine runs reconciliations against a storage contract. Multiple runs may
// execute concurrently; they share only the product memory, where last
// writer wins per description.
type Engine struct {
	store                repository.Store
	matcher              *matcher.Matcher
	reconcilableChannels []string
}

func New(store repository.Store, reconcilableChannels, denyList []string) *Engine {
	return &Engine{
		store:                store,
		matcher:              matcher.New(denyList),
		reconcilableChannels: reconcilableChannels,
	}
}

// Reconcile processes one run. Empty feeds are rejected before aggregation.
// When feed A contains item descriptions unknown to product memory and the
// caller did not skip review, the run is suspended into a durable pending
// record and no session is created.
func (e *Engine) Reconcile(bookings []domain.BookingRow, settlements []domain.SettlementRow, period string, skipReview bool) (*Outcome, error) {
	if len(bookings) == 0 {
		return nil, fmt.Errorf("booking feed: %w", domain.ErrEmptyFeed)
	}
	if len(settlements) == 0 {
		return nil, fmt.Errorf("settlement feed: %w", domain.ErrEmptyFeed)
	}

	cls, err := e.newClassifier()
	if err != nil {
		return nil, err
	}

	if !skipReview {
		candidates := e.findNewItems(bookings, cls)
		if len(candidates) > 0 {
			pending, err := e.suspend(bookings, settlements, period, candidates)
			if err != nil {
				return nil, err
			}
			return &Outcome{Pending: pending}, nil
		}
	}

	session, err := e.finalize(bookings, settlements, period, cls)
	if err != nil {
		return nil, err
	}
	return &Outcome{Session: session}, nil
}

// SubmitDecisions upserts operator classifications into product memory,
// marked approved. An item reviewed before keeps its counters and first-seen
// date; only the classification settings change.
func (e *Engine) SubmitDecisions(decisions []domain.ReviewDecision) error {
	now := time.Now()
	for _, d := range decisions {
		product := domain.Product{
			Description:     d.Description,
			Category:        d.Category,
			TaxRate:         d.TaxRate,
			LedgerCode:      d.LedgerCode,
			Handling:        d.Handling,
			HandlingPeriods: d.HandlingPeriods,
			HandlingStart:   d.HandlingStart,
			HandlingEnd:     d.HandlingEnd,
			Approved:        true,
			FirstSeen:       now,
			LastSeen:        now,
		}

		existing, err := e.store.GetProduct(d.Description)
		switch {
		case err == nil:
			product.FirstSeen = existing.FirstSeen
			product.TxCount = existing.TxCount
		case errors.Is(err, domain.ErrProductNotFound):
			// first approval creates the record
		default:
			return err
		}

		if err := e.store.UpsertProduct(&product); err != nil {
			return err
		}
	}
	return nil
}

// Resume finalizes a suspended run. Decisions are persisted first so the
// re-run resolves the previously-new items through product memory; the
// pending record is removed once the session is durably created.
func (e *Engine) Resume(pendingID string, decisions []domain.ReviewDecision) (*domain.Session, error) {
	pending, err := e.store.GetPending(pendingID)
	if err != nil {
		return nil, err
	}

	if err := e.SubmitDecisions(decisions); err != nil {
		return nil, err
	}

	cls, err := e.newClassifier()
	if err != nil {
		return nil, err
	}

	session, err := e.finalize(pending.BookingRows, pending.SettlementRows, pending.Period, cls)
	if err != nil {
		return nil, err
	}

	if err := e.store.DeletePending(pendingID); err != nil && !errors.Is(err, domain.ErrPendingNotFound) {
		logger.GetLogger().WithError(err).WithField("pending_id", pendingID).Error("Failed to delete pending after resume")
		return nil, err
	}

	return session, nil
}

// Discard deletes a pending record without touching product memory.
func (e *Engine) Discard(pendingID string) error {
	return e.store.DeletePending(pendingID)
}

func (e *Engine) GetPending(id string) (*domain.PendingReconciliation, error) {
	return e.store.GetPending(id)
}

func (e *Engine) ListPending() ([]domain.PendingReconciliation, error) {
	return e.store.ListPending()
}

// newClassifier snapshots product memory and the active ruleset, so one run
// observes consistent state even while reviews land concurrently.
func (e *Engine) newClassifier() (*classifier.Classifier, error) {
	products, err := e.store.ListProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to load product memory: %w", err)
	}
	lookup := make(classifier.ProductMap, len(products))
	for _, p := range products {
		lookup[p.Description] = p
	}

	rules, err := e.store.GetRuleOverrides()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule overrides: %w", err)
	}

	return classifier.New(lookup, rules), nil
}

// findNewItems collects the distinct feed-A descriptions without a product
// record, pre-classified via the keyword ruleset as suggestions.
func (e *Engine) findNewItems(bookings []domain.BookingRow, cls *classifier.Classifier) []domain.NewItemCandidate {
	type accum struct {
		txCount int
		amount  decimal.Decimal
	}
	unknown := make(map[string]*accum)

	for _, row := range bookings {
		desc := row.Description
		if desc == "" {
			continue
		}
		if a, ok := unknown[desc]; ok {
			a.txCount++
			a.amount = a.amount.Add(row.Amount)
			continue
		}
		if _, err := e.store.GetProduct(desc); err == nil {
			continue
		}
		unknown[desc] = &accum{txCount: 1, amount: row.Amount}
	}

	candidates := make([]domain.NewItemCandidate, 0, len(unknown))
	for desc, a := range unknown {
		candidates = append(candidates, domain.NewItemCandidate{
			Description: desc,
			Suggestion:  cls.Suggest(desc),
			TxCount:     a.txCount,
			Amount:      a.amount,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Description < candidates[j].Description
	})
	return candidates
}

func (e *Engine) suspend(bookings []domain.BookingRow, settlements []domain.SettlementRow, period string, candidates []domain.NewItemCandidate) (*domain.PendingReconciliation, error) {
	pending := &domain.PendingReconciliation{
		ID:             uuid.New().String(),
		Period:         period,
		BookingRows:    bookings,
		SettlementRows: settlements,
		Candidates:     candidates,
		NewItemCount:   len(candidates),
		Status:         domain.PendingAwaitingReview,
	}

	if err := e.store.SavePending(pending); err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"pending_id": pending.ID,
		"period":     period,
		"new_items":  pending.NewItemCount,
	}).Info("Run suspended for review")

	return pending, nil
}

// finalize runs aggregation and matching, persists the session with its
// derived record batches, and bumps product-memory counters for every known
// item seen in this run.
func (e *Engine) finalize(bookings []domain.BookingRow, settlements []domain.SettlementRow, period string, cls *classifier.Classifier) (*domain.Session, error) {
	agg := aggregate.New(cls, e.reconcilableChannels)
	result := agg.Run(bookings, settlements)
	comparisons := e.matcher.Compare(result.ByIdentityA, result.ByIdentityB)

	session := e.buildSession(period, result, comparisons)
	if err := e.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	for i := range comparisons {
		comparisons[i].SessionID = session.ID
	}
	if err := e.store.PutComparisons(session.ID, comparisons); err != nil {
		return nil, fmt.Errorf("failed to store comparisons: %w", err)
	}
	if err := e.store.PutCategorySummaries(session.ID, result.CategorySummaries()); err != nil {
		return nil, fmt.Errorf("failed to store category summaries: %w", err)
	}
	for _, category := range result.Categories() {
		if err := e.store.PutCategoryItems(session.ID, category, result.CategoryItems(category)); err != nil {
			return nil, fmt.Errorf("failed to store category items: %w", err)
		}
	}
	if err := e.store.PutChannelSummaries(session.ID, result.ChannelSummaries()); err != nil {
		return nil, fmt.Errorf("failed to store channel summaries: %w", err)
	}

	e.touchProducts(result)

	logger.GetLogger().WithFields(map[string]interface{}{
		"session_id": session.ID,
		"period":     period,
		"matched":    session.MatchedCount,
		"unmatched":  session.UnmatchedCount,
	}).Info("Reconciliation session created")

	return session, nil
}

func (e *Engine) buildSession(period string, result *aggregate.Result, comparisons []domain.Comparison) *domain.Session {
	gross, fee := decimal.Zero, decimal.Zero
	for _, acc := range result.ByIdentityB {
		gross = gross.Add(acc.Gross)
		fee = fee.Add(acc.Fee)
	}

	matched, unmatched := 0, 0
	for _, cmp := range comparisons {
		if cmp.Status == domain.StatusMatch {
			matched++
		} else {
			unmatched++
		}
	}

	return &domain.Session{
		ID:                   uuid.New().String(),
		Period:               period,
		FeedATotal:           result.ReconcilableTotal,
		FeedBGross:           gross,
		FeedBFee:             fee,
		FeedBNet:             gross.Sub(fee),
		NonReconcilableTotal: result.NonReconcilableTotal,
		MatchedCount:         matched,
		UnmatchedCount:       unmatched,
		Status:               domain.SessionCompleted,
	}
}

// touchProducts bumps the counters of every known item seen in a finalized
// run. Unknown items are never created here; creation is the operator's.
func (e *Engine) touchProducts(result *aggregate.Result) {
	now := time.Now()
	for _, category := range result.Categories() {
		for _, item := range result.CategoryItems(category) {
			product, err := e.store.GetProduct(item.Description)
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			if err != nil {
				logger.GetLogger().WithError(err).WithField("description", item.Description).Warn("Failed to load product for counter update")
				continue
			}

			product.TxCount += item.TxCount
			product.LastSeen = now
			if err := e.store.UpsertProduct(product); err != nil {
				logger.GetLogger().WithError(err).WithField("description", item.Description).Warn("Failed to update product counters")
			}
		}
	}
}
