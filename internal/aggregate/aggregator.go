// Package aggregate folds the full row sets of both feeds into the per-run
// accumulators: per-identity totals on each side, per-category totals with an
// item-level breakdown, and per-payment-channel totals.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"studio-recon/internal/domain"
	"studio-recon/internal/normalize"
)

// Classifier resolves an item description to its category settings.
type Classifier interface {
	Classify(description string) domain.Classification
}

// BookingIdentity accumulates one customer's feed-A activity on
// reconcilable channels.
type BookingIdentity struct {
	Total   decimal.Decimal
	TxCount int
	Items   map[string]struct{}
	Dates   map[string]struct{}
}

// SettlementIdentity accumulates one customer's completed feed-B charges.
type SettlementIdentity struct {
	Gross   decimal.Decimal
	Fee     decimal.Decimal
	TxCount int
}

type categoryAccum struct {
	classification domain.Classification
	txCount        int
	amount         decimal.Decimal
	tax            decimal.Decimal
	items          map[string]*itemAccum
}

type itemAccum struct {
	amount  decimal.Decimal
	txCount int
	dates   map[string]struct{}
}

type channelAccum struct {
	txCount      int
	amount       decimal.Decimal
	reconcilable bool
}

// Result holds the three accumulators for one run plus the run-level totals.
type Result struct {
	ByIdentityA map[string]*BookingIdentity
	ByIdentityB map[string]*SettlementIdentity

	ReconcilableTotal    decimal.Decimal
	NonReconcilableTotal decimal.Decimal
	GrandTotal           decimal.Decimal

	categories map[string]*categoryAccum
	channels   map[string]*channelAccum
}

// Aggregator consumes parsed rows for a single run. Channels whose label
// contains one of the allowlist entries (case-insensitive) settle through
// feed B and participate in identity reconciliation.
type Aggregator struct {
	classifier           Classifier
	reconcilableChannels []string
}

func New(classifier Classifier, reconcilableChannels []string) *Aggregator {
	return &Aggregator{
		classifier:           classifier,
		reconcilableChannels: reconcilableChannels,
	}
}

// Reconcilable tests channel membership against the allowlist.
func (a *Aggregator) Reconcilable(channel string) bool {
	label := strings.ToLower(channel)
	for _, allowed := range a.reconcilableChannels {
		if strings.Contains(label, strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}

// Run folds both row sets into a fresh Result. Rows with an empty identity
// are excluded from identity aggregation but still count toward category and
// channel totals.
func (a *Aggregator) Run(bookings []domain.BookingRow, settlements []domain.SettlementRow) *Result {
	res := &Result{
		ByIdentityA:          make(map[string]*BookingIdentity),
		ByIdentityB:          make(map[string]*SettlementIdentity),
		ReconcilableTotal:    decimal.Zero,
		NonReconcilableTotal: decimal.Zero,
		GrandTotal:           decimal.Zero,
		categories:           make(map[string]*categoryAccum),
		channels:             make(map[string]*channelAccum),
	}

	for _, row := range bookings {
		a.addBooking(res, row)
	}
	for _, row := range settlements {
		a.addSettlement(res, row)
	}
	return res
}

func (a *Aggregator) addBooking(res *Result, row domain.BookingRow) {
	reconcilable := a.Reconcilable(row.Channel)
	date := row.Date.Format("2006-01-02")

	// Identity accumulation covers reconcilable channels only.
	identity := normalize.Identity(row.Email)
	if reconcilable {
		if identity != "" {
			acc, ok := res.ByIdentityA[identity]
			if !ok {
				acc = &BookingIdentity{
					Total: decimal.Zero,
					Items: make(map[string]struct{}),
					Dates: make(map[string]struct{}),
				}
				res.ByIdentityA[identity] = acc
			}
			acc.Total = acc.Total.Add(row.Amount)
			acc.TxCount++
			if desc := strings.TrimSpace(row.Description); desc != "" {
				acc.Items[desc] = struct{}{}
			}
			acc.Dates[date] = struct{}{}
		}
		res.ReconcilableTotal = res.ReconcilableTotal.Add(row.Amount)
	} else {
		res.NonReconcilableTotal = res.NonReconcilableTotal.Add(row.Amount)
	}
	res.GrandTotal = res.GrandTotal.Add(row.Amount)

	// Category accumulation covers every row regardless of channel, so the
	// category report reflects total revenue.
	cls := a.classifier.Classify(row.Description)
	cat, ok := res.categories[cls.Category]
	if !ok {
		cat = &categoryAccum{
			classification: cls,
			amount:         decimal.Zero,
			tax:            decimal.Zero,
			items:          make(map[string]*itemAccum),
		}
		res.categories[cls.Category] = cat
	}
	cat.txCount++
	cat.amount = cat.amount.Add(row.Amount)
	cat.tax = cat.tax.Add(row.Tax)

	desc := strings.TrimSpace(row.Description)
	if desc == "" {
		desc = "(onbekend)"
	}
	item, ok := cat.items[desc]
	if !ok {
		item = &itemAccum{amount: decimal.Zero, dates: make(map[string]struct{})}
		cat.items[desc] = item
	}
	item.amount = item.amount.Add(row.Amount)
	item.txCount++
	item.dates[date] = struct{}{}

	// Channel accumulation keys on the raw label as exported.
	ch, ok := res.channels[row.Channel]
	if !ok {
		ch = &channelAccum{amount: decimal.Zero, reconcilable: reconcilable}
		res.channels[row.Channel] = ch
	}
	ch.txCount++
	ch.amount = ch.amount.Add(row.Amount)
}

func (a *Aggregator) addSettlement(res *Result, row domain.SettlementRow) {
	if !row.Completed() {
		return
	}
	identity := normalize.Identity(row.Email)
	if identity == "" {
		return
	}

	acc, ok := res.ByIdentityB[identity]
	if !ok {
		acc = &SettlementIdentity{Gross: decimal.Zero, Fee: decimal.Zero}
		res.ByIdentityB[identity] = acc
	}
	acc.Gross = acc.Gross.Add(row.Gross)
	acc.Fee = acc.Fee.Add(row.Fee)
	acc.TxCount++
}

// CategorySummaries renders the per-category accumulator, ordered by
// descending amount (ties by name) so output is deterministic.
func (r *Result) CategorySummaries() []domain.CategorySummary {
	summaries := make([]domain.CategorySummary, 0, len(r.categories))
	for name, cat := range r.categories {
		summaries = append(summaries, domain.CategorySummary{
			Category:   name,
			TxCount:    cat.txCount,
			Amount:     cat.amount,
			Tax:        cat.tax,
			TaxRate:    cat.classification.TaxRate,
			LedgerCode: cat.classification.LedgerCode,
			Share:      share(cat.amount, r.GrandTotal),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].Amount.Equal(summaries[j].Amount) {
			return summaries[i].Amount.GreaterThan(summaries[j].Amount)
		}
		return summaries[i].Category < summaries[j].Category
	})
	return summaries
}

// CategoryItems renders the item breakdown of one category, largest first.
func (r *Result) CategoryItems(category string) []domain.CategoryItem {
	cat, ok := r.categories[category]
	if !ok {
		return nil
	}
	items := make([]domain.CategoryItem, 0, len(cat.items))
	for desc, item := range cat.items {
		items = append(items, domain.CategoryItem{
			Category:    category,
			Description: desc,
			Amount:      item.amount,
			TxCount:     item.txCount,
			Dates:       joinSet(item.dates),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Amount.Equal(items[j].Amount) {
			return items[i].Amount.GreaterThan(items[j].Amount)
		}
		return items[i].Description < items[j].Description
	})
	return items
}

// ChannelSummaries renders the per-channel accumulator, largest first.
func (r *Result) ChannelSummaries() []domain.ChannelSummary {
	summaries := make([]domain.ChannelSummary, 0, len(r.channels))
	for label, ch := range r.channels {
		summaries = append(summaries, domain.ChannelSummary{
			Channel:         label,
			TxCount:         ch.txCount,
			Amount:          ch.amount,
			Share:           share(ch.amount, r.GrandTotal),
			SettlesViaFeedB: ch.reconcilable,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].Amount.Equal(summaries[j].Amount) {
			return summaries[i].Amount.GreaterThan(summaries[j].Amount)
		}
		return summaries[i].Channel < summaries[j].Channel
	})
	return summaries
}

// Categories lists the category names present in the result, in summary order.
func (r *Result) Categories() []string {
	summaries := r.CategorySummaries()
	names := make([]string, len(summaries))
	for i, s := range summaries {
		names[i] = s.Category
	}
	return names
}

// joinSet renders a dedup set as a sorted, comma-separated string.
func joinSet(set map[string]struct{}) string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return strings.Join(values, ", ")
}

// JoinedItems and JoinedDates expose a booking identity's dedup sets in the
// stable form stored on comparison records.
func (b *BookingIdentity) JoinedItems() string { return joinSet(b.Items) }
func (b *BookingIdentity) JoinedDates() string { return joinSet(b.Dates) }

// share computes amount/total*100, yielding zero for an empty run instead of
// dividing by zero.
func share(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}
