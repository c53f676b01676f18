package repository

import (
	"sort"
	"sync"
	"time"

	"studio-recon/internal/domain"
)

// MemoryStore is an in-process implementation of Store, used by tests and
// the STORAGE=memory development mode. Pending records kept here do not
// survive restarts, which is why it is not a production configuration.
type MemoryStore struct {
	mu sync.RWMutex

	sessions          map[string]domain.Session
	comparisons       map[string][]domain.Comparison
	categorySummaries map[string][]domain.CategorySummary
	categoryItems     map[string]map[string][]domain.CategoryItem
	channelSummaries  map[string][]domain.ChannelSummary
	products          map[string]domain.Product
	ruleOverrides     []domain.CategoryRule
	pending           map[string]domain.PendingReconciliation

	nextProductID int64
	nextRecordID  int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:          make(map[string]domain.Session),
		comparisons:       make(map[string][]domain.Comparison),
		categorySummaries: make(map[string][]domain.CategorySummary),
		categoryItems:     make(map[string]map[string][]domain.CategoryItem),
		channelSummaries:  make(map[string][]domain.ChannelSummary),
		products:          make(map[string]domain.Product),
		pending:           make(map[string]domain.PendingReconciliation),
	}
}

func (s *MemoryStore) CreateSession(session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemoryStore) GetSession(id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemoryStore) ListSessions() ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		return sessions[i].ID > sessions[j].ID
	})
	return sessions, nil
}

func (s *MemoryStore) PutComparisons(sessionID string, records []domain.Comparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.Comparison, len(records))
	for i, r := range records {
		s.nextRecordID++
		r.ID = s.nextRecordID
		r.SessionID = sessionID
		stored[i] = r
	}
	s.comparisons[sessionID] = stored
	return nil
}

func (s *MemoryStore) GetComparisons(sessionID string) ([]domain.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Comparison(nil), s.comparisons[sessionID]...), nil
}

func (s *MemoryStore) PutCategorySummaries(sessionID string, records []domain.CategorySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.CategorySummary, len(records))
	for i, r := range records {
		s.nextRecordID++
		r.ID = s.nextRecordID
		r.SessionID = sessionID
		stored[i] = r
	}
	s.categorySummaries[sessionID] = stored
	return nil
}

func (s *MemoryStore) GetCategorySummaries(sessionID string) ([]domain.CategorySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CategorySummary(nil), s.categorySummaries[sessionID]...), nil
}

func (s *MemoryStore) PutCategoryItems(sessionID, category string, items []domain.CategoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryItems[sessionID] == nil {
		s.categoryItems[sessionID] = make(map[string][]domain.CategoryItem)
	}
	stored := make([]domain.CategoryItem, len(items))
	for i, r := range items {
		s.nextRecordID++
		r.ID = s.nextRecordID
		r.SessionID = sessionID
		r.Category = category
		stored[i] = r
	}
	s.categoryItems[sessionID][category] = stored
	return nil
}

func (s *MemoryStore) GetCategoryItems(sessionID, category string) ([]domain.CategoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CategoryItem(nil), s.categoryItems[sessionID][category]...), nil
}

func (s *MemoryStore) PutChannelSummaries(sessionID string, records []domain.ChannelSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.ChannelSummary, len(records))
	for i, r := range records {
		s.nextRecordID++
		r.ID = s.nextRecordID
		r.SessionID = sessionID
		stored[i] = r
	}
	s.channelSummaries[sessionID] = stored
	return nil
}

func (s *MemoryStore) GetChannelSummaries(sessionID string) ([]domain.ChannelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChannelSummary(nil), s.channelSummaries[sessionID]...), nil
}

func (s *MemoryStore) GetProduct(description string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[description]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

func (s *MemoryStore) ListProducts() ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].Description < products[j].Description
	})
	return products, nil
}

func (s *MemoryStore) UpsertProduct(product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.products[product.Description]; ok {
		product.ID = existing.ID
		product.CreatedAt = existing.CreatedAt
	} else {
		s.nextProductID++
		product.ID = s.nextProductID
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	s.products[product.Description] = *product
	return nil
}

func (s *MemoryStore) DeleteProduct(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for description, p := range s.products {
		if p.ID == id {
			delete(s.products, description)
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (s *MemoryStore) GetRuleOverrides() ([]domain.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ruleOverrides == nil {
		return nil, nil
	}
	return append([]domain.CategoryRule(nil), s.ruleOverrides...), nil
}

func (s *MemoryStore) SaveRuleOverrides(rules []domain.CategoryRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleOverrides = append([]domain.CategoryRule(nil), rules...)
	return nil
}

func (s *MemoryStore) ResetRuleOverrides() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleOverrides = nil
	return nil
}

func (s *MemoryStore) SavePending(pending *domain.PendingReconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now()
	}
	s.pending[pending.ID] = *pending
	return nil
}

func (s *MemoryStore) GetPending(id string) (*domain.PendingReconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending, ok := s.pending[id]
	if !ok {
		return nil, domain.ErrPendingNotFound
	}
	return &pending, nil
}

func (s *MemoryStore) DeletePending(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[id]; !ok {
		return domain.ErrPendingNotFound
	}
	delete(s.pending, id)
	return nil
}

func (s *MemoryStore) ListPending() ([]domain.PendingReconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pendings := make([]domain.PendingReconciliation, 0, len(s.pending))
	for _, p := range s.pending {
		pendings = append(pendings, p)
	}
	sort.Slice(pendings, func(i, j int) bool {
		if !pendings[i].CreatedAt.Equal(pendings[j].CreatedAt) {
			return pendings[i].CreatedAt.After(pendings[j].CreatedAt)
		}
		return pendings[i].ID > pendings[j].ID
	})
	return pendings, nil
}
