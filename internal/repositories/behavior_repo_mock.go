package repositories

import (
	"sync"
	"time"

	"farmmarket/internal/models"
)

// MockBehaviorRepository is an in-memory implementation of BehaviorRepository.
type MockBehaviorRepository struct {
	searches  map[string][]models.SearchRecord
	views     map[string][]models.ViewRecord
	purchases map[string][]models.PurchaseRecord
	mu        sync.RWMutex
}

// NewMockBehaviorRepository creates a new instance of MockBehaviorRepository.
func NewMockBehaviorRepository() *MockBehaviorRepository {
	return &MockBehaviorRepository{
		searches:  make(map[string][]models.SearchRecord),
		views:     make(map[string][]models.ViewRecord),
		purchases: make(map[string][]models.PurchaseRecord),
	}
}

// AddSearch records a search, keeping only the newest entries.
func (r *MockBehaviorRepository) AddSearch(record *models.SearchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.CreatedAt = time.Now()
	history := append(r.searches[record.UserID], *record)
	if len(history) > SearchHistoryCap {
		history = history[len(history)-SearchHistoryCap:]
	}
	r.searches[record.UserID] = history
	return nil
}

// AddView records a product view, keeping only the newest entries.
func (r *MockBehaviorRepository) AddView(record *models.ViewRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.CreatedAt = time.Now()
	history := append(r.views[record.UserID], *record)
	if len(history) > ViewHistoryCap {
		history = history[len(history)-ViewHistoryCap:]
	}
	r.views[record.UserID] = history
	return nil
}

// AddPurchase records a purchased line, keeping only the newest entries.
func (r *MockBehaviorRepository) AddPurchase(record *models.PurchaseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.CreatedAt = time.Now()
	history := append(r.purchases[record.UserID], *record)
	if len(history) > PurchaseHistoryCap {
		history = history[len(history)-PurchaseHistoryCap:]
	}
	r.purchases[record.UserID] = history
	return nil
}

// RecentSearches returns the user's newest searches, most recent first.
func (r *MockBehaviorRepository) RecentSearches(userID string, limit int) ([]models.SearchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.searches[userID]
	records := make([]models.SearchRecord, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		records = append(records, history[i])
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// RecentViews returns the user's newest product views, most recent first.
func (r *MockBehaviorRepository) RecentViews(userID string, limit int) ([]models.ViewRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.views[userID]
	records := make([]models.ViewRecord, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		records = append(records, history[i])
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// RecentPurchases returns the user's newest purchases, most recent first.
func (r *MockBehaviorRepository) RecentPurchases(userID string, limit int) ([]models.PurchaseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.purchases[userID]
	records := make([]models.PurchaseRecord, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		records = append(records, history[i])
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}
