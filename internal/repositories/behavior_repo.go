package repositories

import "farmmarket/internal/models"

// History caps, matching what the recommendation engine actually consumes.
// Older records beyond the cap are dropped on insert.
const (
	SearchHistoryCap   = 20
	ViewHistoryCap     = 50
	PurchaseHistoryCap = 30
)

// BehaviorRepository stores per-user shopping behavior used by the
// recommendation service.
type BehaviorRepository interface {
	AddSearch(record *models.SearchRecord) error
	AddView(record *models.ViewRecord) error
	AddPurchase(record *models.PurchaseRecord) error
	RecentSearches(userID string, limit int) ([]models.SearchRecord, error)
	RecentViews(userID string, limit int) ([]models.ViewRecord, error)
	RecentPurchases(userID string, limit int) ([]models.PurchaseRecord, error)
}
