package repositories

import (
	"fmt"

	"farmmarket/internal/models"

	"gorm.io/gorm"
)

// GORMBehaviorRepository is a GORM implementation of BehaviorRepository.
type GORMBehaviorRepository struct {
	db *gorm.DB
}

// NewGORMBehaviorRepository creates a new instance of GORMBehaviorRepository.
func NewGORMBehaviorRepository(db *gorm.DB) *GORMBehaviorRepository {
	return &GORMBehaviorRepository{
		db: db,
	}
}

// AddSearch records a search and trims history beyond the cap.
func (r *GORMBehaviorRepository) AddSearch(record *models.SearchRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return r.trim(&models.SearchRecord{}, record.UserID, SearchHistoryCap)
}

// AddView records a product view and trims history beyond the cap.
func (r *GORMBehaviorRepository) AddView(record *models.ViewRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return r.trim(&models.ViewRecord{}, record.UserID, ViewHistoryCap)
}

// AddPurchase records a purchased line and trims history beyond the cap.
func (r *GORMBehaviorRepository) AddPurchase(record *models.PurchaseRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	return r.trim(&models.PurchaseRecord{}, record.UserID, PurchaseHistoryCap)
}

// trim deletes the user's records beyond the newest cap rows.
func (r *GORMBehaviorRepository) trim(model interface{}, userID string, cap int) error {
	keep := r.db.Model(model).
		Select("id").
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(cap)
	err := r.db.Where("user_id = ? AND id NOT IN (?)", userID, keep).Delete(model).Error
	if err != nil {
		return fmt.Errorf("failed to trim behavior history: %w", err)
	}
	return nil
}

// RecentSearches returns the user's newest searches, most recent first.
func (r *GORMBehaviorRepository) RecentSearches(userID string, limit int) ([]models.SearchRecord, error) {
	var records []models.SearchRecord
	if err := r.recent(&records, userID, limit); err != nil {
		return nil, err
	}
	return records, nil
}

// RecentViews returns the user's newest product views, most recent first.
func (r *GORMBehaviorRepository) RecentViews(userID string, limit int) ([]models.ViewRecord, error) {
	var records []models.ViewRecord
	if err := r.recent(&records, userID, limit); err != nil {
		return nil, err
	}
	return records, nil
}

// RecentPurchases returns the user's newest purchases, most recent first.
func (r *GORMBehaviorRepository) RecentPurchases(userID string, limit int) ([]models.PurchaseRecord, error) {
	var records []models.PurchaseRecord
	if err := r.recent(&records, userID, limit); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *GORMBehaviorRepository) recent(dest interface{}, userID string, limit int) error {
	query := r.db.Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(dest).Error; err != nil {
		return fmt.Errorf("failed to load behavior history for user %s: %w", userID, err)
	}
	return nil
}
