package services

import (
	"fmt"
	"log"
	"strings"

	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// advisorCandidates caps how much of the catalog is offered to the advisor.
const advisorCandidates = 50

// AdvisorRequest summarizes a user's recent behavior and the catalog slice an
// advisor may recommend from.
type AdvisorRequest struct {
	Context           string
	RecentSearches    []string
	ViewedCategories  []string
	PurchasedProducts []string
	Available         []string // product names the advisor must pick from
	Limit             int
}

// Advisor produces product-name recommendations from behavior summaries. The
// production implementation calls an external AI service; a nil advisor makes
// the recommendation service fall back to category heuristics.
type Advisor interface {
	RecommendProducts(req AdvisorRequest) ([]string, error)
}

// RecommendationService tracks shopping behavior and produces product
// recommendations.
type RecommendationService struct {
	behaviorRepo repositories.BehaviorRepository
	productRepo  repositories.ProductRepository
	advisor      Advisor
}

// NewRecommendationService creates a new RecommendationService. advisor may
// be nil.
func NewRecommendationService(behaviorRepo repositories.BehaviorRepository, productRepo repositories.ProductRepository, advisor Advisor) *RecommendationService {
	return &RecommendationService{
		behaviorRepo: behaviorRepo,
		productRepo:  productRepo,
		advisor:      advisor,
	}
}

// TrackSearch records a catalog search in the user's history.
func (s *RecommendationService) TrackSearch(userID, query string, resultIDs []string) error {
	if len(resultIDs) > 5 {
		resultIDs = resultIDs[:5]
	}
	record := &models.SearchRecord{
		UserID:      userID,
		Query:       strings.ToLower(strings.TrimSpace(query)),
		ResultCount: len(resultIDs),
		ResultIDs:   strings.Join(resultIDs, ","),
	}
	if err := s.behaviorRepo.AddSearch(record); err != nil {
		return fmt.Errorf("failed to track search: %w", err)
	}
	return nil
}

// TrackView records a product-detail view in the user's history.
func (s *RecommendationService) TrackView(userID, productID, category string) error {
	record := &models.ViewRecord{
		UserID:    userID,
		ProductID: productID,
		Category:  category,
	}
	if err := s.behaviorRepo.AddView(record); err != nil {
		return fmt.Errorf("failed to track view: %w", err)
	}
	return nil
}

// RecordPurchase adds each ordered line to the customer's purchase history.
// Categories come from the live catalog; a product deleted since the order
// still records with an empty category.
func (s *RecommendationService) RecordPurchase(customerID string, items []models.OrderItem) error {
	for _, item := range items {
		category := ""
		if product, err := s.productRepo.GetByID(item.ProductID); err == nil {
			category = product.Category
		}
		record := &models.PurchaseRecord{
			UserID:      customerID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Category:    category,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
		if err := s.behaviorRepo.AddPurchase(record); err != nil {
			return fmt.Errorf("failed to track purchase of %s: %w", item.ProductID, err)
		}
	}
	return nil
}

// PersonalizedRecommendations suggests in-stock products for a user based on
// their recent behavior. The advisor proposes product names which are matched
// back to the live catalog; when the advisor is absent or fails, category
// heuristics take over.
func (s *RecommendationService) PersonalizedRecommendations(userID, context string, limit int) ([]models.Product, error) {
	searches, err := s.behaviorRepo.RecentSearches(userID, 10)
	if err != nil {
		return nil, err
	}
	views, err := s.behaviorRepo.RecentViews(userID, 10)
	if err != nil {
		return nil, err
	}
	purchases, err := s.behaviorRepo.RecentPurchases(userID, 10)
	if err != nil {
		return nil, err
	}

	available, err := s.productRepo.List(repositories.ProductFilter{InStock: true, Limit: advisorCandidates})
	if err != nil {
		return nil, err
	}

	if s.advisor != nil {
		req := AdvisorRequest{
			Context: context,
			Limit:   limit,
		}
		for _, rec := range searches {
			req.RecentSearches = append(req.RecentSearches, rec.Query)
		}
		for _, rec := range views {
			req.ViewedCategories = append(req.ViewedCategories, rec.Category)
		}
		for _, rec := range purchases {
			req.PurchasedProducts = append(req.PurchasedProducts, rec.ProductName)
		}
		for _, p := range available {
			req.Available = append(req.Available, p.Name)
		}

		names, err := s.advisor.RecommendProducts(req)
		if err != nil {
			log.Printf("advisor failed for user %s, falling back to category heuristics: %v", userID, err)
		} else if recommendations := matchByName(names, available, limit); len(recommendations) > 0 {
			return recommendations, nil
		}
	}

	return s.fallbackRecommendations(views, purchases, available, limit), nil
}

// matchByName maps advisor-suggested names back to catalog products. A loose
// containment match in either direction tolerates small naming drift.
func matchByName(names []string, available []models.Product, limit int) []models.Product {
	var matched []models.Product
	seen := make(map[string]bool)
	for _, name := range names {
		needle := strings.ToLower(name)
		for _, p := range available {
			hay := strings.ToLower(p.Name)
			if !strings.Contains(hay, needle) && !strings.Contains(needle, hay) {
				continue
			}
			if seen[p.ID] {
				break
			}
			seen[p.ID] = true
			matched = append(matched, p)
			break
		}
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched
}

// fallbackRecommendations picks a couple of products from each category the
// user has shown interest in, defaulting to staples for new users.
func (s *RecommendationService) fallbackRecommendations(views []models.ViewRecord, purchases []models.PurchaseRecord, available []models.Product, limit int) []models.Product {
	categories := make(map[string]bool)
	var ordered []string
	note := func(category string) {
		if category != "" && !categories[category] {
			categories[category] = true
			ordered = append(ordered, category)
		}
	}
	for _, rec := range views {
		note(rec.Category)
	}
	for _, rec := range purchases {
		note(rec.Category)
	}
	if len(ordered) == 0 {
		ordered = []string{"vegetables", "fruits"}
	}

	var recommendations []models.Product
	for _, category := range ordered {
		count := 0
		for _, p := range available {
			if p.Category != category {
				continue
			}
			recommendations = append(recommendations, p)
			count++
			if count >= 2 {
				break
			}
		}
	}
	if limit > 0 && len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	return recommendations
}

// RelatedProducts returns in-stock products similar to the given one: same
// category, same farmer, or matching organic status.
func (s *RecommendationService) RelatedProducts(productID string, limit int) ([]models.Product, error) {
	current, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.productRepo.List(repositories.ProductFilter{InStock: true})
	if err != nil {
		return nil, err
	}

	var related []models.Product
	for _, p := range candidates {
		if p.ID == productID {
			continue
		}
		if p.Category != current.Category && p.FarmerID != current.FarmerID && p.IsOrganic != current.IsOrganic {
			continue
		}
		related = append(related, p)
		if limit > 0 && len(related) >= limit {
			break
		}
	}
	return related, nil
}

// TrendingProducts returns the newest in-stock products.
func (s *RecommendationService) TrendingProducts(limit int) ([]models.Product, error) {
	return s.productRepo.List(repositories.ProductFilter{InStock: true, Limit: limit})
}
