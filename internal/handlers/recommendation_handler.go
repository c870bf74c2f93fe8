package handlers

import (
	"log"
	"strconv"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RecommendationHandler handles HTTP requests for recommendations and
// behavior tracking.
type RecommendationHandler struct {
	service *services.RecommendationService
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(service *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
	}
}

// RegisterRoutes registers public recommendation routes.
func (h *RecommendationHandler) RegisterRoutes(router fiber.Router) {
	recRoutes := router.Group("/recommendations")
	recRoutes.Get("/related/:productId", h.HandleRelatedProducts)
	recRoutes.Get("/trending", h.HandleTrendingProducts)
}

// RegisterUserRoutes registers personalized routes, to be mounted behind auth
// middleware.
func (h *RecommendationHandler) RegisterUserRoutes(router fiber.Router) {
	recRoutes := router.Group("/recommendations")
	recRoutes.Get("/personalized", h.HandlePersonalized)
	recRoutes.Post("/track-search", h.HandleTrackSearch)
	recRoutes.Post("/track-view", h.HandleTrackView)
}

func queryLimit(c *fiber.Ctx, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(fallback)))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

// HandlePersonalized returns recommendations tailored to the authenticated
// user's behavior.
func (h *RecommendationHandler) HandlePersonalized(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	context := c.Query("context", "general")
	limit := queryLimit(c, 6)

	recommendations, err := h.service.PersonalizedRecommendations(userID, context, limit)
	if err != nil {
		log.Printf("Error generating recommendations for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error generating recommendations",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"recommendations": recommendations,
		"context":         context,
	})
}

// HandleRelatedProducts returns products similar to the given one.
func (h *RecommendationHandler) HandleRelatedProducts(c *fiber.Ctx) error {
	productID := c.Params("productId")
	limit := queryLimit(c, 4)

	related, err := h.service.RelatedProducts(productID, limit)
	if err != nil {
		log.Printf("Error getting related products for %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error getting related products",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"related_products": related,
		"product_id":       productID,
		"count":            len(related),
	})
}

// HandleTrendingProducts returns the newest in-stock products.
func (h *RecommendationHandler) HandleTrendingProducts(c *fiber.Ctx) error {
	limit := queryLimit(c, 6)

	trending, err := h.service.TrendingProducts(limit)
	if err != nil {
		log.Printf("Error getting trending products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error getting trending products",
		})
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"trending_products": trending,
		"count":             len(trending),
	})
}

// HandleTrackSearch records a search in the user's behavior history.
func (h *RecommendationHandler) HandleTrackSearch(c *fiber.Ctx) error {
	var req struct {
		Query     string   `json:"query"`
		ResultIDs []string `json:"result_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.TrackSearch(middleware.UserID(c), req.Query, req.ResultIDs); err != nil {
		log.Printf("Error tracking search: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error tracking search",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Search tracked successfully",
	})
}

// HandleTrackView records a product view in the user's behavior history.
func (h *RecommendationHandler) HandleTrackView(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id"`
		Category  string `json:"category"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.TrackView(middleware.UserID(c), req.ProductID, req.Category); err != nil {
		log.Printf("Error tracking product view: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error tracking product view",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product view tracked successfully",
	})
}
