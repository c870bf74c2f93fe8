package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"farmmarket/internal/handlers"
	"farmmarket/internal/middleware"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// newTestApp wires the full HTTP stack against an in-memory SQLite database,
// mirroring the production wiring minus the broker.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.SearchRecord{},
		&models.ViewRecord{},
		&models.PurchaseRecord{},
	))

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	behaviorRepo := repositories.NewGORMBehaviorRepository(db)

	productService := services.NewProductService(productRepo)
	authService := services.NewAuthService(userRepo, "integration-test-secret")
	orderService := services.NewOrderService(orderRepo, productRepo, nil, decimal.NewFromInt(50))
	recommendationService := services.NewRecommendationService(behaviorRepo, productRepo, nil)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	productHandler := handlers.NewProductHandler(productService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	recommendationHandler.RegisterRoutes(apiV1)

	authed := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewOrderHandler(orderService).RegisterRoutes(authed)
	recommendationHandler.RegisterUserRoutes(authed)

	farmerRoutes := authed.Group("", middleware.RoleRequired(models.RoleFarmer))
	productHandler.RegisterFarmerRoutes(farmerRoutes)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	var decoded interface{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	if len(raw) > 0 {
		assert.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	decodedMap, _ := decoded.(map[string]interface{})
	return resp.StatusCode, decodedMap
}

// doJSONList is doJSON for endpoints that respond with a bare JSON array.
func doJSONList(t *testing.T, app *fiber.App, method, path, token string) (int, []interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	var decoded []interface{}
	if resp.StatusCode == http.StatusOK {
		assert.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func registerAndLogin(t *testing.T, app *fiber.App, name, email, role string) string {
	t.Helper()

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "secret-pass",
		"role":     role,
	})
	assert.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    email,
		"password": "secret-pass",
	})
	assert.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func createProduct(t *testing.T, app *fiber.App, farmerToken, name string, price float64, quantity int) string {
	t.Helper()

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/products/", farmerToken, fiber.Map{
		"name":        name,
		"description": "Fresh from the farm",
		"price":       price,
		"quantity":    quantity,
		"unit":        "kg",
		"category":    "vegetables",
	})
	assert.Equal(t, http.StatusCreated, status, "create product response: %v", body)
	data, _ := body["data"].(map[string]interface{})
	id, _ := data["id"].(string)
	assert.NotEmpty(t, id)
	return id
}

func TestOrderPlacementFlow(t *testing.T) {
	app := newTestApp(t)

	farmerToken := registerAndLogin(t, app, "Ravi", "ravi@farm.test", "farmer")
	customerToken := registerAndLogin(t, app, "Asha", "asha@shop.test", "customer")

	productID := createProduct(t, app, farmerToken, "Tomatoes", 20, 10)

	// The customer references the product by a lowercase name; resolution and
	// pricing happen on the server.
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", customerToken, fiber.Map{
		"items": []fiber.Map{
			{"product_name": "tomatoes", "quantity": 5},
		},
		"delivery_address": fiber.Map{
			"street": "12 Lake Road", "city": "Pune", "state": "MH",
			"pincode": "411001", "phone": "9999999999",
		},
	})
	assert.Equal(t, http.StatusCreated, status, "place order response: %v", body)

	order, _ := body["order"].(map[string]interface{})
	assert.Equal(t, "100", order["total_amount"])
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "pending", order["payment_status"])
	assert.Equal(t, "cod", order["payment_method"], "payment method defaults to cod")
	orderNumber, _ := order["order_number"].(string)
	assert.Regexp(t, `^ORD\d+$`, orderNumber)
	items, _ := order["items"].([]interface{})
	assert.Len(t, items, 1)
	line, _ := items[0].(map[string]interface{})
	assert.Equal(t, productID, line["product_id"])
	assert.Equal(t, "20", line["price"], "price comes from the catalog, not the client")

	// Stock dropped by the ordered quantity.
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	data, _ := body["data"].(map[string]interface{})
	assert.Equal(t, float64(5), data["quantity"])

	// The customer sees the order; the farmer sees it too.
	status, myOrders := doJSONList(t, app, http.MethodGet, "/api/v1/orders/my-orders", customerToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, myOrders, 1)

	status, farmerOrders := doJSONList(t, app, http.MethodGet, "/api/v1/orders/farmer-orders", farmerToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, farmerOrders, 1)
}

func TestOrderValidationFailureReport(t *testing.T) {
	app := newTestApp(t)

	farmerToken := registerAndLogin(t, app, "Ravi", "ravi@farm.test", "farmer")
	customerToken := registerAndLogin(t, app, "Asha", "asha@shop.test", "customer")

	productID := createProduct(t, app, farmerToken, "Tomatoes", 20, 10)

	// One unknown product and one over-ask: both problems must come back in a
	// single response, together with the catalog snapshot.
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", customerToken, fiber.Map{
		"items": []fiber.Map{
			{"product_name": "dragonfruit", "quantity": 1},
			{"product_id": productID, "quantity": 15},
		},
		"delivery_address": fiber.Map{
			"street": "12 Lake Road", "city": "Pune", "state": "MH",
			"pincode": "411001", "phone": "9999999999",
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	lineErrors, _ := body["errors"].([]interface{})
	assert.Len(t, lineErrors, 2)
	first, _ := lineErrors[0].(map[string]interface{})
	assert.Equal(t, "product_not_found", first["kind"])
	second, _ := lineErrors[1].(map[string]interface{})
	assert.Equal(t, "insufficient_stock", second["kind"])
	assert.Equal(t, float64(10), second["available"])
	assert.Equal(t, float64(15), second["requested"])

	available, _ := body["available_products"].([]interface{})
	assert.Len(t, available, 1)

	// Nothing was committed and no stock moved.
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	data, _ := body["data"].(map[string]interface{})
	assert.Equal(t, float64(10), data["quantity"])
}

func TestOrderStatusLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)

	farmerToken := registerAndLogin(t, app, "Ravi", "ravi@farm.test", "farmer")
	customerToken := registerAndLogin(t, app, "Asha", "asha@shop.test", "customer")

	productID := createProduct(t, app, farmerToken, "Tomatoes", 20, 10)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/orders/", customerToken, fiber.Map{
		"items": []fiber.Map{{"product_id": productID, "quantity": 1}},
		"delivery_address": fiber.Map{
			"street": "12 Lake Road", "city": "Pune", "state": "MH",
			"pincode": "411001", "phone": "9999999999",
		},
	})
	assert.Equal(t, http.StatusCreated, status)
	order, _ := body["order"].(map[string]interface{})
	orderID, _ := order["id"].(string)

	// Skipping straight to delivered is rejected.
	status, _ = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", farmerToken, fiber.Map{
		"status": "delivered",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", farmerToken, fiber.Map{
		"status": "confirmed",
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+orderID+"/payment", customerToken, fiber.Map{
		"payment_status": "paid",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestRoleEnforcement(t *testing.T) {
	app := newTestApp(t)

	farmerToken := registerAndLogin(t, app, "Ravi", "ravi@farm.test", "farmer")
	customerToken := registerAndLogin(t, app, "Asha", "asha@shop.test", "customer")

	// No token at all.
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/orders/", "", fiber.Map{
		"items": []fiber.Map{{"product_id": "x", "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// A farmer cannot place orders.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", farmerToken, fiber.Map{
		"items": []fiber.Map{{"product_id": "x", "quantity": 1}},
	})
	assert.Equal(t, http.StatusForbidden, status)

	// A customer cannot create products.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/products/", customerToken, fiber.Map{
		"name": "Sneaky Produce", "description": "nope", "price": 1, "quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, status)

	// Only admins list the full order ledger.
	status, _ = doJSONList(t, app, http.MethodGet, "/api/v1/orders/", customerToken)
	assert.Equal(t, http.StatusForbidden, status)

	adminToken := registerAndLogin(t, app, "Root", "root@market.test", "admin")
	status, _ = doJSONList(t, app, http.MethodGet, "/api/v1/orders/", adminToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	registerAndLogin(t, app, "Asha", "asha@shop.test", "customer")

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"name":     "Imposter",
		"email":    "Asha@Shop.Test",
		"password": "secret-pass",
	})
	assert.Equal(t, http.StatusConflict, status, "response: %v", body)
}

func TestProductOwnership(t *testing.T) {
	app := newTestApp(t)

	ownerToken := registerAndLogin(t, app, "Ravi", "ravi@farm.test", "farmer")
	otherToken := registerAndLogin(t, app, "Meera", "meera@farm.test", "farmer")

	productID := createProduct(t, app, ownerToken, "Tomatoes", 20, 10)

	status, _ := doJSON(t, app, http.MethodPut, "/api/v1/products/"+productID, otherToken, fiber.Map{
		"name": "Hijacked", "description": "x", "price": 1, "quantity": 1,
		"unit": "kg", "category": "vegetables",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/v1/products/"+productID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/v1/products/"+productID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/products/"+productID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBehaviorTrackingAndRecommendations(t *testing.T) {
	app := newTestApp(t)

	farmerToken := registerAndLogin(t, app, "Ravi", "ravi@farm.test", "farmer")
	customerToken := registerAndLogin(t, app, "Asha", "asha@shop.test", "customer")

	productID := createProduct(t, app, farmerToken, "Tomatoes", 20, 10)
	createProduct(t, app, farmerToken, "Spinach", 15, 6)

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/recommendations/track-view", customerToken, fiber.Map{
		"product_id": productID, "category": "vegetables",
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/recommendations/track-search", customerToken, fiber.Map{
		"query": "Fresh Tomatoes", "result_ids": []string{productID},
	})
	assert.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/recommendations/personalized", customerToken, nil)
	assert.Equal(t, http.StatusOK, status)
	recommendations, _ := body["recommendations"].([]interface{})
	assert.NotEmpty(t, recommendations)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/recommendations/related/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	related, _ := body["related_products"].([]interface{})
	assert.Len(t, related, 1)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/recommendations/trending", "", nil)
	assert.Equal(t, http.StatusOK, status)
	trending, _ := body["trending_products"].([]interface{})
	assert.Len(t, trending, 2)
}
