package repositories

import (
	"sync"
	"testing"

	"farmmarket/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "tomatoes", escapeLike("tomatoes"))
	assert.Equal(t, `100\% organic`, escapeLike("100% organic"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
}

func seedProducts(t *testing.T) *MockProductRepository {
	t.Helper()
	repo := NewMockProductRepository()
	products := []models.Product{
		{ID: "P1", Name: "Tomatoes", Price: decimal.NewFromInt(20), Quantity: 10, Category: "vegetables", FarmerID: "F1"},
		{ID: "P2", Name: "Cherry Tomatoes", Price: decimal.NewFromInt(35), Quantity: 8, Category: "vegetables", FarmerID: "F2"},
	}
	for i := range products {
		assert.NoError(t, repo.Create(&products[i]))
	}
	return repo
}

func TestMockProductRepository_LookupPrefersOldest(t *testing.T) {
	repo := seedProducts(t)

	// Both names contain "tomatoes"; the oldest product wins, matching the
	// created_at ASC ordering of the SQL implementation.
	product, err := repo.GetByNameSubstring("tomatoes")
	assert.NoError(t, err)
	assert.Equal(t, "P1", product.ID)

	product, err = repo.GetByNameFold("CHERRY TOMATOES")
	assert.NoError(t, err)
	assert.Equal(t, "P2", product.ID)

	_, err = repo.GetByExactName("tomatoes")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockProductRepository_DecrementQuantity(t *testing.T) {
	repo := seedProducts(t)

	product, err := repo.DecrementQuantity("P1", 4)
	assert.NoError(t, err)
	assert.Equal(t, 6, product.Quantity)
	assert.True(t, product.InStock)

	// Draining the stock flips the in-stock flag.
	product, err = repo.DecrementQuantity("P1", 6)
	assert.NoError(t, err)
	assert.Equal(t, 0, product.Quantity)
	assert.False(t, product.InStock)

	_, err = repo.DecrementQuantity("P1", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = repo.DecrementQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockProductRepository_DecrementQuantityConcurrent(t *testing.T) {
	repo := NewMockProductRepository()
	assert.NoError(t, repo.Create(&models.Product{
		ID: "HOT", Name: "Strawberries", Price: decimal.NewFromInt(90), Quantity: 10, Category: "fruits", FarmerID: "F1",
	}))

	var wg sync.WaitGroup
	var succeeded int32
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.DecrementQuantity("HOT", 3); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Only three decrements of 3 fit into a stock of 10.
	assert.Equal(t, int32(3), succeeded)
	product, err := repo.GetByID("HOT")
	assert.NoError(t, err)
	assert.Equal(t, 1, product.Quantity)
}

func TestMockOrderRepository_RejectsDuplicateOrderNumber(t *testing.T) {
	repo := NewMockOrderRepository()

	first := &models.Order{OrderNumber: "ORD1", CustomerID: "C1"}
	assert.NoError(t, repo.Create(first))

	err := repo.Create(&models.Order{OrderNumber: "ORD1", CustomerID: "C2"})
	assert.ErrorIs(t, err, ErrDuplicateOrderNumber)

	// The original order is untouched.
	stored, err := repo.GetByID(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, "C1", stored.CustomerID)
}

func TestMockOrderRepository_ItemPositionsFollowSubmission(t *testing.T) {
	repo := NewMockOrderRepository()

	order := &models.Order{
		OrderNumber: "ORD2",
		CustomerID:  "C1",
		Items: []models.OrderItem{
			{ProductID: "P2", Quantity: 1},
			{ProductID: "P1", Quantity: 2},
		},
	}
	assert.NoError(t, repo.Create(order))

	stored, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, stored.Items[0].Position)
	assert.Equal(t, "P2", stored.Items[0].ProductID)
	assert.Equal(t, 1, stored.Items[1].Position)
	assert.Equal(t, "P1", stored.Items[1].ProductID)
}

func TestMockOrderRepository_FiltersByCustomerAndFarmer(t *testing.T) {
	repo := NewMockOrderRepository()

	assert.NoError(t, repo.Create(&models.Order{
		OrderNumber: "ORD3", CustomerID: "C1",
		Items: []models.OrderItem{{ProductID: "P1", FarmerID: "F1"}},
	}))
	assert.NoError(t, repo.Create(&models.Order{
		OrderNumber: "ORD4", CustomerID: "C2",
		Items: []models.OrderItem{{ProductID: "P2", FarmerID: "F2"}},
	}))

	byCustomer, err := repo.GetByCustomer("C1")
	assert.NoError(t, err)
	assert.Len(t, byCustomer, 1)
	assert.Equal(t, "ORD3", byCustomer[0].OrderNumber)

	byFarmer, err := repo.GetByFarmer("F2")
	assert.NoError(t, err)
	assert.Len(t, byFarmer, 1)
	assert.Equal(t, "ORD4", byFarmer[0].OrderNumber)

	none, err := repo.GetByFarmer("F9")
	assert.NoError(t, err)
	assert.Empty(t, none)
}
