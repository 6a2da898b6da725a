package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/example/marketplace/pkg/auth"
	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// A single pooled connection keeps the in-memory database alive and
	// serializes concurrent transactions the way a real server would.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewService(db, zap.NewNop(), nil, nil), db
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New().String(),
		SellerID: sellerID,
		Name:     "test product",
		Price:    decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func customerPrincipal(userID string) auth.Principal {
	return auth.Principal{UserID: userID, Role: models.RoleCustomer}
}

func sellerPrincipal(userID string) auth.Principal {
	return auth.Principal{UserID: userID, Role: models.RoleSeller}
}

func adminPrincipal(userID string) auth.Principal {
	return auth.Principal{UserID: userID, Role: models.RoleCustomer, IsAdmin: true}
}

func testShipping() Shipping {
	return Shipping{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "+10000000000",
		Address:  "1 Main St",
	}
}

func createTestOrder(t *testing.T, svc *Service, db *gorm.DB, userID string, sellerID string) *models.Order {
	t.Helper()
	product := seedProduct(t, db, sellerID, "1000")

	order, err := svc.Create(context.Background(), customerPrincipal(userID), CreateInput{
		Lines: []CreateLine{
			{ProductID: product.ID, Quantity: 2, UnitPrice: product.Price},
		},
		Shipping:          testShipping(),
		CommissionPercent: decimal.RequireFromString("5"),
	})
	require.NoError(t, err)
	return order
}

// fakeCartClearer records which carts were cleared after checkout.
type fakeCartClearer struct {
	mu      sync.Mutex
	cleared []string
}

func (f *fakeCartClearer) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, userID)
	return nil
}
