package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkSent_BySeller(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")
	itemID := order.Items[0].ID

	item, err := svc.MarkSent(context.Background(), sellerPrincipal("seller-1"), order.OrderNumber, itemID)
	require.NoError(t, err)
	assert.True(t, item.IsSend)

	var reloaded models.OrderItem
	require.NoError(t, db.First(&reloaded, itemID).Error)
	assert.True(t, reloaded.IsSend)
}

func TestMarkSent_Idempotent(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")
	itemID := order.Items[0].ID

	_, err := svc.MarkSent(context.Background(), sellerPrincipal("seller-1"), order.OrderNumber, itemID)
	require.NoError(t, err)

	// Second call succeeds with no state change and no error.
	item, err := svc.MarkSent(context.Background(), sellerPrincipal("seller-1"), order.OrderNumber, itemID)
	require.NoError(t, err)
	assert.True(t, item.IsSend)
}

func TestMarkSent_WrongSellerForbidden(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")
	itemID := order.Items[0].ID

	_, err := svc.MarkSent(context.Background(), sellerPrincipal("seller-2"), order.OrderNumber, itemID)
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = svc.MarkSent(context.Background(), customerPrincipal("customer-1"), order.OrderNumber, itemID)
	assert.True(t, errors.Is(err, errs.ErrForbidden))
}

func TestMarkSent_AdminAllowed(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	item, err := svc.MarkSent(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, order.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, item.IsSend)
}

func TestMarkSent_IndependentOfOrderStatus(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	// The order can already be shipped at the order level while the item
	// has not been individually marked; the engine does not reconcile.
	_, err := svc.Override(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, models.OrderStatusShipped)
	require.NoError(t, err)

	var item models.OrderItem
	require.NoError(t, db.First(&item, order.Items[0].ID).Error)
	assert.False(t, item.IsSend)

	_, err = svc.MarkSent(context.Background(), sellerPrincipal("seller-1"), order.OrderNumber, item.ID)
	require.NoError(t, err)

	var reloaded models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&reloaded).Error)
	assert.Equal(t, models.OrderStatusShipped, reloaded.Status)
}

func TestMarkSent_ItemNotFound(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	_, err := svc.MarkSent(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, order.Items[0].ID+100)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
