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

func TestOverride_AdminSetsAnyStatus(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	updated, err := svc.Override(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	var reloaded models.Order
	require.NoError(t, db.Where("order_number = ?", order.OrderNumber).First(&reloaded).Error)
	assert.Equal(t, models.OrderStatusShipped, reloaded.Status)
}

func TestOverride_AdminMayReopenTerminalOrder(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	_, err := svc.Override(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, models.OrderStatusCompleted)
	require.NoError(t, err)

	updated, err := svc.Override(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)
}

func TestOverride_NonAdminForbidden(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	_, err := svc.Override(context.Background(), customerPrincipal("customer-1"), order.OrderNumber, models.OrderStatusCancelled)
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = svc.Override(context.Background(), sellerPrincipal("seller-1"), order.OrderNumber, models.OrderStatusCancelled)
	assert.True(t, errors.Is(err, errs.ErrForbidden))
}

func TestOverride_UnknownStatusRejected(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	_, err := svc.Override(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, models.OrderStatus("misplaced"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestOverride_OrderNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Override(context.Background(), adminPrincipal("admin-1"), "ORD-20260901-0001", models.OrderStatusShipped)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestConfirmReceipt_FromShipped(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	_, err := svc.Override(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, models.OrderStatusShipped)
	require.NoError(t, err)

	updated, err := svc.ConfirmReceipt(context.Background(), customerPrincipal("customer-1"), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, updated.Status)
}

func TestConfirmReceipt_RejectedBeforeShipped(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	_, err := svc.ConfirmReceipt(context.Background(), customerPrincipal("customer-1"), order.OrderNumber)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidTransition))

	// Status is untouched by the rejected attempt.
	var reloaded models.Order
	require.NoError(t, db.Where("order_number = ?", order.OrderNumber).First(&reloaded).Error)
	assert.Equal(t, models.OrderStatusPending, reloaded.Status)
}

func TestConfirmReceipt_NonOwnerForbidden(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	_, err := svc.Override(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, models.OrderStatusShipped)
	require.NoError(t, err)

	_, err = svc.ConfirmReceipt(context.Background(), customerPrincipal("customer-2"), order.OrderNumber)
	assert.True(t, errors.Is(err, errs.ErrForbidden))
}

func TestUpdateShipping_AdminOnly(t *testing.T) {
	svc, db := newTestService(t)
	order := createTestOrder(t, svc, db, "customer-1", "seller-1")

	updated, err := svc.UpdateShipping(context.Background(), adminPrincipal("admin-1"), order.OrderNumber, "TRACK-42", "fragile")
	require.NoError(t, err)
	assert.Equal(t, "TRACK-42", updated.TrackingNumber)
	assert.Equal(t, "fragile", updated.Notes)

	_, err = svc.UpdateShipping(context.Background(), customerPrincipal("customer-1"), order.OrderNumber, "TRACK-43", "")
	assert.True(t, errors.Is(err, errs.ErrForbidden))
}
