package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/auth"
	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MarkSent flips an item's is_send flag. Only the seller snapshotted on
// the item, or an admin, may do it. The flag is deliberately independent
// of order-level status; the engine never reconciles the two.
// Idempotent: marking an already-sent item is a successful no-op.
func (s *Service) MarkSent(ctx context.Context, principal auth.Principal, orderNumber string, itemID uint) (*models.OrderItem, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}

	order, err := s.findByNumber(ctx, orderNumber, false)
	if err != nil {
		return nil, err
	}

	var item models.OrderItem
	err = s.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, order.ID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order item %d: %w", itemID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order item %d: %v: %w", itemID, err, errs.ErrPersistence)
	}

	if !auth.CanMarkSent(principal, &item) {
		return nil, errs.ErrForbidden
	}

	if item.IsSend {
		return &item, nil
	}

	updates := map[string]interface{}{"is_send": true}
	if err := s.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to mark item %d sent: %v: %w", itemID, err, errs.ErrPersistence)
	}
	item.IsSend = true

	// Order row gets a fresh updated_at so admin lists sort recently
	// touched orders first.
	s.db.WithContext(ctx).Model(order).Update("updated_at", time.Now())

	s.logger.Info("Order item marked sent",
		zap.String("order_number", orderNumber),
		zap.Uint("item_id", itemID),
		zap.String("seller_id", principal.UserID))

	return &item, nil
}
