package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/auth"
	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Override sets an order to any known status. Admin only. This is the
// operational escape hatch: it may move a terminal order backward, so
// every use is written to the audit trail with the actor and both
// statuses.
func (s *Service) Override(ctx context.Context, principal auth.Principal, orderNumber string, next models.OrderStatus) (*models.Order, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}

	order, err := s.findByNumber(ctx, orderNumber, false)
	if err != nil {
		return nil, err
	}
	if !auth.CanSetOrderStatus(principal, order) {
		return nil, errs.ErrForbidden
	}
	if !next.Valid() {
		return nil, errs.FieldErrors{"status": fmt.Sprintf("unknown status %q", next)}
	}

	previous := order.Status
	if err := s.updateStatus(ctx, order, next); err != nil {
		return nil, err
	}

	s.auditAsync(principal.UserID, "status_override", order.OrderNumber, bson.M{
		"from":     previous.String(),
		"to":       next.String(),
		"terminal": previous.IsTerminal(),
	})

	s.logger.Info("Order status overridden",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", previous.String()),
		zap.String("to", next.String()),
		zap.String("admin_id", principal.UserID))

	return order, nil
}

// ConfirmReceipt is the single customer-triggered transition:
// shipped -> completed. Any other starting status is rejected without
// touching the row.
func (s *Service) ConfirmReceipt(ctx context.Context, principal auth.Principal, orderNumber string) (*models.Order, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}

	order, err := s.findByNumber(ctx, orderNumber, false)
	if err != nil {
		return nil, err
	}
	if !auth.CanConfirmReceipt(principal, order) {
		return nil, errs.ErrForbidden
	}
	if order.Status != models.OrderStatusShipped {
		return nil, fmt.Errorf("receipt can only be confirmed for a shipped order, current status is %s: %w",
			order.Status, errs.ErrInvalidTransition)
	}

	if err := s.updateStatus(ctx, order, models.OrderStatusCompleted); err != nil {
		return nil, err
	}

	s.logger.Info("Order completed by customer",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", principal.UserID))

	return order, nil
}

// UpdateShipping lets an admin attach a tracking number and notes.
// Status, totals and items are untouched.
func (s *Service) UpdateShipping(ctx context.Context, principal auth.Principal, orderNumber, trackingNumber, notes string) (*models.Order, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}

	order, err := s.findByNumber(ctx, orderNumber, false)
	if err != nil {
		return nil, err
	}
	if !auth.CanSetOrderStatus(principal, order) {
		return nil, errs.ErrForbidden
	}

	updates := map[string]interface{}{
		"tracking_number": trackingNumber,
		"notes":           notes,
		"updated_at":      time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order %s: %v: %w", orderNumber, err, errs.ErrPersistence)
	}

	order.TrackingNumber = trackingNumber
	order.Notes = notes
	return order, nil
}

func (s *Service) updateStatus(ctx context.Context, order *models.Order, next models.OrderStatus) error {
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(order).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order %s: %v: %w", order.OrderNumber, err, errs.ErrPersistence)
	}
	order.Status = next
	return nil
}
