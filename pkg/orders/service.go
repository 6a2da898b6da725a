// Package orders is the order lifecycle engine: atomic checkout with
// date-scoped order numbers, the order status state machine, and the
// per-item fulfillment tracker.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/auth"
	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/pricing"
	"github.com/example/marketplace/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// priceTolerance is how far a caller-supplied unit price may drift from
// the catalog price before checkout fails with ErrPriceMismatch.
var priceTolerance = decimal.RequireFromString("0.01")

// AuditSink receives append-only audit entries. Satisfied by
// repository.MongoRepository; nil disables auditing.
type AuditSink interface {
	CreateAuditLog(ctx context.Context, entry *repository.AuditEntry) error
}

// CartClearer empties a customer's cart after a successful checkout.
// Clearing is idempotent and happens outside the order transaction.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	audit  AuditSink
	carts  CartClearer
}

func NewService(db *gorm.DB, logger *zap.Logger, audit AuditSink, carts CartClearer) *Service {
	return &Service{
		db:     db,
		logger: logger,
		audit:  audit,
		carts:  carts,
	}
}

type CreateLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

type Shipping struct {
	FullName string
	Email    string
	Phone    string
	Address  string
}

type CreateInput struct {
	Lines            []CreateLine
	Shipping         Shipping
	PaymentReference string
	Paid             bool

	// CommissionPercent is sourced from the settings store once per
	// request by the caller, never cached inside the engine.
	CommissionPercent decimal.Decimal
}

// Create converts a line list into a persisted Order plus its items in
// one transaction. Either the fully populated order exists afterwards or
// nothing does. Order number collisions between concurrent checkouts are
// resolved by retrying against the unique index, bounded by
// maxNumberAttempts.
func (s *Service) Create(ctx context.Context, principal auth.Principal, in CreateInput) (*models.Order, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	if len(in.Lines) == 0 {
		return nil, errs.ErrEmptyCart
	}
	if err := validateShipping(in.Shipping); err != nil {
		return nil, err
	}

	products, err := s.loadProducts(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, len(in.Lines))
	for i, line := range in.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, errs.ErrNotFound)
		}
		if line.UnitPrice.Sub(product.Price).Abs().GreaterThan(priceTolerance) {
			return nil, fmt.Errorf("product %s priced %s, cart has %s: %w",
				line.ProductID, product.Price, line.UnitPrice, errs.ErrPriceMismatch)
		}
		lines[i] = pricing.Line{UnitPrice: line.UnitPrice, Quantity: line.Quantity}
	}

	quote, err := pricing.Calculate(lines, in.CommissionPercent)
	if err != nil {
		return nil, err
	}

	order, err := s.insertWithRetry(ctx, principal.UserID, in, products, quote)
	if err != nil {
		return nil, err
	}

	// The cart is cleared outside the transaction: idempotent, safe to
	// retry, and a failure must not undo the committed order.
	if s.carts != nil {
		if err := s.carts.Clear(ctx, principal.UserID); err != nil {
			s.logger.Warn("Failed to clear cart after checkout",
				zap.String("user_id", principal.UserID),
				zap.Error(err))
		}
	}

	s.auditAsync(principal.UserID, "create_order", order.OrderNumber, bson.M{
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount.String(),
		"items":        len(order.Items),
	})

	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", order.UserID),
		zap.String("total_amount", order.TotalAmount.String()))

	return order, nil
}

func (s *Service) insertWithRetry(ctx context.Context, userID string, in CreateInput, products map[string]*models.Product, quote pricing.Quote) (*models.Order, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order := buildOrder(userID, in, products, quote)

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := nextOrderNumber(tx, time.Now())
			if err != nil {
				return err
			}
			order.OrderNumber = number
			return tx.Create(order).Error
		})
		if err == nil {
			return order, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Warn("Order number collision, retrying",
				zap.String("order_number", order.OrderNumber),
				zap.Int("attempt", attempt+1))
			continue
		}
		if errors.Is(err, errs.ErrSequenceExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create order: %v: %w", err, errs.ErrPersistence)
	}

	return nil, fmt.Errorf("order number allocation lost %d races: %w", maxNumberAttempts, errs.ErrConflict)
}

func buildOrder(userID string, in CreateInput, products map[string]*models.Product, quote pricing.Quote) *models.Order {
	items := make([]models.OrderItem, len(in.Lines))
	for i, line := range in.Lines {
		items[i] = models.OrderItem{
			ProductID: line.ProductID,
			SellerID:  products[line.ProductID].SellerID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			IsSend:    false,
		}
	}

	return &models.Order{
		UserID:           userID,
		Status:           models.OrderStatusPending,
		FullName:         in.Shipping.FullName,
		Email:            in.Shipping.Email,
		Phone:            in.Shipping.Phone,
		Address:          in.Shipping.Address,
		TotalAmount:      quote.Total,
		PaymentReference: in.PaymentReference,
		Paid:             in.Paid,
		Items:            items,
	}
}

func (s *Service) loadProducts(ctx context.Context, lines []CreateLine) (map[string]*models.Product, error) {
	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %v: %w", err, errs.ErrPersistence)
	}

	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func validateShipping(sh Shipping) error {
	fields := errs.FieldErrors{}
	if sh.FullName == "" {
		fields["full_name"] = "required"
	}
	if sh.Email == "" {
		fields["email"] = "required"
	}
	if sh.Phone == "" {
		fields["phone"] = "required"
	}
	if sh.Address == "" {
		fields["address"] = "required"
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// Get loads an order with its items by external number.
func (s *Service) Get(ctx context.Context, principal auth.Principal, orderNumber string) (*models.Order, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}

	order, err := s.findByNumber(ctx, orderNumber, true)
	if err != nil {
		return nil, err
	}
	if !auth.CanViewOrder(principal, order) {
		return nil, errs.ErrForbidden
	}
	return order, nil
}

// List returns orders page by page. Admins may filter by any user;
// everyone else only ever sees their own.
func (s *Service) List(ctx context.Context, principal auth.Principal, userID string, page, pageSize int) ([]models.Order, int64, error) {
	if !principal.Authenticated() {
		return nil, 0, errs.ErrUnauthorized
	}
	if !principal.IsAdmin {
		userID = principal.UserID
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	query.Count(&total)

	var orders []models.Order
	err := query.Preload("Items").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %v: %w", err, errs.ErrPersistence)
	}

	return orders, total, nil
}

func (s *Service) findByNumber(ctx context.Context, orderNumber string, withItems bool) (*models.Order, error) {
	query := s.db.WithContext(ctx)
	if withItems {
		query = query.Preload("Items")
	}

	var order models.Order
	err := query.Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderNumber, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order %s: %v: %w", orderNumber, err, errs.ErrPersistence)
	}
	return &order, nil
}

func (s *Service) auditAsync(actor, action, entityID string, data bson.M) {
	if s.audit == nil {
		return
	}
	entry := &repository.AuditEntry{
		Actor:    actor,
		Action:   action,
		EntityID: entityID,
		Data:     data,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("Failed to write audit entry",
				zap.String("action", action),
				zap.String("entity_id", entityID),
				zap.Error(err))
		}
	}()
}
