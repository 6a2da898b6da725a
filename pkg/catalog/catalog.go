// Package catalog is the read side of the product catalog the order
// engine consumes: current prices for checkout and seller ownership for
// fulfillment. Product CRUD itself lives elsewhere.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load product %s: %w", productID, err)
	}
	return &product, nil
}

// GetMany loads the given products in one query. Missing (or deleted)
// products are simply absent from the result map.
func (s *Store) GetMany(ctx context.Context, productIDs []string) (map[string]*models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}
