// Package settings reads marketplace-wide knobs from the settings table.
// Values are fetched per request and threaded into the engine as plain
// parameters; nothing here is cached across requests.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/marketplace/pkg/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const KeyCommissionPercent = "commission_percent"

type Store struct {
	db                *gorm.DB
	defaultCommission decimal.Decimal
}

func NewStore(db *gorm.DB, defaultCommission decimal.Decimal) *Store {
	return &Store{db: db, defaultCommission: defaultCommission}
}

// CommissionPercent returns the marketplace commission percentage,
// falling back to the configured default when the table has no row.
func (s *Store) CommissionPercent(ctx context.Context) (decimal.Decimal, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).Where("`key` = ?", KeyCommissionPercent).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.defaultCommission, nil
		}
		return decimal.Zero, fmt.Errorf("failed to read commission setting: %w", err)
	}

	pct, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed commission setting %q: %w", setting.Value, err)
	}
	return pct, nil
}

// SetCommissionPercent upserts the commission value. Existing orders are
// never touched; only future checkouts see the change.
func (s *Store) SetCommissionPercent(ctx context.Context, pct decimal.Decimal) error {
	setting := models.Setting{Key: KeyCommissionPercent, Value: pct.String()}
	return s.db.WithContext(ctx).Save(&setting).Error
}
