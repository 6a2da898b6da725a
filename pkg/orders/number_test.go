package orders

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrderNumber(t *testing.T, db *gorm.DB, number string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Order{
		OrderNumber: number,
		UserID:      "seed-user",
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.Zero,
	}).Error)
}

func TestNextOrderNumber_FirstOfDay(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	number, err := nextOrderNumber(db, day)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260901-0001", number)
}

func TestNextOrderNumber_Increments(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	seedOrderNumber(t, db, "ORD-20260901-0001")
	seedOrderNumber(t, db, "ORD-20260901-0041")

	number, err := nextOrderNumber(db, day)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260901-0042", number)
}

func TestNextOrderNumber_ResetsPerDay(t *testing.T) {
	db := newTestDB(t)

	seedOrderNumber(t, db, "ORD-20260831-0977")

	number, err := nextOrderNumber(db, time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260901-0001", number)
}

func TestNextOrderNumber_SequenceExhausted(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)

	seedOrderNumber(t, db, "ORD-20260901-9999")

	_, err := nextOrderNumber(db, day)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrSequenceExhausted))
}

func TestNextOrderNumber_SequentialRunHasNoGaps(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 25; i++ {
		number, err := nextOrderNumber(db, day)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ORD-20260901-%04d", i), number)
		seedOrderNumber(t, db, number)
	}
}
