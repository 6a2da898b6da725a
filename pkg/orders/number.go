package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"gorm.io/gorm"
)

const (
	orderNumberPrefix = "ORD"

	// maxDailySequence caps a single day at 9999 orders. Hitting it is a
	// configuration failure and is surfaced as such, never wrapped.
	maxDailySequence = 9999

	// maxNumberAttempts bounds the read-increment-insert retry loop when
	// two checkouts race for the same sequence slot.
	maxNumberAttempts = 5
)

func dayPrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", orderNumberPrefix, day.Format("20060102"))
}

// nextOrderNumber reads the highest order number of the given day and
// returns the next one, ORD-YYYYMMDD-NNNN, starting at 0001. The read is
// only an optimistic hint: the unique index on orders.order_number is
// the real arbiter, and the caller retries on a duplicate-key insert.
func nextOrderNumber(tx *gorm.DB, day time.Time) (string, error) {
	prefix := dayPrefix(day)

	var numbers []string
	err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("failed to read last order number: %w", err)
	}

	seq := 1
	if len(numbers) > 0 {
		last, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix))
		if err != nil {
			return "", fmt.Errorf("malformed order number %q: %w", numbers[0], err)
		}
		seq = last + 1
	}

	if seq > maxDailySequence {
		return "", errs.ErrSequenceExhausted
	}

	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
