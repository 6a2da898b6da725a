// Package cart is the ephemeral, Redis-backed shopping cart. A cart
// lives only for the current shopping session and is destroyed the
// moment an order is created from it.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/repository"
)

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	redis *repository.RedisRepository
	ttl   time.Duration
}

func NewStore(redis *repository.RedisRepository, ttl time.Duration) *Store {
	return &Store{redis: redis, ttl: ttl}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Get returns the user's cart, empty if none exists.
func (s *Store) Get(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := s.redis.GetJSON(ctx, cartKey(userID), &c)
	if err != nil {
		if repository.IsNil(err) {
			return &Cart{UserID: userID}, nil
		}
		return nil, err
	}
	return &c, nil
}

// Add merges quantity into an existing line or appends a new one.
func (s *Store) Add(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	}

	return c, s.save(ctx, c)
}

// Remove drops a product line entirely.
func (s *Store) Remove(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	c.Items = items

	if len(c.Items) == 0 {
		return c, s.Clear(ctx, userID)
	}
	return c, s.save(ctx, c)
}

// Clear deletes the cart. Idempotent, safe to retry after checkout.
func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, cartKey(userID))
}

func (s *Store) save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now()
	return s.redis.SetJSON(ctx, cartKey(c.UserID), c, s.ttl)
}
