package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// Order is the unit of a completed purchase. The row is append-only:
// status, tracking number and notes change, nothing is ever deleted.
// OrderNumber is the external identifier; ID stays internal.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	UserID      string      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Status      OrderStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Shipping snapshot, copied from the checkout form at creation time.
	FullName string `gorm:"type:varchar(100)" json:"full_name"`
	Email    string `gorm:"type:varchar(100)" json:"email"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`
	Address  string `gorm:"type:varchar(255)" json:"address"`

	// TotalAmount includes commission and is fixed at creation.
	TotalAmount      decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	PaymentReference string          `gorm:"type:varchar(100)" json:"payment_reference,omitempty"`
	Paid             bool            `gorm:"default:false" json:"paid"`

	TrackingNumber string `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`
	Notes          string `gorm:"type:text" json:"notes,omitempty"`

	Items []OrderItem `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem keeps its own price and seller snapshot so the line survives
// later product price changes or product deletion.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID string          `gorm:"type:varchar(36);index" json:"product_id"`
	SellerID  string          `gorm:"type:varchar(36);index" json:"seller_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	IsSend    bool            `gorm:"default:false" json:"is_send"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
