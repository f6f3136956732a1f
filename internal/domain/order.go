package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var (
	ErrInvalidQuantity         = errors.New("quantity must be at least 1")
	ErrInvalidStatus           = errors.New("unknown order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// statusTransitions maps each status to the statuses an order may move to.
// Delivered orders can still be refunded; cancelled and refunded are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RevenueStatuses are the order statuses that count toward revenue
// reporting. Cancelled and refunded orders are excluded.
func RevenueStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
	}
}

// Order represents a customer's order. Orders are financial records and
// are never physically deleted.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	CustomerEmail   string          `json:"customer_email" db:"customer_email"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	Status          OrderStatus     `json:"status" db:"status"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	PhoneNumber     string          `json:"phone_number" db:"phone_number"`
	Notes           string          `json:"notes" db:"notes"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax             decimal.Decimal `json:"tax" db:"tax"`
	ShippingCost    decimal.Decimal `json:"shipping_cost" db:"shipping_cost"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Items           []*OrderItem    `json:"items,omitempty" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem represents a line item within an order. Product name and price
// are captured at purchase time so later catalog changes never alter the
// financial record; the product reference survives product deletion as NULL.
type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID    *uuid.UUID      `json:"product_id,omitempty" db:"product_id"`
	ProductName  string          `json:"product_name" db:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price" db:"product_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// NewOrderItem captures an immutable snapshot of the product at purchase
// time. The effective price (sale price when set) is what the customer pays.
func NewOrderItem(product *Product, quantity int) (*OrderItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	price := product.EffectivePrice()
	productID := product.ID

	return &OrderItem{
		ID:           uuid.New(),
		ProductID:    &productID,
		ProductName:  product.Name,
		ProductPrice: price,
		Quantity:     quantity,
		Subtotal:     price.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// RecomputeTotals recalculates the order's subtotal and total from its
// items. It must be called inside the order's transaction boundary before
// the order is persisted, so the stored totals always reconcile with the
// stored items.
func (o *Order) RecomputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Subtotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.Tax).Add(o.ShippingCost)
}

// ItemCount returns the total number of units across all items
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// GenerateOrderNumber builds a unique, time-derived order number. The
// random suffix disambiguates orders created within the same second.
func GenerateOrderNumber(now time.Time) string {
	suffix := uuid.New().String()[:4]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102150405"), suffix)
}
