package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cupcakery/internal/domain"
	"cupcakery/internal/export"
	"cupcakery/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrProductUnavailable = errors.New("product is not available")
)

// OrderLine is one requested line of a checkout
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries a checkout request
type PlaceOrderInput struct {
	CustomerEmail   string
	CustomerName    string
	ShippingAddress string
	PhoneNumber     string
	Notes           string
	Tax             decimal.Decimal
	ShippingCost    decimal.Decimal
	Lines           []OrderLine
}

// OrderService defines the business logic for orders
type OrderService interface {
	// PlaceOrder snapshots the requested products, recomputes the order
	// totals and persists order plus items in one transaction.
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	StatusCounts(ctx context.Context) (map[domain.OrderStatus]int, error)

	// ExportOrders renders the filtered order list as export records
	ExportOrders(ctx context.Context, filter repository.OrderFilter) ([]*export.Record, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// PlaceOrder creates an order from a checkout request
func (s *orderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     domain.GenerateOrderNumber(now),
		CustomerEmail:   input.CustomerEmail,
		CustomerName:    input.CustomerName,
		Status:          domain.OrderStatusPending,
		ShippingAddress: input.ShippingAddress,
		PhoneNumber:     input.PhoneNumber,
		Notes:           input.Notes,
		Tax:             input.Tax,
		ShippingCost:    input.ShippingCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, line := range input.Lines {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}

		item, err := domain.NewOrderItem(product, line.Quantity)
		if err != nil {
			return nil, err
		}
		item.OrderID = order.ID
		item.CreatedAt = now
		order.Items = append(order.Items, item)
	}

	// Totals are derived from the items inside the same transaction
	// boundary that persists them, so they always reconcile.
	order.RecomputeTotals()

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder retrieves an order with its items
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// ListOrders returns orders matching the filter with pagination
func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 15
	}
	return s.orderRepo.List(ctx, filter, page, pageSize)
}

// UpdateStatus moves an order through its fulfillment lifecycle
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, order.Status, status)
	}

	now := time.Now().UTC()
	if err := s.orderRepo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}

	order.Status = status
	order.UpdatedAt = now
	return order, nil
}

// StatusCounts returns per-status order counts for the filter tabs
func (s *orderService) StatusCounts(ctx context.Context) (map[domain.OrderStatus]int, error) {
	return s.orderRepo.StatusCounts(ctx)
}

// ExportOrders renders the entire filtered order list as export rows
func (s *orderService) ExportOrders(ctx context.Context, filter repository.OrderFilter) ([]*export.Record, error) {
	orders, _, err := s.orderRepo.List(ctx, filter, 1, exportPageSize)
	if err != nil {
		return nil, err
	}

	records := make([]*export.Record, 0, len(orders))
	for _, o := range orders {
		records = append(records, export.NewRecord().
			Set("Order Number", o.OrderNumber).
			Set("Customer", o.CustomerName).
			Set("Email", o.CustomerEmail).
			Set("Status", string(o.Status)).
			Set("Subtotal", o.Subtotal.StringFixed(2)).
			Set("Tax", o.Tax.StringFixed(2)).
			Set("Shipping", o.ShippingCost.StringFixed(2)).
			Set("Total", o.Total.StringFixed(2)).
			Set("Created At", o.CreatedAt.Format("2006-01-02 15:04:05")))
	}

	return records, nil
}
