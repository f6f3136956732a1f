package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cupcakery/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderFilter narrows order listings. Zero values mean "no filter".
type OrderFilter struct {
	Query    string
	Status   domain.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderRepository defines the interface for order data access. Orders are
// financial records: there is no delete operation.
type OrderRepository interface {
	// Create persists the order and all of its items in a single
	// transaction. Either everything commits or nothing does.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error
	StatusCounts(ctx context.Context) (map[domain.OrderStatus]int, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, customer_email, customer_name, status, shipping_address, phone_number, notes, subtotal, tax, shipping_cost, total, created_at, updated_at`

// Create inserts the order and its items atomically
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, order_number, customer_email, customer_name, status, shipping_address,
		                    phone_number, notes, subtotal, tax, shipping_cost, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.OrderNumber,
		order.CustomerEmail,
		order.CustomerName,
		order.Status,
		order.ShippingAddress,
		order.PhoneNumber,
		order.Notes,
		order.Subtotal,
		order.Tax,
		order.ShippingCost,
		order.Total,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, product_price, quantity, subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, item := range order.Items {
		productID := uuid.NullUUID{}
		if item.ProductID != nil {
			productID = uuid.NullUUID{UUID: *item.ProductID, Valid: true}
		}
		_, err = tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			order.ID,
			productID,
			item.ProductName,
			item.ProductPrice,
			item.Quantity,
			item.Subtotal,
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByOrderNumber retrieves an order by its unique order number
func (r *orderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, "order_number = $1", orderNumber)
}

func (r *orderRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s`, orderColumns, where)

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(scanOrderDest(order)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_price, quantity, subtotal, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []*domain.OrderItem{}
	for rows.Next() {
		item := &domain.OrderItem{}
		var productID uuid.NullUUID
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&productID,
			&item.ProductName,
			&item.ProductPrice,
			&item.Quantity,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID.Valid {
			id := productID.UUID
			item.ProductID = &id
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// List retrieves orders matching the filter, most recent first
func (r *orderRepository) List(ctx context.Context, filter OrderFilter, page, pageSize int) ([]*domain.Order, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf("(order_number ILIKE $%d OR customer_email ILIKE $%d OR customer_name ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+q+"%")
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.DateFrom)
		argIndex++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.DateTo)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(scanOrderDest(order)...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus moves an order to a new fulfillment status
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// StatusCounts returns the number of orders in each status, for the
// order list filter tabs
func (r *orderRepository) StatusCounts(ctx context.Context) (map[domain.OrderStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM orders GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var status domain.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

func scanOrderDest(order *domain.Order) []interface{} {
	return []interface{}{
		&order.ID,
		&order.OrderNumber,
		&order.CustomerEmail,
		&order.CustomerName,
		&order.Status,
		&order.ShippingAddress,
		&order.PhoneNumber,
		&order.Notes,
		&order.Subtotal,
		&order.Tax,
		&order.ShippingCost,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	}
}
