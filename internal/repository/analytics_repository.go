package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cupcakery/internal/domain"
	"cupcakery/internal/report"

	"github.com/shopspring/decimal"
)

// RevenueBucket is one time bucket of the revenue trend
type RevenueBucket struct {
	Month      time.Time
	Revenue    decimal.Decimal
	OrderCount int
}

// Label formats the bucket for chart labels, e.g. "Jan 2024"
func (b RevenueBucket) Label() string {
	return b.Month.Format("Jan 2006")
}

// ProductSales is a product's aggregated sales performance, computed from
// the order-item snapshots (price at sale time, not current price).
type ProductSales struct {
	ProductName string
	Quantity    int
	Revenue     decimal.Decimal
}

// CategoryProductCount is one slice of the category distribution
type CategoryProductCount struct {
	CategoryName string
	ProductCount int
}

// AnalyticsRepository defines the read-only aggregation queries backing
// the dashboard and analytics views. All queries tolerate empty result
// sets by returning empty slices or zero values, never errors.
type AnalyticsRepository interface {
	// MonthlyRevenue returns revenue and order counts bucketed by
	// calendar month, oldest first. Only months with at least one
	// revenue-bearing order appear.
	MonthlyRevenue(ctx context.Context, r report.DateRange) ([]RevenueBucket, error)

	// TopProducts returns the best sellers by quantity within the
	// optional date range. Ties are broken lexicographically by product
	// name so the ranking is deterministic.
	TopProducts(ctx context.Context, r *report.DateRange, limit int) ([]ProductSales, error)

	// CategoryDistribution returns the product count for every active
	// category, including categories with no products.
	CategoryDistribution(ctx context.Context) ([]CategoryProductCount, error)

	// TotalRevenue sums revenue-bearing order totals, optionally
	// restricted to a range.
	TotalRevenue(ctx context.Context, r *report.DateRange) (decimal.Decimal, error)

	// CountOrders counts orders, optionally restricted to a range
	CountOrders(ctx context.Context, r *report.DateRange) (int, error)

	// CountProducts counts all catalog products
	CountProducts(ctx context.Context) (int, error)

	// CountCustomers counts distinct customers seen on orders,
	// optionally restricted to a range. Identity lives upstream, so
	// the customer email on the order is the customer key.
	CountCustomers(ctx context.Context, r *report.DateRange) (int, error)

	// RecentOrders returns the most recent orders, newest first
	RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error)
}

type analyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new instance of AnalyticsRepository
func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// revenueStatusList renders the revenue-bearing statuses as a SQL list.
// The values come from a fixed domain constant set, never from user input.
func revenueStatusList() string {
	list := ""
	for i, s := range domain.RevenueStatuses() {
		if i > 0 {
			list += ", "
		}
		list += "'" + string(s) + "'"
	}
	return list
}

// MonthlyRevenue buckets revenue-bearing orders by calendar month
func (r *analyticsRepository) MonthlyRevenue(ctx context.Context, dr report.DateRange) ([]RevenueBucket, error) {
	query := fmt.Sprintf(`
		SELECT date_trunc('month', created_at) AS month,
		       COALESCE(SUM(total), 0) AS revenue,
		       COUNT(*) AS order_count
		FROM orders
		WHERE status IN (%s)
		  AND created_at >= $1 AND created_at <= $2
		GROUP BY month
		ORDER BY month ASC
	`, revenueStatusList())

	rows, err := r.db.QueryContext(ctx, query, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly revenue: %w", err)
	}
	defer rows.Close()

	buckets := []RevenueBucket{}
	for rows.Next() {
		var bucket RevenueBucket
		if err := rows.Scan(&bucket.Month, &bucket.Revenue, &bucket.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan revenue bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revenue buckets: %w", err)
	}

	return buckets, nil
}

// TopProducts ranks products by units sold using the order-item snapshots
func (r *analyticsRepository) TopProducts(ctx context.Context, dr *report.DateRange, limit int) ([]ProductSales, error) {
	conditions := fmt.Sprintf("o.status IN (%s)", revenueStatusList())
	args := []interface{}{}
	argIndex := 1

	if dr != nil {
		conditions += fmt.Sprintf(" AND o.created_at >= $%d AND o.created_at <= $%d", argIndex, argIndex+1)
		args = append(args, dr.From, dr.To)
		argIndex += 2
	}

	query := fmt.Sprintf(`
		SELECT oi.product_name,
		       SUM(oi.quantity) AS total_quantity,
		       COALESCE(SUM(oi.product_price * oi.quantity), 0) AS total_revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE %s
		GROUP BY oi.product_name
		ORDER BY total_quantity DESC, oi.product_name ASC
		LIMIT $%d
	`, conditions, argIndex)

	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	sales := []ProductSales{}
	for rows.Next() {
		var s ProductSales
		if err := rows.Scan(&s.ProductName, &s.Quantity, &s.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		sales = append(sales, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product sales: %w", err)
	}

	return sales, nil
}

// CategoryDistribution counts products per active category
func (r *analyticsRepository) CategoryDistribution(ctx context.Context) ([]CategoryProductCount, error) {
	query := `
		SELECT c.name, COUNT(p.id) AS product_count
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.is_active
		GROUP BY c.id, c.name
		ORDER BY c.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category distribution: %w", err)
	}
	defer rows.Close()

	distribution := []CategoryProductCount{}
	for rows.Next() {
		var c CategoryProductCount
		if err := rows.Scan(&c.CategoryName, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		distribution = append(distribution, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}

	return distribution, nil
}

// TotalRevenue sums revenue-bearing order totals
func (r *analyticsRepository) TotalRevenue(ctx context.Context, dr *report.DateRange) (decimal.Decimal, error) {
	query := fmt.Sprintf(`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status IN (%s)`, revenueStatusList())
	args := []interface{}{}

	if dr != nil {
		query += " AND created_at >= $1 AND created_at <= $2"
		args = append(args, dr.From, dr.To)
	}

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return total, nil
}

// CountOrders counts orders in the optional range
func (r *analyticsRepository) CountOrders(ctx context.Context, dr *report.DateRange) (int, error) {
	return r.countQuery(ctx, "SELECT COUNT(*) FROM orders", dr)
}

// CountProducts counts all catalog products
func (r *analyticsRepository) CountProducts(ctx context.Context) (int, error) {
	return r.countQuery(ctx, "SELECT COUNT(*) FROM products", nil)
}

// CountCustomers counts distinct customer emails on orders
func (r *analyticsRepository) CountCustomers(ctx context.Context, dr *report.DateRange) (int, error) {
	return r.countQuery(ctx, "SELECT COUNT(DISTINCT customer_email) FROM orders", dr)
}

func (r *analyticsRepository) countQuery(ctx context.Context, query string, dr *report.DateRange) (int, error) {
	args := []interface{}{}
	if dr != nil {
		query += " WHERE created_at >= $1 AND created_at <= $2"
		args = append(args, dr.From, dr.To)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}

	return count, nil
}

// RecentOrders returns the newest orders for the dashboard
func (r *analyticsRepository) RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(scanOrderDest(order)...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent orders: %w", err)
	}

	return orders, nil
}
