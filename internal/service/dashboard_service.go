package service

import (
	"context"
	"fmt"
	"time"

	"cupcakery/internal/domain"
	"cupcakery/internal/report"
	"cupcakery/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	// Default reporting windows
	revenueTrendMonths = 6
	recentWindowDays   = 7
)

// ChartSeries is a label/data pair consumed directly by chart widgets
type ChartSeries struct {
	Labels []string `json:"labels"`
	Data   []string `json:"data"`
}

// Overview is the assembled dashboard payload
type Overview struct {
	RecentOrders      []*domain.Order `json:"recent_orders"`
	TotalOrders       int             `json:"total_orders"`
	RecentOrderCount  int             `json:"recent_order_count"`
	OrderCountDelta   int             `json:"order_count_delta"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	RecentRevenue     decimal.Decimal `json:"recent_revenue"`
	RevenueDelta      decimal.Decimal `json:"revenue_delta"`
	TotalProducts     int             `json:"total_products"`
	TotalCustomers    int             `json:"total_customers"`
	NewCustomers      int             `json:"new_customers"`
	MonthlyRevenue    ChartSeries     `json:"monthly_revenue"`
	ProductCategories ChartSeries     `json:"product_categories"`
	TopProducts       ChartSeries     `json:"top_products"`
}

// AnalyticsReport is the date-filtered analytics payload
type AnalyticsReport struct {
	DateFrom       string                    `json:"date_from"`
	DateTo         string                    `json:"date_to"`
	TotalOrders    int                       `json:"total_orders"`
	TotalRevenue   decimal.Decimal           `json:"total_revenue"`
	TotalCustomers int                       `json:"total_customers"`
	MonthlyRevenue []RevenueBucketView       `json:"monthly_revenue"`
	TopProducts    []repository.ProductSales `json:"top_products"`
}

// RevenueBucketView is one serialized bucket of the revenue trend
type RevenueBucketView struct {
	Label      string          `json:"label"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int             `json:"order_count"`
}

// DashboardService assembles aggregation results into response payloads.
// It never swallows malformed input: range parsing happens in the caller,
// which decides whether to fall back to the default window.
type DashboardService interface {
	// Overview builds the main dashboard payload from the default
	// windows: a 6-month revenue trend and 7-day recent counts.
	Overview(ctx context.Context, now time.Time) (*Overview, error)

	// Analytics builds the date-filtered report for an explicit range
	Analytics(ctx context.Context, r report.DateRange) (*AnalyticsReport, error)

	// DefaultAnalyticsRange is the window Analytics uses when the
	// caller has no explicit range to offer.
	DefaultAnalyticsRange(now time.Time) report.DateRange
}

type dashboardService struct {
	analyticsRepo    repository.AnalyticsRepository
	recentOrderLimit int
	topProductLimit  int
}

// NewDashboardService creates a new instance of DashboardService
func NewDashboardService(analyticsRepo repository.AnalyticsRepository, recentOrderLimit, topProductLimit int) DashboardService {
	if recentOrderLimit < 1 {
		recentOrderLimit = 5
	}
	if topProductLimit < 1 {
		topProductLimit = 5
	}
	return &dashboardService{
		analyticsRepo:    analyticsRepo,
		recentOrderLimit: recentOrderLimit,
		topProductLimit:  topProductLimit,
	}
}

// Overview assembles the dashboard payload
func (s *dashboardService) Overview(ctx context.Context, now time.Time) (*Overview, error) {
	recentRange := report.LastNDays(recentWindowDays, now)
	previousRange := recentRange.Previous()
	trendRange := report.LastNMonths(revenueTrendMonths, now)

	recentOrders, err := s.analyticsRepo.RecentOrders(ctx, s.recentOrderLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}

	totalOrders, err := s.analyticsRepo.CountOrders(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	recentOrderCount, err := s.analyticsRepo.CountOrders(ctx, &recentRange)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent orders: %w", err)
	}
	previousOrderCount, err := s.analyticsRepo.CountOrders(ctx, &previousRange)
	if err != nil {
		return nil, fmt.Errorf("failed to count previous orders: %w", err)
	}

	totalRevenue, err := s.analyticsRepo.TotalRevenue(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	recentRevenue, err := s.analyticsRepo.TotalRevenue(ctx, &recentRange)
	if err != nil {
		return nil, fmt.Errorf("failed to sum recent revenue: %w", err)
	}
	previousRevenue, err := s.analyticsRepo.TotalRevenue(ctx, &previousRange)
	if err != nil {
		return nil, fmt.Errorf("failed to sum previous revenue: %w", err)
	}

	totalProducts, err := s.analyticsRepo.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	totalCustomers, err := s.analyticsRepo.CountCustomers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	newCustomers, err := s.analyticsRepo.CountCustomers(ctx, &recentRange)
	if err != nil {
		return nil, fmt.Errorf("failed to count new customers: %w", err)
	}

	buckets, err := s.analyticsRepo.MonthlyRevenue(ctx, trendRange)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue trend: %w", err)
	}

	distribution, err := s.analyticsRepo.CategoryDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category distribution: %w", err)
	}

	topProducts, err := s.analyticsRepo.TopProducts(ctx, nil, s.topProductLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	return &Overview{
		RecentOrders:      recentOrders,
		TotalOrders:       totalOrders,
		RecentOrderCount:  recentOrderCount,
		OrderCountDelta:   recentOrderCount - previousOrderCount,
		TotalRevenue:      totalRevenue,
		RecentRevenue:     recentRevenue,
		RevenueDelta:      recentRevenue.Sub(previousRevenue),
		TotalProducts:     totalProducts,
		TotalCustomers:    totalCustomers,
		NewCustomers:      newCustomers,
		MonthlyRevenue:    revenueSeries(buckets),
		ProductCategories: categorySeries(distribution),
		TopProducts:       topProductSeries(topProducts),
	}, nil
}

// Analytics assembles the date-filtered report
func (s *dashboardService) Analytics(ctx context.Context, r report.DateRange) (*AnalyticsReport, error) {
	totalOrders, err := s.analyticsRepo.CountOrders(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	totalRevenue, err := s.analyticsRepo.TotalRevenue(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	totalCustomers, err := s.analyticsRepo.CountCustomers(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	buckets, err := s.analyticsRepo.MonthlyRevenue(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue trend: %w", err)
	}
	bucketViews := make([]RevenueBucketView, 0, len(buckets))
	for _, b := range buckets {
		bucketViews = append(bucketViews, RevenueBucketView{
			Label:      b.Label(),
			Revenue:    b.Revenue,
			OrderCount: b.OrderCount,
		})
	}

	topProducts, err := s.analyticsRepo.TopProducts(ctx, &r, s.topProductLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	return &AnalyticsReport{
		DateFrom:       r.From.Format("2006-01-02"),
		DateTo:         r.To.Format("2006-01-02"),
		TotalOrders:    totalOrders,
		TotalRevenue:   totalRevenue,
		TotalCustomers: totalCustomers,
		MonthlyRevenue: bucketViews,
		TopProducts:    topProducts,
	}, nil
}

// DefaultAnalyticsRange is the fallback window for malformed or absent
// date parameters
func (s *dashboardService) DefaultAnalyticsRange(now time.Time) report.DateRange {
	return report.LastNMonths(revenueTrendMonths, now)
}

func revenueSeries(buckets []repository.RevenueBucket) ChartSeries {
	series := ChartSeries{Labels: []string{}, Data: []string{}}
	for _, b := range buckets {
		series.Labels = append(series.Labels, b.Label())
		series.Data = append(series.Data, b.Revenue.StringFixed(2))
	}
	return series
}

func categorySeries(distribution []repository.CategoryProductCount) ChartSeries {
	series := ChartSeries{Labels: []string{}, Data: []string{}}
	for _, c := range distribution {
		series.Labels = append(series.Labels, c.CategoryName)
		series.Data = append(series.Data, fmt.Sprintf("%d", c.ProductCount))
	}
	return series
}

func topProductSeries(sales []repository.ProductSales) ChartSeries {
	series := ChartSeries{Labels: []string{}, Data: []string{}}
	for _, s := range sales {
		series.Labels = append(series.Labels, s.ProductName)
		series.Data = append(series.Data, fmt.Sprintf("%d", s.Quantity))
	}
	return series
}
