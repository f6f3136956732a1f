package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cupcakery/internal/domain"
	"cupcakery/internal/export"
	"cupcakery/internal/middleware"
	"cupcakery/internal/report"
	"cupcakery/internal/repository"
	"cupcakery/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// passThrough stands in for the staff guard and the rate limiter
func passThrough(next http.Handler) http.Handler { return next }

// mockOrderService serves canned orders and export records
type mockOrderService struct {
	orders  []*domain.Order
	records []*export.Record
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, input service.PlaceOrderInput) (*domain.Order, error) {
	now := time.Now().UTC()
	order := &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   domain.GenerateOrderNumber(now),
		CustomerEmail: input.CustomerEmail,
		CustomerName:  input.CustomerName,
		Status:        domain.OrderStatusPending,
		Total:         decimal.RequireFromString("10.00"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.orders = append(m.orders, order)
	return order, nil
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int, error) {
	return m.orders, len(m.orders), nil
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	order, err := m.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.ValidOrderStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	if !domain.CanTransition(order.Status, status) {
		return nil, domain.ErrInvalidStatusTransition
	}
	order.Status = status
	return order, nil
}

func (m *mockOrderService) StatusCounts(ctx context.Context) (map[domain.OrderStatus]int, error) {
	return map[domain.OrderStatus]int{domain.OrderStatusPending: len(m.orders)}, nil
}

func (m *mockOrderService) ExportOrders(ctx context.Context, filter repository.OrderFilter) ([]*export.Record, error) {
	return m.records, nil
}

// mockDashboardService wraps a mock analytics outcome for handler tests
type mockDashboardService struct {
	lastRange report.DateRange
}

func (m *mockDashboardService) Overview(ctx context.Context, now time.Time) (*service.Overview, error) {
	return &service.Overview{
		RecentOrders:      []*domain.Order{},
		TotalOrders:       3,
		TotalRevenue:      decimal.RequireFromString("245.50"),
		TotalProducts:     12,
		TotalCustomers:    2,
		MonthlyRevenue:    service.ChartSeries{Labels: []string{"Jan 2024"}, Data: []string{"200.00"}},
		ProductCategories: service.ChartSeries{Labels: []string{}, Data: []string{}},
		TopProducts:       service.ChartSeries{Labels: []string{}, Data: []string{}},
	}, nil
}

func (m *mockDashboardService) Analytics(ctx context.Context, r report.DateRange) (*service.AnalyticsReport, error) {
	m.lastRange = r
	return &service.AnalyticsReport{
		DateFrom:       r.From.Format("2006-01-02"),
		DateTo:         r.To.Format("2006-01-02"),
		TotalRevenue:   decimal.Zero,
		MonthlyRevenue: []service.RevenueBucketView{},
		TopProducts:    []repository.ProductSales{},
	}, nil
}

func (m *mockDashboardService) DefaultAnalyticsRange(now time.Time) report.DateRange {
	return report.LastNMonths(6, now)
}

func exportFixture() []*export.Record {
	return []*export.Record{
		export.NewRecord().Set("Order Number", "ORD-20240101120000-abcd").Set("Total", "10.00"),
		export.NewRecord().Set("Order Number", "ORD-20240102120000-ef01").Set("Total", "20.00"),
	}
}

func newOrderRouter(orderService service.OrderService, xlsxEnabled bool) chi.Router {
	router := chi.NewRouter()
	handler := NewOrderHandler(orderService, export.NewRegistry(xlsxEnabled), zap.NewNop())
	handler.RegisterRoutes(router, passThrough, passThrough)
	return router
}

func TestListOrders_ExportCSVSetsAttachmentHeaders(t *testing.T) {
	router := newOrderRouter(&mockOrderService{records: exportFixture()}, true)

	req := httptest.NewRequest("GET", "/api/admin/orders?export=csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q, want text/csv", ct)
	}

	disposition := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, `attachment; filename="orders_export_`) {
		t.Errorf("content disposition = %q", disposition)
	}
	if !strings.HasSuffix(disposition, `.csv"`) {
		t.Errorf("content disposition extension wrong: %q", disposition)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "Order Number,Total") {
		t.Errorf("csv header missing: %q", body)
	}
	if !strings.Contains(body, "ORD-20240101120000-abcd") {
		t.Errorf("csv rows missing: %q", body)
	}
}

func TestListOrders_ExportXLSXDisabledIsForbidden(t *testing.T) {
	router := newOrderRouter(&mockOrderService{records: exportFixture()}, false)

	for _, format := range []string{"xlsx", "xls"} {
		req := httptest.NewRequest("GET", "/api/admin/orders?export="+format, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("format %s: status = %d, want 403", format, w.Code)
		}
	}
}

func TestListOrders_ExportUnknownFormatIsBadRequest(t *testing.T) {
	router := newOrderRouter(&mockOrderService{}, true)

	req := httptest.NewRequest("GET", "/api/admin/orders?export=pdf", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCheckout_ValidPayload(t *testing.T) {
	svc := &mockOrderService{}
	router := newOrderRouter(svc, true)

	payload := map[string]interface{}{
		"customer_name":    "Jane Baker",
		"customer_email":   "jane@example.com",
		"shipping_address": "1 Main St",
		"lines": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 2},
		},
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/api/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}

	var order domain.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if order.OrderNumber == "" || order.Status != domain.OrderStatusPending {
		t.Errorf("unexpected order in response: %+v", order)
	}
	if len(svc.orders) != 1 {
		t.Errorf("order was not placed")
	}
}

func TestCheckout_MissingFieldsFailValidation(t *testing.T) {
	router := newOrderRouter(&mockOrderService{}, true)

	payload := map[string]interface{}{
		"customer_name": "Jane Baker",
		// email, address and lines missing
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/api/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var response middleware.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	if _, ok := response.Error.Details["validation_errors"]; !ok {
		t.Error("expected validation_errors in response details")
	}
}

func TestUpdateStatus_InvalidTransitionIsConflict(t *testing.T) {
	svc := &mockOrderService{}
	router := newOrderRouter(svc, true)

	order, _ := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{
		CustomerName:  "Jane Baker",
		CustomerEmail: "jane@example.com",
	})

	body := []byte(`{"status": "delivered"}`)
	req := httptest.NewRequest("PATCH", "/api/admin/orders/"+order.ID.String()+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 (body: %s)", w.Code, w.Body.String())
	}
}

func newDashboardRouter(svc service.DashboardService) chi.Router {
	router := chi.NewRouter()
	handler := NewDashboardHandler(svc, zap.NewNop())
	handler.RegisterRoutes(router, passThrough)
	return router
}

func TestDashboard_PayloadKeys(t *testing.T) {
	router := newDashboardRouter(&mockDashboardService{})

	req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	for _, key := range []string{
		"recent_orders", "total_orders", "total_revenue", "total_products",
		"total_customers", "monthly_revenue", "product_categories", "top_products",
	} {
		if _, ok := payload[key]; !ok {
			t.Errorf("missing payload key %q", key)
		}
	}
}

func TestAnalytics_ValidRangeIsHonored(t *testing.T) {
	svc := &mockDashboardService{}
	router := newDashboardRouter(svc)

	req := httptest.NewRequest("GET", "/api/admin/analytics?date_from=2024-01-01&date_to=2024-02-29", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["date_from"] != "2024-01-01" || payload["date_to"] != "2024-02-29" {
		t.Errorf("range = %v..%v", payload["date_from"], payload["date_to"])
	}
	if _, ok := payload["range_warning"]; ok {
		t.Error("valid range must not carry a range warning")
	}
}

func TestAnalytics_MalformedDateFallsBackVisibly(t *testing.T) {
	svc := &mockDashboardService{}
	router := newDashboardRouter(svc)

	req := httptest.NewRequest("GET", "/api/admin/analytics?date_from=01/15/2024", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Bad input does not fail the report, but the fallback is announced
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if _, ok := payload["range_warning"]; !ok {
		t.Error("expected range_warning after fallback to the default window")
	}

	// The served range is the default window, not something derived from
	// the malformed input
	def := svc.DefaultAnalyticsRange(time.Now().UTC())
	if payload["date_from"] != def.From.Format("2006-01-02") {
		t.Errorf("fallback range start = %v, want %s", payload["date_from"], def.From.Format("2006-01-02"))
	}
}
