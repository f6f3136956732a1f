package repository

import (
	"context"
	"testing"
	"time"

	"cupcakery/internal/domain"

	"github.com/google/uuid"
)

func buildTestOrder(t *testing.T, email string, createdAt time.Time) *domain.Order {
	t.Helper()

	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     domain.GenerateOrderNumber(createdAt),
		CustomerEmail:   email,
		CustomerName:    "Test Customer",
		Status:          domain.OrderStatusPending,
		ShippingAddress: "1 Main St",
		Tax:             mustDecimal(t, "1.20"),
		ShippingCost:    mustDecimal(t, "5.00"),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}

	productID := uuid.New()
	order.Items = []*domain.OrderItem{
		{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    &productID,
			ProductName:  "Lemon Drizzle",
			ProductPrice: mustDecimal(t, "4.50"),
			Quantity:     2,
			Subtotal:     mustDecimal(t, "9.00"),
			CreatedAt:    createdAt,
		},
	}
	order.RecomputeTotals()

	return order
}

func TestOrderRepository_CreatePersistsOrderAndItems(t *testing.T) {
	cleanTables(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	// The seeded item references a product that does not exist; the FK
	// allows NULL, so persist it as a snapshot-only line.
	order := buildTestOrder(t, "create@example.com", time.Now().UTC())
	order.Items[0].ProductID = nil

	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if found.OrderNumber != order.OrderNumber {
		t.Errorf("order number = %q, want %q", found.OrderNumber, order.OrderNumber)
	}
	if !found.Total.Equal(mustDecimal(t, "15.20")) {
		t.Errorf("total = %s, want 15.20", found.Total)
	}
	if len(found.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(found.Items))
	}
	if found.Items[0].ProductName != "Lemon Drizzle" {
		t.Errorf("item name = %q, want Lemon Drizzle", found.Items[0].ProductName)
	}
	if found.Items[0].ProductID != nil {
		t.Error("expected nil product id on snapshot-only item")
	}
}

func TestOrderRepository_CreateRollsBackOnBadItem(t *testing.T) {
	cleanTables(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := buildTestOrder(t, "rollback@example.com", time.Now().UTC())
	order.Items[0].Quantity = 0 // violates the quantity check constraint

	if err := repo.Create(ctx, order); err == nil {
		t.Fatal("expected Create to fail on invalid item")
	}

	// Nothing may remain of the order after the failed transaction
	if _, err := repo.FindByID(ctx, order.ID); err != ErrOrderNotFound {
		t.Errorf("expected ErrOrderNotFound after rollback, got %v", err)
	}
}

func TestOrderRepository_FindByOrderNumber(t *testing.T) {
	cleanTables(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := buildTestOrder(t, "lookup@example.com", time.Now().UTC())
	order.Items[0].ProductID = nil
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByOrderNumber(ctx, order.OrderNumber)
	if err != nil {
		t.Fatalf("FindByOrderNumber failed: %v", err)
	}
	if found.ID != order.ID {
		t.Errorf("found wrong order: %s", found.ID)
	}

	if _, err := repo.FindByOrderNumber(ctx, "ORD-00000000000000-none"); err != ErrOrderNotFound {
		t.Errorf("expected ErrOrderNotFound for unknown number, got %v", err)
	}
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	cleanTables(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := buildTestOrder(t, "status@example.com", time.Now().UTC())
	order.Items[0].ProductID = nil
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, time.Now().UTC()); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	found, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Status != domain.OrderStatusProcessing {
		t.Errorf("status = %q, want processing", found.Status)
	}

	if err := repo.UpdateStatus(ctx, uuid.New(), domain.OrderStatusProcessing, time.Now().UTC()); err != ErrOrderNotFound {
		t.Errorf("expected ErrOrderNotFound for unknown order, got %v", err)
	}
}

func TestOrderRepository_ListFiltersByStatusAndDate(t *testing.T) {
	cleanTables(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	early := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	late := time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)

	first := buildTestOrder(t, "first@example.com", early)
	first.Items[0].ProductID = nil
	second := buildTestOrder(t, "second@example.com", late)
	second.Items[0].ProductID = nil
	second.Status = domain.OrderStatusShipped

	for _, o := range []*domain.Order{first, second} {
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	shipped, total, err := repo.List(ctx, OrderFilter{Status: domain.OrderStatusShipped}, 1, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(shipped) != 1 || shipped[0].CustomerEmail != "second@example.com" {
		t.Errorf("status filter returned %d orders (total %d)", len(shipped), total)
	}

	cutoff := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	recent, total, err := repo.List(ctx, OrderFilter{DateFrom: &cutoff}, 1, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(recent) != 1 || recent[0].CustomerEmail != "second@example.com" {
		t.Errorf("date filter returned %d orders (total %d)", len(recent), total)
	}

	byQuery, total, err := repo.List(ctx, OrderFilter{Query: "first@"}, 1, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(byQuery) != 1 || byQuery[0].CustomerEmail != "first@example.com" {
		t.Errorf("query filter returned %d orders (total %d)", len(byQuery), total)
	}
}

func TestOrderRepository_StatusCounts(t *testing.T) {
	cleanTables(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, status := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusPending,
		domain.OrderStatusDelivered,
	} {
		order := buildTestOrder(t, "counts@example.com", now.Add(time.Duration(i)*time.Second))
		order.Items[0].ProductID = nil
		order.Status = status
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	counts, err := repo.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("StatusCounts failed: %v", err)
	}

	if counts[domain.OrderStatusPending] != 2 {
		t.Errorf("pending count = %d, want 2", counts[domain.OrderStatusPending])
	}
	if counts[domain.OrderStatusDelivered] != 1 {
		t.Errorf("delivered count = %d, want 1", counts[domain.OrderStatusDelivered])
	}
}
