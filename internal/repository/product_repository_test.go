package repository

import (
	"context"
	"testing"
	"time"

	"cupcakery/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func seedCategory(t *testing.T, name string) *domain.Category {
	t.Helper()

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        domain.Slugify(name),
		Description: "",
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := NewCategoryRepository(testDB).Create(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return category
}

func TestProperty_ProductRoundTripPreservesAttributes(t *testing.T) {
	cleanTables(t)
	productRepo := NewProductRepository(testDB)
	category := seedCategory(t, "Property Cakes")
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, description string, cents int, available bool, featured bool) bool {
			price := decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))

			product := &domain.Product{
				ID:          uuid.New(),
				Name:        name,
				Slug:        domain.Slugify(name) + "-" + uuid.New().String()[:8],
				Description: description,
				Price:       price,
				CategoryID:  category.ID,
				IsAvailable: available,
				IsFeatured:  featured,
				CreatedAt:   time.Now().UTC(),
				UpdatedAt:   time.Now().UTC(),
			}

			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Create: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: FindByID: %v", err)
				return false
			}

			ok := retrieved.ID == product.ID &&
				retrieved.Name == product.Name &&
				retrieved.Description == product.Description &&
				retrieved.Price.Equal(product.Price) &&
				retrieved.CategoryID == product.CategoryID &&
				retrieved.IsAvailable == product.IsAvailable &&
				retrieved.IsFeatured == product.IsFeatured &&
				!retrieved.SalePrice.Valid

			// Cleanup
			_ = productRepo.Delete(ctx, product.ID)

			return ok
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) < 100 }),
		gen.AlphaString(),
		gen.IntRange(1, 100000),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductRepository_SalePriceRoundTrip(t *testing.T) {
	cleanTables(t)
	repo := NewProductRepository(testDB)
	category := seedCategory(t, "Sale Cakes")
	ctx := context.Background()

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        "Battenberg",
		Slug:        "battenberg",
		Price:       mustDecimal(t, "8.00"),
		SalePrice:   decimal.NullDecimal{Decimal: mustDecimal(t, "6.50"), Valid: true},
		CategoryID:  category.ID,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	retrieved, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if !retrieved.SalePrice.Valid || !retrieved.SalePrice.Decimal.Equal(mustDecimal(t, "6.50")) {
		t.Errorf("sale price = %+v, want 6.50", retrieved.SalePrice)
	}
	if !retrieved.EffectivePrice().Equal(mustDecimal(t, "6.50")) {
		t.Errorf("effective price = %s, want sale price", retrieved.EffectivePrice())
	}
}

func TestProductRepository_ListFilters(t *testing.T) {
	cleanTables(t)
	repo := NewProductRepository(testDB)
	cakes := seedCategory(t, "Cakes")
	breads := seedCategory(t, "Breads")
	ctx := context.Background()

	seed := func(name string, categoryID uuid.UUID, available, featured bool) {
		t.Helper()
		p := &domain.Product{
			ID:          uuid.New(),
			Name:        name,
			Slug:        domain.Slugify(name),
			Price:       mustDecimal(t, "5.00"),
			CategoryID:  categoryID,
			IsAvailable: available,
			IsFeatured:  featured,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("failed to seed product %s: %v", name, err)
		}
	}

	seed("Victoria Sponge", cakes.ID, true, true)
	seed("Chocolate Fudge Cake", cakes.ID, true, false)
	seed("Sourdough Loaf", breads.ID, false, false)

	available := true
	products, total, err := repo.List(ctx, ProductFilter{IsAvailable: &available}, 1, 10, "name", SortOrderAsc)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Errorf("availability filter: got %d products (total %d), want 2", len(products), total)
	}

	products, total, err = repo.List(ctx, ProductFilter{CategoryID: &breads.ID}, 1, 10, "name", SortOrderAsc)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || products[0].Name != "Sourdough Loaf" {
		t.Errorf("category filter: got %d products (total %d)", len(products), total)
	}

	products, total, err = repo.List(ctx, ProductFilter{Query: "fudge"}, 1, 10, "name", SortOrderAsc)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || products[0].Name != "Chocolate Fudge Cake" {
		t.Errorf("query filter: got %d products (total %d)", len(products), total)
	}

	featured, err := repo.ListFeatured(ctx, 10)
	if err != nil {
		t.Fatalf("ListFeatured failed: %v", err)
	}
	if len(featured) != 1 || featured[0].Name != "Victoria Sponge" {
		t.Errorf("featured shelf: %+v", featured)
	}
}

func TestProductRepository_ListSortWhitelist(t *testing.T) {
	cleanTables(t)
	repo := NewProductRepository(testDB)
	seedCategory(t, "Whitelist")

	// An unknown sort column must not be interpolated; the repository
	// falls back to its default ordering instead of erroring.
	_, _, err := repo.List(context.Background(), ProductFilter{}, 1, 10, "price; DROP TABLE products", SortOrderAsc)
	if err != nil {
		t.Fatalf("List with bogus sort column failed: %v", err)
	}

	var count int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		t.Fatalf("products table is gone: %v", err)
	}
}
