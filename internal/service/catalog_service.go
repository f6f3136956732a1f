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
	ErrUnknownCategory = errors.New("unknown category")
)

// ProductInput carries the fields of a product create or update request
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	SalePrice   decimal.NullDecimal
	CategoryID  uuid.UUID
	ImageURL    string
	IsAvailable bool
	IsFeatured  bool
}

// CatalogService defines the business logic for products and categories
type CatalogService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error)

	ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)

	// ExportProducts renders the filtered product list as export records,
	// one column set for every row, category names resolved.
	ExportProducts(ctx context.Context, filter repository.ProductFilter) ([]*export.Record, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// ListProducts returns products matching the filter with pagination
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 15
	}
	return s.productRepo.List(ctx, filter, page, pageSize, sortBy, sortOrder)
}

// GetProduct retrieves a single product
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// CreateProduct validates the category reference and persists a new product
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		if err == repository.ErrCategoryNotFound {
			return nil, ErrUnknownCategory
		}
		return nil, fmt.Errorf("failed to check category: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        domain.Slugify(input.Name),
		Description: input.Description,
		Price:       input.Price,
		SalePrice:   input.SalePrice,
		CategoryID:  input.CategoryID,
		ImageURL:    input.ImageURL,
		IsAvailable: input.IsAvailable,
		IsFeatured:  input.IsFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// UpdateProduct applies a full update to an existing product
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
			if err == repository.ErrCategoryNotFound {
				return nil, ErrUnknownCategory
			}
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
	}

	product.Name = input.Name
	product.Slug = domain.Slugify(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.SalePrice = input.SalePrice
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL
	product.IsAvailable = input.IsAvailable
	product.IsFeatured = input.IsFeatured
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// DeleteProduct removes a product by explicit admin action
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// ListFeatured returns the featured-product shelf
func (s *catalogService) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	return s.productRepo.ListFeatured(ctx, limit)
}

// ListCategories returns categories, optionally active only
func (s *catalogService) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

// CreateCategory persists a new category with a derived slug
func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        domain.Slugify(name),
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// ExportProducts renders the entire filtered product list as export rows
func (s *catalogService) ExportProducts(ctx context.Context, filter repository.ProductFilter) ([]*export.Record, error) {
	// Exports are unpaginated: fetch everything matching the filter
	products, _, err := s.productRepo.List(ctx, filter, 1, exportPageSize, "name", repository.SortOrderAsc)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	records := make([]*export.Record, 0, len(products))
	for _, p := range products {
		salePrice := ""
		if p.SalePrice.Valid {
			salePrice = p.SalePrice.Decimal.StringFixed(2)
		}
		stockStatus := "Out of Stock"
		if p.IsAvailable {
			stockStatus = "In Stock"
		}
		featured := "No"
		if p.IsFeatured {
			featured = "Yes"
		}

		records = append(records, export.NewRecord().
			Set("Name", p.Name).
			Set("Category", categoryNames[p.CategoryID]).
			Set("Price", p.Price.StringFixed(2)).
			Set("Sale Price", salePrice).
			Set("Stock Status", stockStatus).
			Set("Featured", featured).
			Set("Description", p.Description).
			Set("Created At", p.CreatedAt.Format("2006-01-02 15:04:05")).
			Set("Updated At", p.UpdatedAt.Format("2006-01-02 15:04:05")))
	}

	return records, nil
}

// exportPageSize bounds export size; the catalog is far smaller than this
const exportPageSize = 10000
