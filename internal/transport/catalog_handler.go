package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cupcakery/internal/export"
	"cupcakery/internal/middleware"
	"cupcakery/internal/repository"
	"cupcakery/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the product create/update payload
type ProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       string  `json:"price" validate:"required"`
	SalePrice   *string `json:"sale_price"`
	CategoryID  string  `json:"category_id" validate:"required,uuid"`
	ImageURL    string  `json:"image_url"`
	IsAvailable bool    `json:"is_available"`
	IsFeatured  bool    `json:"is_featured"`
}

// CategoryRequest represents the category create payload
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// ProductListResponse is a paginated product listing
type ProductListResponse struct {
	Products   interface{} `json:"products"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// CatalogHandler handles HTTP requests for products and categories
type CatalogHandler struct {
	catalogService service.CatalogService
	exports        *export.Registry
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, exports *export.Registry, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		exports:        exports,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, staffOnly func(http.Handler) http.Handler, exportLimiter func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.With(exportLimiter).Get("/", h.ListProducts)
		r.Get("/featured", h.ListFeatured)
		r.Get("/{id}", h.GetProduct)
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(staffOnly)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Post("/categories", h.CreateCategory)
	})
}

// ListProducts handles product listing with filters, pagination and export
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := productFilterFromQuery(r)

	if format := r.URL.Query().Get("export"); format != "" {
		h.exportProducts(w, r, filter, format)
		return
	}

	page, pageSize := paginationFromQuery(r)
	sortBy := r.URL.Query().Get("sort_by")
	sortOrder := repository.SortOrderAsc
	if r.URL.Query().Get("sort_order") == "desc" {
		sortOrder = repository.SortOrderDesc
	}

	products, total, err := h.catalogService.ListProducts(r.Context(), filter, page, pageSize, sortBy, sortOrder)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

func (h *CatalogHandler) exportProducts(w http.ResponseWriter, r *http.Request, filter repository.ProductFilter, format string) {
	exporter, err := h.exports.Lookup(format)
	if err != nil {
		respondExportLookupError(w, h.logger, format, err)
		return
	}

	records, err := h.catalogService.ExportProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to build product export", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to export products")
		return
	}

	writeExport(w, h.logger, exporter, "products", records)
}

// ListFeatured handles the featured-product shelf
func (h *CatalogHandler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	limit := 8
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	products, err := h.catalogService.ListFeatured(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list featured products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list featured products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// GetProduct handles fetching a single product
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateProduct handles product creation
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCategory) {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown category")
			return
		}
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.Slug))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles product updates
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrUnknownCategory):
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown category")
		default:
			h.logger.Error("Failed to update product", zap.Error(err), zap.String("product_id", id.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct handles product deletion
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles category listing
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	categories, err := h.catalogService.ListCategories(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// CreateCategory handles category creation
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
			return
		}
		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) decodeProductInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return service.ProductInput{}, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return service.ProductInput{}, false
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return service.ProductInput{}, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return service.ProductInput{}, false
	}

	var salePrice decimal.NullDecimal
	if req.SalePrice != nil && *req.SalePrice != "" {
		sp, err := decimal.NewFromString(*req.SalePrice)
		if err != nil || sp.IsNegative() {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid sale price")
			return service.ProductInput{}, false
		}
		salePrice = decimal.NullDecimal{Decimal: sp, Valid: true}
	}

	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		SalePrice:   salePrice,
		CategoryID:  categoryID,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable,
		IsFeatured:  req.IsFeatured,
	}, true
}

func productFilterFromQuery(r *http.Request) repository.ProductFilter {
	q := r.URL.Query()

	filter := repository.ProductFilter{Query: q.Get("q")}

	if raw := q.Get("category_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.CategoryID = &id
		}
	}
	if raw := q.Get("available"); raw != "" {
		available := raw == "true"
		filter.IsAvailable = &available
	}
	if raw := q.Get("featured"); raw != "" {
		featured := raw == "true"
		filter.IsFeatured = &featured
	}

	return filter
}

func paginationFromQuery(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 20

	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	return page, pageSize
}

// respondExportLookupError maps registry lookup failures onto status codes.
// A known but disabled format is 403, an unknown selector is 400.
func respondExportLookupError(w http.ResponseWriter, logger *zap.Logger, format string, err error) {
	if errors.Is(err, export.ErrCapabilityUnavailable) {
		logger.Warn("Export format not available", zap.String("format", format))
		middleware.RespondWithError(w, http.StatusForbidden, "export format not available")
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "unknown export format")
}

func writeExport(w http.ResponseWriter, logger *zap.Logger, exporter export.Exporter, resource string, records []*export.Record) {
	filename := export.Filename(resource, exporter, time.Now().UTC())

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := exporter.Write(w, records); err != nil {
		// Headers are already out; all we can do is log
		logger.Error("Failed to write export",
			zap.Error(err),
			zap.String("resource", resource),
			zap.String("format", exporter.Format()),
		)
	}
}
