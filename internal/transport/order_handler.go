package transport

import (
	"errors"
	"net/http"
	"time"

	"cupcakery/internal/domain"
	"cupcakery/internal/export"
	"cupcakery/internal/middleware"
	"cupcakery/internal/repository"
	"cupcakery/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutLineRequest is one requested line of a checkout
type CheckoutLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	CustomerName    string                `json:"customer_name" validate:"required"`
	CustomerEmail   string                `json:"customer_email" validate:"required,email"`
	ShippingAddress string                `json:"shipping_address" validate:"required"`
	PhoneNumber     string                `json:"phone_number"`
	Notes           string                `json:"notes"`
	Tax             string                `json:"tax"`
	ShippingCost    string                `json:"shipping_cost"`
	Lines           []CheckoutLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// StatusUpdateRequest represents the order status transition payload
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderListResponse is a paginated order listing
type OrderListResponse struct {
	Orders     interface{} `json:"orders"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orderService service.OrderService
	exports      *export.Registry
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, exports *export.Registry, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		exports:      exports,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, staffOnly func(http.Handler) http.Handler, exportLimiter func(http.Handler) http.Handler) {
	r.Post("/api/checkout", h.Checkout)

	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(staffOnly)
		r.With(exportLimiter).Get("/", h.ListOrders)
		r.Get("/status-counts", h.StatusCounts)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateStatus)
	})
}

// Checkout handles order placement
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.PlaceOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		PhoneNumber:     req.PhoneNumber,
		Notes:           req.Notes,
	}

	var ok bool
	if input.Tax, ok = parseMoney(w, req.Tax, "tax"); !ok {
		return
	}
	if input.ShippingCost, ok = parseMoney(w, req.ShippingCost, "shipping_cost"); !ok {
		return
	}

	for _, line := range req.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
			return
		}
		input.Lines = append(input.Lines, service.OrderLine{
			ProductID: productID,
			Quantity:  line.Quantity,
		})
	}

	order, err := h.orderService.PlaceOrder(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder):
			middleware.RespondWithError(w, http.StatusBadRequest, "order must contain at least one item")
		case errors.Is(err, service.ErrProductUnavailable):
			middleware.RespondWithError(w, http.StatusConflict, "product is not available")
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown product")
		case errors.Is(err, domain.ErrInvalidQuantity):
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be at least 1")
		default:
			h.logger.Error("Failed to place order", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOrders handles order listing with filters, pagination and export
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilterFromQuery(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if format := r.URL.Query().Get("export"); format != "" {
		h.exportOrders(w, r, filter, format)
		return
	}

	page, pageSize := paginationFromQuery(r)

	orders, total, err := h.orderService.ListOrders(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, OrderListResponse{
		Orders:     orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

func (h *OrderHandler) exportOrders(w http.ResponseWriter, r *http.Request, filter repository.OrderFilter, format string) {
	exporter, err := h.exports.Lookup(format)
	if err != nil {
		respondExportLookupError(w, h.logger, format, err)
		return
	}

	records, err := h.orderService.ExportOrders(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to build order export", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to export orders")
		return
	}

	writeExport(w, h.logger, exporter, "orders", records)
}

// GetOrder handles fetching a single order with its items
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err), zap.String("order_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateStatus handles order status transitions
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req StatusUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrInvalidStatus):
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown order status")
		case errors.Is(err, domain.ErrInvalidStatusTransition):
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Failed to update order status", zap.Error(err), zap.String("order_id", id.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// StatusCounts handles the per-status order tally
func (h *OrderHandler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.orderService.StatusCounts(r.Context())
	if err != nil {
		h.logger.Error("Failed to get status counts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get status counts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"status_counts": counts})
}

func orderFilterFromQuery(r *http.Request) (repository.OrderFilter, error) {
	q := r.URL.Query()

	filter := repository.OrderFilter{Query: q.Get("q")}

	if raw := q.Get("status"); raw != "" {
		status := domain.OrderStatus(raw)
		if !domain.ValidOrderStatus(status) {
			return filter, errors.New("unknown order status")
		}
		filter.Status = status
	}
	if raw := q.Get("date_from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, errors.New("date_from must be YYYY-MM-DD")
		}
		filter.DateFrom = &t
	}
	if raw := q.Get("date_to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, errors.New("date_to must be YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}

	return filter, nil
}

// parseMoney reads an optional money field. Empty means zero.
func parseMoney(w http.ResponseWriter, raw, field string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+field)
		return decimal.Zero, false
	}
	return d, true
}
