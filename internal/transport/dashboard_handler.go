package transport

import (
	"errors"
	"net/http"
	"time"

	"cupcakery/internal/middleware"
	"cupcakery/internal/report"
	"cupcakery/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DashboardHandler handles HTTP requests for the admin dashboard
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// RegisterRoutes registers all dashboard routes
func (h *DashboardHandler) RegisterRoutes(r chi.Router, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(staffOnly)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/analytics", h.Analytics)
	})
}

// Dashboard handles the dashboard overview
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboardService.Overview(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to assemble dashboard", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to assemble dashboard")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, overview)
}

// Analytics handles the date-filtered analytics report. Malformed date
// parameters fall back to the default window; the fallback is logged and
// surfaced to the client in the response rather than silently applied.
func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	defaultRange := h.dashboardService.DefaultAnalyticsRange(time.Now().UTC())

	var rangeFallback string
	dateRange, err := report.ParseRange(q.Get("date_from"), q.Get("date_to"), defaultRange)
	if err != nil {
		if !errors.Is(err, report.ErrInvalidDateFormat) {
			h.logger.Error("Failed to parse analytics range", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to parse date range")
			return
		}

		h.logger.Warn("Malformed analytics date range, using default window",
			zap.String("date_from", q.Get("date_from")),
			zap.String("date_to", q.Get("date_to")),
			zap.Error(err),
		)
		dateRange = defaultRange
		rangeFallback = "invalid date parameters ignored, default window applied"
	}

	analytics, err := h.dashboardService.Analytics(r.Context(), dateRange)
	if err != nil {
		h.logger.Error("Failed to assemble analytics", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to assemble analytics")
		return
	}

	if rangeFallback == "" {
		middleware.RespondWithJSON(w, http.StatusOK, analytics)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, struct {
		*service.AnalyticsReport
		RangeWarning string `json:"range_warning"`
	}{analytics, rangeFallback})
}
