package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"cupcakery/internal/config"
	"cupcakery/internal/export"
	custommiddleware "cupcakery/internal/middleware"
	"cupcakery/internal/repository"
	"cupcakery/internal/service"
	"cupcakery/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	// Identity runs before logging so completed requests carry the caller
	router.Use(custommiddleware.IdentityMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Redis backs export rate limiting
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, categoryRepo)
	orderService := service.NewOrderService(orderRepo, productRepo)
	dashboardService := service.NewDashboardService(analyticsRepo, cfg.Dashboard.RecentOrderLimit, cfg.Dashboard.TopProductLimit)

	// Export registry: spreadsheet output only when the capability is on
	exports := export.NewRegistry(cfg.Export.XLSXEnabled)
	logger.Info("Export formats registered", zap.Strings("formats", exports.Available()))

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, exports, logger)
	orderHandler := transport.NewOrderHandler(orderService, exports, logger)
	dashboardHandler := transport.NewDashboardHandler(dashboardService, logger)

	// Route guards
	staffOnly := custommiddleware.RequireStaff(logger)
	exportLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		KeyPrefix:         "rate_limit:export",
	}, logger)

	// Register routes
	catalogHandler.RegisterRoutes(router, staffOnly, exportLimiter)
	orderHandler.RegisterRoutes(router, staffOnly, exportLimiter)
	dashboardHandler.RegisterRoutes(router, staffOnly)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
