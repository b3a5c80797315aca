// @title           SplitLedger API
// @version         1.0
// @description     Group expense splitting with multi-currency balances and settlement plans.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/splitledger/docs"
	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/config"
	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/expense"
	expensesplit "github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/notification"
	"github.com/fkhayef/splitledger/internal/rates"
	"github.com/fkhayef/splitledger/internal/settlement"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
	mw "github.com/fkhayef/splitledger/pkg/middleware"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug("no .env file found, using environment variables")
	}

	ctx := context.Background()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("connected to database")

	// Exchange rates: restore the last good table, then try a fresh one.
	rateStore := rates.NewStore(
		rates.NewECBProvider(cfg.RatesURL, cfg.RatesTimeout, log.WithField("component", "ecb")),
		rates.NewRepository(db),
		log.WithField("component", "rates"),
	)
	if err := rateStore.Load(ctx); err != nil {
		log.WithError(err).Warn("failed to restore exchange rates")
	}
	refreshCtx, cancelRefresh := context.WithTimeout(ctx, cfg.RatesTimeout)
	_ = rateStore.Refresh(refreshCtx)
	cancelRefresh()

	scheduler, err := rates.NewScheduler(cfg.RatesRefreshSchedule, rateStore, cfg.RatesTimeout, log)
	if err != nil {
		log.WithError(err).Fatal("failed to schedule exchange rate refresh")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewSplitStrategyFactory()

	// Notification feature
	notificationService := notification.NewService(notification.NewRepository(db))
	notificationHandler := notification.NewHandler(notificationService)

	// User feature
	userService := user.NewService(user.NewRepository(db), cfg.DefaultCurrency)
	userHandler := user.NewHandler(userService)

	// Group feature
	groupService := group.NewService(group.NewRepository(db), notificationService, cfg.DefaultCurrency, log.WithField("feature", "group"))
	groupHandler := group.NewHandler(groupService)

	// Expense feature (with split factory injected)
	expenseService := expense.NewService(expense.NewRepository(db), groupService, userService, notificationService, splitFactory, log.WithField("feature", "expense"))
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementService := settlement.NewService(settlement.NewRepository(db), groupService, userService, notificationService, log.WithField("feature", "settlement"))
	settlementHandler := settlement.NewHandler(settlementService)

	// Balance feature
	balanceService := balance.NewService(balance.NewRepository(db), groupService, userService, rateStore, log.WithField("feature", "balance"))
	balanceHandler := balance.NewHandler(balanceService)

	ratesHandler := rates.NewHandler(rateStore)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	auth := mw.AuthMiddleware([]byte(cfg.JWTSecret))
	if cfg.DevAuth {
		log.Warn("DEV_AUTH enabled, requests authenticate through X-Test-User-ID")
		auth = mw.TestUserMiddleware
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/users", userHandler.Routes(auth))

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Route("/groups", func(r chi.Router) {
				groupHandler.Mount(r)
				balanceHandler.MountGroupRoutes(r)
			})
			r.Mount("/expenses", expenseHandler.Routes())
			r.Mount("/settlements", settlementHandler.Routes())
			r.Mount("/balances", balanceHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
			r.Mount("/rates", ratesHandler.Routes())
		})
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Test-User-ID"},
		AllowCredentials: true,
	}).Handler(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	log.Info("server stopped")
}
