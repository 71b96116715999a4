package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freshtrack/config"
	"freshtrack/cron"
	"freshtrack/database"
	"freshtrack/database/repository"
	"freshtrack/handlers"
	"freshtrack/middleware"
	"freshtrack/routes"
	"freshtrack/services/notification"
	"freshtrack/utils"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	var closers []func()
	checks := map[string]utils.HealthCheck{}

	utils.InitJWT(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		logger.Warn("main: JWT_SECRET is empty, operational endpoints will reject every request")
	}

	// Firebase carries push delivery and, when selected, the document store.
	var delivery notification.Delivery
	fb, err := utils.FirebaseInit(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID, cfg.StoreBackend == config.StoreFirestore)
	if err != nil {
		logger.Warn("main: firebase unavailable, push delivery disabled", zap.Error(err))
	} else {
		closers = append(closers, func() { _ = fb.Close() })
		fcm, err := notification.NewFCMDelivery(fb.Messaging)
		if err != nil {
			logger.Warn("main: push delivery disabled", zap.Error(err))
		} else {
			delivery = fcm
		}
	}

	var store repository.Store
	switch cfg.StoreBackend {
	case config.StoreMongo:
		client, err := database.InitDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("main: mongo unavailable, notification store disabled", zap.Error(err))
			break
		}
		store = repository.NewMongoStore(client.Database(cfg.DatabaseName))
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		closers = append(closers, func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(cctx)
		})
	case config.StoreFirestore:
		if fb == nil || fb.Firestore == nil {
			logger.Warn("main: firestore unavailable, notification store disabled")
			break
		}
		store = repository.NewFirestoreStore(fb.Firestore)
		checks["firestore"] = firestoreCheck(fb.Firestore)
	default:
		logger.Warn("main: unknown STORE_BACKEND, notification store disabled", zap.String("backend", cfg.StoreBackend))
	}

	var lock cron.PassLock = cron.NoopPassLock{}
	if cfg.RedisAddr != "" {
		rdb, err := utils.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisLockDB)
		if err != nil {
			logger.Warn("main: redis unavailable, running without distributed pass lock", zap.Error(err))
		} else {
			lock = cron.NewRedisPassLock(rdb, utils.PassLockKey, utils.PassLockTTL)
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	loc := time.Local
	if cfg.NotificationTimezone != "" {
		if l, err := time.LoadLocation(cfg.NotificationTimezone); err != nil {
			logger.Warn("main: invalid NOTIFICATION_TIMEZONE, using local zone", zap.String("tz", cfg.NotificationTimezone), zap.Error(err))
		} else {
			loc = l
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := notification.NewMetrics(registry)

	// services.
	calc := notification.NewExpiryCalculator(loc)
	var writer notification.HistoryWriter
	if store.Users != nil {
		writer = store.Users
	}
	history := notification.NewHistoryStore(writer, calc)
	runner := notification.NewRunner(delivery, history, notification.DefaultPolicy(calc), notification.SystemClock{}, logger.Named("notification"), metrics)

	opts := cron.Options{
		Runner:  runner,
		Lock:    lock,
		Logger:  logger.Named("scheduler"),
		Metrics: metrics,
	}
	if store.Configured() {
		opts.Users = store.Users
		opts.Products = store.Products
	}
	scheduler := cron.New(opts)
	if err := scheduler.Start(cfg.NotificationIntervalHours); err != nil {
		logger.Warn("main: notification scheduler not started", zap.Error(err))
	}

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	monitor := utils.NewHealthMonitor(time.Minute, checks)
	monitor.Start(healthCtx)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))

	notificationHandler := handlers.NewNotificationHandler(scheduler)
	handlerBundle := &handlers.HandlerBundle{
		CheckNowHandler:           notificationHandler.CheckNowHandler,
		NotificationStatusHandler: notificationHandler.StatusHandler,
		HealthHandler:             handlers.HealthHandler(monitor),
		MetricsHandler:            gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	}
	routes.RegisterRoutes(router, handlerBundle, cfg.MaxRequestsPerMin)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = utils.DefaultPort
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	inFlight := scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	select {
	case <-inFlight.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("main: notification pass still running at exit")
	}

	stopHealth()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	logger.Sugar().Info("main: server stopped gracefully")
}

// firestoreCheck reads at most one user document.
func firestoreCheck(client *firestore.Client) utils.HealthCheck {
	return func(ctx context.Context) error {
		iter := client.Collection("users").Limit(1).Documents(ctx)
		defer iter.Stop()
		if _, err := iter.Next(); err != nil && err != iterator.Done {
			return err
		}
		return nil
	}
}
