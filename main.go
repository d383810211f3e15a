package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookitgy/config"
	"bookitgy/cron"
	"bookitgy/handlers"
	"bookitgy/middleware"
	"bookitgy/models"
	"bookitgy/routes"
	"bookitgy/services/api"
	"bookitgy/services/auth"
	"bookitgy/services/availability"
	"bookitgy/services/billing"
	"bookitgy/services/booking"
	"bookitgy/services/directory"
	"bookitgy/services/favorites"
	"bookitgy/services/geo"
	"bookitgy/services/mutation"
	"bookitgy/services/provider"
	"bookitgy/services/storage"
	"bookitgy/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// localStores builds the device stores: credentials prefer the encrypted file, preferences and
// the service charge cache prefer Redis. Every chain ends in a store that always works.
func localStores(logger *zap.Logger) (tokens, prefs, chargeCache storage.KeyValueStore) {
	var secure storage.KeyValueStore
	fileStore, err := storage.NewEncryptedFileStore(config.AppConfig.SecureStorePath, config.AppConfig.SecureStoreKey)
	if err != nil {
		logger.Warn("Secure store unavailable, keeping credentials in memory", zap.Error(err))
		secure = storage.NewMemoryStore()
	} else {
		secure = fileStore
	}

	var authKV, prefsKV, chargeKV storage.KeyValueStore = storage.NewMemoryStore(), secure, secure
	if client := utils.GetAuthCacheClient(); client != nil {
		authKV = storage.NewRedisStore(client, "bookitgy:auth:", 0)
	}
	if client := utils.GetCacheClient(); client != nil {
		prefsKV = storage.NewFallbackStore(storage.NewRedisStore(client, "bookitgy:", 0), secure, logger)
		chargeKV = storage.NewFallbackStore(storage.NewRedisStore(client, "bookitgy:", utils.CacheTTL), secure, logger)
	}
	return storage.NewFallbackStore(secure, authKV, logger), prefsKV, chargeKV
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("Failed to read .env", zap.Error(err))
	}
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if err := utils.InitCache(); err != nil {
		logger.Warn("Redis cache unavailable, using local storage only", zap.Error(err))
	}
	if err := utils.InitAuthCache(); err != nil {
		logger.Warn("Redis auth cache unavailable", zap.Error(err))
	}
	defer utils.CloseCaches()

	loc, err := time.LoadLocation(config.AppConfig.TimeZone)
	if err != nil {
		logger.Warn("Unknown time zone, using UTC", zap.String("tz", config.AppConfig.TimeZone), zap.Error(err))
		loc = time.UTC
	}

	tokenKV, prefsKV, chargeKV := localStores(logger)

	apiClient, err := api.NewClient(api.Config{
		BaseURL: config.AppConfig.APIBaseURL,
		Timeout: config.AppConfig.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Invalid API configuration", zap.Error(err))
	}
	session := auth.NewSession(apiClient, storage.NewTokenStore(tokenKV), logger)
	apiClient.SetCredentials(session)
	authService := auth.NewService(apiClient, session,
		config.AppConfig.RestoreStepTimeout, config.AppConfig.RestoreWatchdog, logger)

	// Services.
	coord := mutation.NewCoordinator(logger)
	dir := directory.NewClient(apiClient, logger)
	customerBookings := booking.NewBookingStore(apiClient, coord, booking.CustomerScope, logger)
	providerBookings := booking.NewBookingStore(apiClient, coord, booking.ProviderScope, logger)
	selector := availability.NewSelector(dir, customerBookings, availability.Options{
		Location: loc,
		Days:     config.AppConfig.AvailabilityDays,
		Logger:   logger,
	})
	billingService := billing.NewService(apiClient, coord, logger)
	serviceCharge := billing.NewServiceChargeService(apiClient, chargeKV, logger)
	locationBox := middleware.NewLocationBox()

	session.OnExpired(func() {
		logger.Warn("Session expired, clearing selection")
		selector.SelectProvider(context.Background(), models.Provider{})
	})

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), config.AppConfig.RestoreWatchdog)
	res := authService.Restore(restoreCtx)
	cancelRestore()
	logger.Info("Session restored", zap.String("state", string(res.State)), zap.Error(res.Err))

	handlerBundle := &handlers.HandlerBundle{
		Auth:             authService,
		Directory:        dir,
		Selector:         selector,
		Radius:           geo.NewRadiusFilter(locationBox.Request),
		Favorites:        favorites.NewStore(prefsKV, logger),
		CustomerBookings: customerBookings,
		ProviderBookings: providerBookings,
		Catalog:          provider.NewProviderCatalog(apiClient, logger),
		Billing:          billingService,
		ServiceCharge:    serviceCharge,
	}

	// Background refresh of the cached views.
	worker, err := cron.NewRefreshWorker(config.AppConfig.RefreshSchedule, session.SignedIn, config.AppConfig.RequestTimeout, logger,
		cron.Job{Name: "bookings", Run: customerBookings.Refresh},
		cron.Job{Name: "selection", Run: func(ctx context.Context) error { selector.Refresh(ctx); return nil }},
		cron.Job{Name: "service-charge", Run: func(ctx context.Context) error {
			_, err := serviceCharge.Get(ctx)
			return err
		}},
		cron.Job{Name: "billing", Run: func(ctx context.Context) error {
			if billingService.Cycle() == "" {
				return nil
			}
			return billingService.Reload(ctx)
		}},
	)
	if err != nil {
		logger.Fatal("Failed to schedule refresh worker", zap.Error(err))
	}
	worker.Start()

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, time.Minute, config.AppConfig.APIBaseURL,
		[]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()})

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.RegisterRoutes(router, handlerBundle, session, locationBox)

	port := config.AppConfig.ConsolePort
	if port == "" {
		port = "8085"
	}
	// The console serves this device only.
	srv := &http.Server{
		Addr:    "127.0.0.1:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting console on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: console failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: console is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: console forced to shutdown: %v", err)
	}
	select {
	case <-worker.Stop().Done():
	case <-ctx.Done():
	}

	logger.Sugar().Info("main: console stopped gracefully")
}
