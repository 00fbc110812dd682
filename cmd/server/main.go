package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthmate/internal/config"
	"healthmate/internal/handlers"
	"healthmate/internal/middleware"
	"healthmate/internal/repositories/mongodb"
	"healthmate/internal/services"
	"healthmate/pkg/ai"
	"healthmate/pkg/cache"
	"healthmate/pkg/database"
	"healthmate/pkg/logger"
	"healthmate/pkg/maps"
	"healthmate/pkg/sms"
	"healthmate/pkg/websocket"
	"healthmate/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close()

	if err := database.EnsureIndexes(mongoDB.Database); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// Redis is an optimization, not a hard dependency. Without it the
	// partner feed loses dismissals and record caching, nothing else.
	var cacheService services.CacheService
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
	} else {
		defer redisCache.Close()
		cacheService = services.NewCacheService(redisCache)
	}

	emergencyRepo := mongodb.NewEmergencyRepository(mongoDB.Database, cacheService)
	partnerRepo := mongodb.NewPartnerRepository(mongoDB.Database)
	patientRepo := mongodb.NewPatientRepository(mongoDB.Database)

	wsHandler := websocket.NewHandler()

	var smsProvider sms.SMSProvider
	if cfg.SMS.Enabled && cfg.SMS.AccountSID != "" {
		smsProvider = sms.NewTwilioProvider(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber)
	}

	var routingProvider maps.RoutingProvider
	if cfg.Maps.APIKey != "" {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.APIKey)
		if err != nil {
			log.WithError(err).Warn("Google Maps unavailable, falling back to straight-line estimates")
		} else {
			routingProvider = provider
		}
	}

	var aiClient *ai.Client
	if cfg.AI.GatewayURL != "" {
		aiClient = ai.NewClient(&ai.Config{
			GatewayURL: cfg.AI.GatewayURL,
			APIKey:     cfg.AI.APIKey,
			Model:      cfg.AI.Model,
			Timeout:    cfg.AI.Timeout,
		})
	}

	notificationService := services.NewNotificationService(smsProvider, patientRepo, log)
	emergencyService := services.NewEmergencyService(
		cfg.Dispatch,
		emergencyRepo,
		partnerRepo,
		cacheService,
		wsHandler,
		notificationService,
		routingProvider,
		log,
	)
	partnerService := services.NewPartnerService(partnerRepo, log)
	assessmentService := services.NewAssessmentService(aiClient, log)

	dispatchService := services.NewDispatchService(cfg.Dispatch, emergencyRepo, emergencyService, wsHandler, log)
	if err := dispatchService.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start dispatch service: %v", err)
	}
	defer dispatchService.Stop()

	emergencyHandler := handlers.NewEmergencyHandler(emergencyService, assessmentService)
	partnerHandler := handlers.NewPartnerHandler(emergencyService, partnerService)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	jwtSecret := cfg.Security.JWTSecret

	v1 := router.Group("/api/v1")
	{
		routes.SetupEmergencyRoutes(v1, emergencyHandler, jwtSecret)
		routes.SetupPartnerRoutes(v1, partnerHandler, jwtSecret)
		routes.SetupWebSocketRoutes(v1, wsHandler, jwtSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		if err := mongoDB.Ping(); err != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.Infof("Starting server on port %d", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Forced shutdown: %v", err)
	}
}
