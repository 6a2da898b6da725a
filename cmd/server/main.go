package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/marketplace/gateway"
	"github.com/example/marketplace/pkg/auth"
	"github.com/example/marketplace/pkg/cart"
	"github.com/example/marketplace/pkg/catalog"
	"github.com/example/marketplace/pkg/config"
	"github.com/example/marketplace/pkg/discovery"
	"github.com/example/marketplace/pkg/orders"
	"github.com/example/marketplace/pkg/repository"
	"github.com/example/marketplace/pkg/settings"
	"github.com/example/marketplace/pkg/verification"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting marketplace service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Gateway.Port))

	// MySQL
	db, err := repository.OpenMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	// MongoDB
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoRepo.Close(ctx)
	}()

	ctx := context.Background()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}
	if err := mongoRepo.Ping(ctx); err != nil {
		logger.Warn("MongoDB connection failed", zap.Error(err))
	}

	defaultCommission, err := decimal.NewFromString(cfg.Marketplace.CommissionPercent)
	if err != nil {
		logger.Fatal("Malformed default commission percent",
			zap.String("value", cfg.Marketplace.CommissionPercent),
			zap.Error(err))
	}

	// Wire the engine
	sessionStore := auth.NewSessionStore(redisRepo, cfg.Marketplace.SessionTTL)
	cartStore := cart.NewStore(redisRepo, cfg.Marketplace.CartTTL)
	catalogStore := catalog.NewStore(db)
	settingsStore := settings.NewStore(db, defaultCommission)
	orderService := orders.NewService(db, logger, mongoRepo, cartStore)
	sellerService := verification.NewService(db, logger, mongoRepo)

	// Connect to etcd for service discovery
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
	}

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Gateway.Host,
		Port: cfg.Gateway.Port,
	}
	if sd != nil {
		if err := sd.Register(ctx, instance); err != nil {
			logger.Error("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd",
				zap.String("name", cfg.Server.Name),
				zap.String("address", fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)))
		}
	}

	gw := gateway.NewGateway(cfg, logger, gateway.Deps{
		Sessions: sessionStore,
		Carts:    cartStore,
		Catalog:  catalogStore,
		Settings: settingsStore,
		Orders:   orderService,
		Sellers:  sellerService,
		Audit:    mongoRepo,
	})
	gw.SetupRoutes()

	// Start gateway in goroutine
	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	if sd != nil {
		if err := sd.Deregister(ctx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}

	logger.Info("Service stopped")
}
