package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/metrics"
	"storefront/internal/payment"
	addressrepo "storefront/internal/repository/address"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	"storefront/internal/repository/inventory"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/repository/outbox"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	"storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.Pool())
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	reg := metrics.New()

	var productRepo productrepo.Repository = productrepo.NewPostgres(dbpool, logger)
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		productRepo = productrepo.NewCached(productRepo, rdb, cfg.ProductCacheTTL(), logger)
		logger.Printf("product cache enabled addr=%s ttl=%s", cfg.Redis.Addr, cfg.ProductCacheTTL())
	}

	userRepo := userrepo.NewPostgres(dbpool, logger)
	addressRepo := addressrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	payments := payment.NewBreaker(payment.NewSimulated(cfg.Payment.DeclineProviders), payment.BreakerSettings{}, logger)

	checkoutDeps := checkout.Deps{
		DB:        dbpool,
		Carts:     cartRepo,
		Inventory: inventory.NewPostgres(),
		Orders:    orderRepo,
		Payments:  payments,
		Metrics:   reg,
		Logger:    logger,
		Timeout:   cfg.CheckoutTimeout(),
	}

	relayDone := make(chan struct{})
	if cfg.EventsEnabled() {
		store := outbox.NewPostgres()
		checkoutDeps.Events = store
		relay := events.NewRelay(dbpool, store, events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), events.Options{
			Interval: cfg.OutboxPollInterval(),
			Logger:   logger,
		})
		go func() {
			defer close(relayDone)
			relay.Run(ctx)
		}()
		logger.Printf("order events enabled brokers=%v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		close(relayDone)
	}
	checkoutService := checkout.New(checkoutDeps)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc: authsvc.New(dbpool, userRepo, cartRepo, authsvc.Options{
			Secret:   []byte(cfg.Auth.Secret),
			TokenTTL: cfg.TokenTTL(),
			Logger:   logger,
		}),
		UserSvc:     usersvc.New(userRepo, addressRepo),
		CategorySvc: categorysvc.New(categoryrepo.NewPostgres(dbpool)),
		ProductSvc:  productsvc.New(productRepo),
		CartSvc:     cartsvc.New(dbpool, cartRepo, productRepo),
		OrderSvc:    ordersvc.New(orderRepo, addressRepo, checkoutService),
		Metrics:     reg,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("received shutdown signal")
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	<-relayDone
}
