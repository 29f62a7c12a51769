package main

import (
	"context"
	"errors"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/seed"
	categorysvc "storefront/internal/service/category"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("parse config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.Pool())
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	categories := categorysvc.New(categoryrepo.NewPostgres(pool))
	n, err := seed.Apply(ctx, categories, productrepo.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied products=%d", n)
}
