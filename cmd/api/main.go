package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"purchase-options-demo/internal/client"
	"purchase-options-demo/internal/config"
	"purchase-options-demo/internal/logger"
	"purchase-options-demo/internal/repository"
	"purchase-options-demo/internal/server"
	"purchase-options-demo/internal/service"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment, cfg.Log)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := client.OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	if err := client.Migrate(db); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	ctx := context.Background()

	optionRepo := repository.NewOptionRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)

	orderRepo, err := repository.NewOrderRepository(db, cfg.OrderStorage)
	if err != nil {
		// checkout and the subscriber report run without order storage
		log.Warn("order storage unavailable", zap.String("order_storage", cfg.OrderStorage), zap.Error(err))
	}

	if cfg.SeedProducts {
		if err := productRepo.Seed(ctx); err != nil {
			log.Fatal("seed products", zap.Error(err))
		}
	}

	settingsService := service.NewSettingsService(log, optionRepo)
	if err := settingsService.Activate(ctx); err != nil {
		log.Fatal("activate purchase options settings", zap.Error(err))
	}

	cartService := service.NewCartService(log, settingsService, productRepo, cartRepo)
	services := server.Services{
		Product:    service.NewProductService(productRepo),
		Settings:   settingsService,
		Cart:       cartService,
		Checkout:   service.NewCheckoutService(db, log, cartService, cartRepo, orderRepo),
		Subscriber: service.NewSubscriberService(log, orderRepo, cfg.Report.PerPage),
	}

	if cfg.Admin.Password == "" {
		log.Warn("ADMIN_PASSWORD is empty, admin pages will reject every login")
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv, err := server.NewServer(cfg, log, services)
	if err != nil {
		log.Fatal("init http server", zap.Error(err))
	}

	log.Info("starting HTTP server", zap.String("addr", serverAddr), zap.String("base_url", cfg.BaseURL))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}
