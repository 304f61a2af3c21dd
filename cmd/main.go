package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trustylads/internal/bot"
	"trustylads/internal/config"
	"trustylads/internal/domain"
	httpapi "trustylads/internal/http"
	"trustylads/internal/repository"
	"trustylads/internal/service"
)

const serviceName = "trusty-lads-bot"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var journal repository.OrderJournal
	if cfg.RedisAddr != "" {
		journal = repository.NewRedisJournal(cfg.RedisAddr)
		slog.Info("order journal: redis", "addr", cfg.RedisAddr)
	} else {
		fj, err := repository.NewFileJournal(cfg.OrdersDir)
		if err != nil {
			// best-effort persistence: run without a journal rather than die
			slog.Warn("file journal unavailable, orders stay in memory only", "err", err)
		} else {
			journal = fj
			slog.Info("order journal: files", "dir", cfg.OrdersDir)
		}
	}

	orders := repository.NewMemoryOrders(journal)
	catalog := service.DefaultCatalog()
	carts := service.NewCartService(catalog)
	promos := service.DefaultPromoCodes()
	checkoutCfg := service.CheckoutConfig{
		Currency:          cfg.Currency,
		MinAddressLen:     cfg.MinAddressLen,
		EnabledPayments:   []domain.PaymentMethod{domain.PaymentCashOnDelivery},
		OrderHistoryLimit: cfg.OrderHistoryLimit,
	}
	checkout := service.NewCheckoutService(carts, orders, promos, checkoutCfg)
	dispatcher := service.NewDispatcher(catalog, carts, checkout, orders, promos, checkoutCfg)

	tg, err := bot.New(cfg.BotToken, dispatcher)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	slog.Info("authorized on telegram", "account", tg.Self())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: httpapi.NewServer(serviceName).Engine(),
	}
	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go tg.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
