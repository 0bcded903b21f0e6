package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kindnessforautism/donations-api/internal/api"
	"github.com/kindnessforautism/donations-api/internal/config"
	"github.com/kindnessforautism/donations-api/internal/paypal"
	"github.com/kindnessforautism/donations-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var ledger store.Ledger
	switch cfg.Storage {
	case "postgres":
		pg, err := store.NewPostgresLedger(cfg.DBSource, cfg.GoalCents)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer pg.Close()
		ledger = pg
	default:
		log.Println("No database configured; using in-memory ledger (state will not survive restarts)")
		ledger = store.NewMemoryLedger(cfg.GoalCents)
	}

	gateway := paypal.NewClient(cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalMode, cfg.BrandName)
	if !gateway.Configured() {
		log.Println("PayPal credentials not set; order endpoints will return errors until configured")
	}

	handler := api.NewHandler(ledger, gateway, cfg.AdminSecret, cfg.BrandName)
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (storage=%s, paypal=%s)", cfg.Port, cfg.Storage, cfg.PayPalMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
