package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookkeeping/internal/config"
	"bookkeeping/internal/db"
	"bookkeeping/internal/handlers"
	"bookkeeping/internal/logger"
	"bookkeeping/internal/services"
	"bookkeeping/internal/store"
	"bookkeeping/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("development", "info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer database.Close()

	users := store.NewUserStore(database)
	contacts := store.NewContactStore(database)
	transactions := store.NewTransactionStore(database)
	drafts := store.NewDraftStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database, cfg.TxMaxAttempts, log)
	hub := websocket.NewHub()

	resolver := services.NewContactResolver(contacts)
	ledger := services.NewLedgerService(txRunner, transactions, drafts, resolver, audit, hub, log)

	handler := handlers.New(txRunner, cfg, users, contacts, transactions, drafts, audit, ledger, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.AppEnv).Msg("bookkeeping API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		return
	}
	log.Info().Msg("server stopped")
}
