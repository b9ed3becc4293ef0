package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-backend/internal/app"
	"wallet-backend/internal/clients"
	"wallet-backend/internal/config"
	"wallet-backend/internal/db"
	"wallet-backend/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	logger := config.InitLogger(cfg.Log)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	database, err := db.InitDB(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	chain, err := clients.DialChainClient(dialCtx, cfg.Blockchain, time.Duration(cfg.Transfer.ReceiptPollSeconds)*time.Second)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to chain")
	}

	container, err := app.NewServiceContainer(cfg, database, chain, app.InitNATSClient(cfg.NATS))
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupRouter(cfg, container, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("🚀 wallet-backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down wallet-backend")
	// in-flight transfers may be waiting on receipts
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Transfer.ReceiptTimeoutSeconds+10)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	container.Cleanup(shutdownCtx)
}
