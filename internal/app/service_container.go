package app

import (
	"context"
	"fmt"
	"time"

	"wallet-backend/internal/clients"
	"wallet-backend/internal/config"
	"wallet-backend/internal/events"
	"wallet-backend/internal/repository"
	"wallet-backend/internal/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceContainer wires repositories, clients and services
type ServiceContainer struct {
	// Database
	DB *gorm.DB

	// Repositories
	AddressRepo     repository.AddressRepository
	TransactionRepo repository.TransactionRepository
	TransferRepo    repository.TransferRepository

	// Clients
	ChainClient services.ChainClient
	NATSClient  *clients.NATSClient

	// Core Services
	NonceLocks         *services.NonceLockRegistry
	AddressService     *services.AddressService
	TransactionService *services.TransactionService
	TransferService    *services.TransferService

	// Push
	WebSocketPushService *services.WebSocketPushService
	Publisher            events.Publisher
}

// NewServiceContainer builds the container. natsClient may be nil.
func NewServiceContainer(cfg *config.Config, database *gorm.DB, chain services.ChainClient, natsClient *clients.NATSClient) (*ServiceContainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	if chain == nil {
		return nil, fmt.Errorf("chain client is required")
	}

	logrus.Info("🚀 Initializing Service Container...")

	c := &ServiceContainer{
		DB:          database,
		ChainClient: chain,
		NATSClient:  natsClient,
	}

	c.initRepositories()
	c.initEventServices()
	c.initCoreServices(cfg)

	logrus.Info("✅ Service Container initialized successfully")
	return c, nil
}

func (c *ServiceContainer) initRepositories() {
	c.AddressRepo = repository.NewAddressRepository(c.DB)
	c.TransactionRepo = repository.NewTransactionRepository(c.DB)
	c.TransferRepo = repository.NewTransferRepository(c.DB)
}

func (c *ServiceContainer) initEventServices() {
	c.WebSocketPushService = services.NewWebSocketPushService()

	publishers := events.MultiPublisher{c.WebSocketPushService}
	if c.NATSClient != nil {
		publishers = append(publishers, c.NATSClient)
	} else {
		logrus.Info("NATS not configured, events go to WebSocket clients only")
	}
	c.Publisher = publishers
}

func (c *ServiceContainer) initCoreServices(cfg *config.Config) {
	c.NonceLocks = services.NewNonceLockRegistry()
	c.AddressService = services.NewAddressService(c.DB, c.AddressRepo)
	c.TransactionService = services.NewTransactionService(
		c.DB,
		c.ChainClient,
		c.AddressRepo,
		c.TransactionRepo,
		c.Publisher,
		cfg.Blockchain.NativeSymbol,
	)
	c.TransferService = services.NewTransferService(
		c.ChainClient,
		c.TransferRepo,
		c.NonceLocks,
		c.Publisher,
		time.Duration(cfg.Transfer.ReceiptTimeoutSeconds)*time.Second,
		cfg.Blockchain.NativeSymbol,
	)
}

// InitNATSClient connects to NATS when a URL is configured. A connection failure is logged
// and NATS publishing is skipped.
func InitNATSClient(cfg config.NATSConfig) *clients.NATSClient {
	if cfg.URL == "" {
		return nil
	}
	natsClient, err := clients.NewNATSClient(cfg)
	if err != nil {
		logrus.WithError(err).WithField("url", cfg.URL).Warn("⚠️ NATS unavailable, continuing without event bus")
		return nil
	}
	return natsClient
}

// Cleanup stops background services and closes connections
func (c *ServiceContainer) Cleanup(ctx context.Context) {
	logrus.Info("🧹 Cleaning up Service Container...")

	if c.WebSocketPushService != nil {
		c.WebSocketPushService.Stop()
	}
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
	if closer, ok := c.ChainClient.(interface{ Close() }); ok {
		closer.Close()
	}
	if sqlDB, err := c.DB.WithContext(ctx).DB(); err == nil {
		sqlDB.Close()
	}

	logrus.Info("✅ Service Container cleaned up")
}
