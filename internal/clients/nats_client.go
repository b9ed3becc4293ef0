package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-backend/internal/config"
	"wallet-backend/internal/events"
	"wallet-backend/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSClient publishes lifecycle events to NATS subjects "<prefix>.<event type>"
type NATSClient struct {
	conn   *nats.Conn
	prefix string
	logger *logrus.Entry
}

// NewNATSClient CreateNATS client
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	logger := logrus.WithField("component", "nats")

	connectTimeout := time.Duration(cfg.Timeout) * time.Second
	conn, err := nats.Connect(cfg.URL,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(time.Duration(cfg.ReconnectWait)*time.Second),
		nats.MaxReconnects(maxReconnects(cfg.MaxReconnects)),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)
	logger.WithField("url", cfg.URL).Info("✅ NATS client initialized")

	return &NATSClient{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}, nil
}

func maxReconnects(configured int) int {
	if configured == 0 {
		return -1
	}
	return configured
}

// Subject returns the subject an event type is published on
func (c *NATSClient) Subject(eventType events.Type) string {
	return fmt.Sprintf("%s.%s", c.prefix, eventType)
}

// Publish implements events.Publisher
func (c *NATSClient) Publish(_ context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := c.Subject(event.Type)
	if err := c.conn.Publish(subject, payload); err != nil {
		metrics.EventsPublishFailed.WithLabelValues("nats", string(event.Type)).Inc()
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	metrics.EventsPublished.WithLabelValues("nats", string(event.Type)).Inc()
	return nil
}

// Close drains and closes the connection
func (c *NATSClient) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.WithError(err).Warn("NATS drain failed")
		c.conn.Close()
	}
}
