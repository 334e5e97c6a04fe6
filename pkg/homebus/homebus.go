// Package homebus publishes command strings to the home-automation MQTT
// topic. Each Send is one connect/publish/disconnect session.
package homebus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"automatron/pkg/config"
)

// Quiesce window given to the client to flush queued publishes on
// disconnect.
const disconnectQuiesceMillis = 250

// Client talks to the home-automation bus. Commands are opaque strings
// interpreted by the receiving devices, not by this process.
type Client struct {
	cfg config.HomeConfig
	log *slog.Logger

	// newClient is swapped in tests.
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

// NewClient validates bus configuration and constructs a client.
func NewClient(cfg config.HomeConfig, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BrokerURL) == "" {
		return nil, errors.New("home.broker_url is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = "home"
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:       cfg,
		log:       log.With("component", "homebus"),
		newClient: mqtt.NewClient,
	}, nil
}

// Send opens one bus connection, publishes every command in order at QoS
// 0 without awaiting per-message acknowledgment, and disconnects
// gracefully before reporting success. A connection error rejects the
// whole call; there is no retry and no partial-success signal.
func (c *Client) Send(ctx context.Context, commands ...string) error {
	if len(commands) == 0 {
		return errors.New("at least one command is required")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetAutoReconnect(false).
		SetConnectRetry(false)

	client := c.newClient(opts)

	start := time.Now()
	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect home bus: %w", err)
	}

	for _, command := range commands {
		client.Publish(c.cfg.Topic, 0, false, command)
	}

	client.Disconnect(disconnectQuiesceMillis)
	c.log.Info("Sent home commands", "count", len(commands), "elapsed", time.Since(start))

	return nil
}
