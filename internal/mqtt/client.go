// Package mqtt lets devices publish readings over MQTT instead of HTTP.
package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultSubscribeTimeout  = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	defaultKeepAlive         = 60 * time.Second
)

// Errors returned by the client.
var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrSubscribeFailed  = errors.New("mqtt subscribe failed")
)

// Config holds MQTT connection settings.
type Config struct {
	// BrokerURL is e.g. tcp://broker:1883 or ssl://broker:8883.
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// TopicPrefix is prepended to ingestion topics (default: plantwatch).
	TopicPrefix string

	// QoS for subscriptions (default: 1).
	QoS byte
}

// MessageHandler processes one received message. Returned errors are logged.
type MessageHandler func(topic string, payload []byte) error

// Client wraps a paho client and restores subscriptions after reconnects.
type Client struct {
	client pahomqtt.Client
	logger zerolog.Logger

	mu            sync.RWMutex
	subscriptions map[string]subscription
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// Connect connects to the broker.
func Connect(cfg Config, logger zerolog.Logger) (*Client, error) {
	c := &Client{
		logger:        logger,
		subscriptions: make(map[string]subscription),
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.logger.Info().Str("broker", cfg.BrokerURL).Msg("mqtt connected")
		c.restoreSubscriptions()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.logger.Warn().Err(err).Msg("mqtt connection lost")
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// Subscribe registers a handler for a topic filter.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	c.mu.Lock()
	c.subscriptions[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrap(handler))
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: %s: timeout", ErrSubscribeFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}

	return nil
}

// IsConnected reports whether the client is currently connected.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(defaultDisconnectQuiesce)
}

func (c *Client) restoreSubscriptions() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for topic, sub := range c.subscriptions {
		c.client.Subscribe(topic, sub.qos, c.wrap(sub.handler))
	}
}

func (c *Client) wrap(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error().Interface("panic", r).Str("topic", msg.Topic()).Msg("mqtt handler panic recovered")
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("mqtt message rejected")
		}
	}
}
