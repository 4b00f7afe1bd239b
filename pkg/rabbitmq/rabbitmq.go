package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jewelcatalog/internal/models"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DefaultQueue receives product events when Config.Queue is empty.
const DefaultQueue = "catalog_products"

// EventProductAdded is the type of the event published for a new product.
const EventProductAdded = "product.added"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	url   string
	queue string
	log   *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// ProductEvent is the message body published to the queue.
type ProductEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Product    models.Product `json:"product"`
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ and declares the product queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	c := &Client{url: cfg.URL, queue: queue, log: logger}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(); err != nil {
		return nil, err
	}
	c.log.Info("rabbitmq client connected", zap.String("queue", queue))
	return c, nil
}

// connect dials the broker and declares the queue. Callers hold c.mu.
func (c *Client) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare %s: %w", c.queue, err)
	}

	c.conn = conn
	c.channel = ch
	return nil
}

// Name identifies the client as a product sink.
func (c *Client) Name() string {
	return "rabbitmq"
}

// Queue returns the queue events are published to.
func (c *Client) Queue() string {
	return c.queue
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		c.conn = nil
	}
	return errors.Join(errs...)
}

// Forward publishes a product.added event for the product. A closed channel
// is redialled once before giving up.
func (c *Client) Forward(ctx context.Context, product models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := NewProductPublishing(product, time.Now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil || c.conn == nil || c.conn.IsClosed() {
		if err := c.connect(); err != nil {
			return err
		}
	}

	err = c.publish(msg)
	if errors.Is(err, amqp.ErrClosed) {
		c.log.Warn("rabbitmq channel closed, reconnecting", zap.String("queue", c.queue))
		if err := c.connect(); err != nil {
			return err
		}
		err = c.publish(msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.log.Debug("product event published", zap.String("queue", c.queue), zap.String("message_id", msg.MessageId), zap.String("product_id", product.ID))
	return nil
}

func (c *Client) publish(msg amqp.Publishing) error {
	return c.channel.Publish(
		"",      // exchange: default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		msg,
	)
}

// NewProductPublishing builds the persistent message announcing a new product.
func NewProductPublishing(product models.Product, now time.Time) (amqp.Publishing, error) {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(ProductEvent{
		Type:       EventProductAdded,
		OccurredAt: now.UTC(),
		Product:    product,
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal product event to JSON: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         EventProductAdded,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}, nil
}
