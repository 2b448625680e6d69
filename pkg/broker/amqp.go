package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
)

// AMQPConfig holds broker connection settings.
type AMQPConfig struct {
	URL             string
	Exchange        string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// AMQPClient implements Client over a RabbitMQ topic exchange. Each
// subscription gets its own channel and a durable queue named
// {topic}.{group}, bound with the topic as routing key.
type AMQPClient struct {
	conn     *amqp.Connection
	exchange string
	log      *logger.Logger

	mu       sync.Mutex
	pubCh    *amqp.Channel
	channels []*amqp.Channel
}

// DialAMQP connects to the broker with retries and declares the topic
// exchange. Retrying covers broker containers that start after the gateway.
func DialAMQP(cfg AMQPConfig, log *logger.Logger) (*AMQPClient, error) {
	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.ConnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var conn *amqp.Connection
	var err error
	for i := 0; i < attempts; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		log.WarnWith("broker connect failed", "attempt", i+1, "error", err)
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrBrokerConnection, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	return &AMQPClient{
		conn:     conn,
		exchange: cfg.Exchange,
		log:      log.Component("broker"),
		pubCh:    ch,
	}, nil
}

// Subscribe declares the group's durable queue, binds it to the topic and
// consumes it until ctx is canceled.
func (c *AMQPClient) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("could not open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		QueueName(topic, group), // name
		true,                    // durable
		false,                   // delete when unused
		false,                   // exclusive
		false,                   // no-wait
		nil,                     // arguments
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("could not declare queue: %w", err)
	}

	if err := ch.QueueBind(
		q.Name,     // queue name
		topic,      // routing key
		c.exchange, // exchange
		false,
		nil,
	); err != nil {
		ch.Close()
		return fmt.Errorf("could not bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("could not start consume: %w", err)
	}

	c.mu.Lock()
	c.channels = append(c.channels, ch)
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				ts := d.Timestamp
				if ts.IsZero() {
					ts = time.Now().UTC()
				}
				if err := handler(Message{Topic: d.RoutingKey, Value: d.Body, Timestamp: ts}); err != nil {
					c.log.ErrorWithErr("handler failed", err, "topic", topic)
				}
			}
		}
	}()

	c.log.InfoWith("subscribed", "topic", topic, "group", group, "queue", q.Name)
	return nil
}

// Publish sends value to the topic as a JSON message.
func (c *AMQPClient) Publish(ctx context.Context, topic string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal payload: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pubCh.PublishWithContext(ctx,
		c.exchange, // exchange
		topic,      // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	)
}

// Close shuts all channels and the connection.
func (c *AMQPClient) Close() error {
	c.mu.Lock()
	for _, ch := range c.channels {
		ch.Close()
	}
	c.channels = nil
	if c.pubCh != nil {
		c.pubCh.Close()
		c.pubCh = nil
	}
	c.mu.Unlock()

	return c.conn.Close()
}
