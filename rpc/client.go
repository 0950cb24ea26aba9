package rpc

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// ErrClosed is returned by Call once the response consumer has stopped.
var ErrClosed = errors.New("rpc client closed")

// Client describes an RPC client with the ability to call remote RPC servers.
type Client struct {
	Logger zerolog.Logger

	// Connection configuration.
	Connection         *amqp.Connection
	Exchange           string // Exchange to register our response queues against. Expected to be topic or direct.
	RequestRoutingKey  string // Routing key prefix for requests.
	ResponseRoutingKey string // Routing key prefix for responses (e.g. "rpc.response").

	once     sync.Once
	setupErr error

	mu      sync.Mutex
	channel *amqp.Channel
	replyTo string // assembled routing key for responses
	callers map[string]chan<- []byte
	closed  bool
}

func (c *Client) setup() error {
	c.once.Do(func() {
		c.callers = make(map[string]chan<- []byte)

		// set up channel
		channel, err := c.Connection.Channel()
		if err != nil {
			c.setupErr = err
			return
		}
		c.channel = channel

		// set up queue
		queue, err := channel.QueueDeclare(
			"",    // name, let server pick
			false, // durable
			true,  // autoDelete
			true,  // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			c.setupErr = err
			return
		}
		c.replyTo = c.ResponseRoutingKey + "." + queue.Name
		err = channel.QueueBind(
			queue.Name,
			c.replyTo, // routing key
			c.Exchange,
			false, // noWait
			nil,   // args
		)
		if err != nil {
			c.setupErr = err
			return
		}

		deliveries, err := channel.Consume(
			queue.Name,
			"",
			true,  // autoAck
			true,  // exclusive
			false, // noLocal
			false, // noWait
			nil,   // args
		)
		if err != nil {
			c.setupErr = err
			return
		}

		// spawn queue consumer
		go c.consumer(deliveries)
	})
	return c.setupErr
}

func (c *Client) consumer(deliveries <-chan amqp.Delivery) {
	logger := c.Logger.With().Str("module", "rpc-consumer").Logger()

	for delivery := range deliveries {
		c.mu.Lock()
		callback, ok := c.callers[delivery.CorrelationId]
		c.mu.Unlock()

		if !ok {
			logger.Error().Str("correlation_id", delivery.CorrelationId).Msg("Received response with no caller?")
			continue
		}
		select {
		case callback <- delivery.Body:
		default:
			logger.Error().Str("correlation_id", delivery.CorrelationId).Msg("Duplicate response, dropping.")
		}
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	logger.Debug().Msg("Response consumer stopped.")
}

// Call makes a RPC call and returns the raw response body. The client is
// initialized on first use. The call is abandoned when ctx is done.
func (c *Client) Call(ctx context.Context, callName string, body []byte) ([]byte, error) {
	// init client
	if err := c.setup(); err != nil {
		return nil, err
	}

	correlationID := uuid.NewString()

	// create correlation channel, buffered so a late response never blocks the consumer
	callback := make(chan []byte, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.callers[correlationID] = callback
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.callers, correlationID) // prevent a memory leak
		c.mu.Unlock()
	}()

	// send our request
	err := c.channel.Publish(
		c.Exchange,
		c.RequestRoutingKey+"."+callName,
		true,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: correlationID,
			ReplyTo:       c.replyTo,
			Body:          body,
		},
	)
	if err != nil {
		return nil, err
	}

	select {
	case result := <-callback:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the client's channel.
func (c *Client) Close() error {
	if c.channel == nil {
		return nil
	}
	return c.channel.Close()
}
