package rpc

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// HandlerFunc answers one RPC request.
type HandlerFunc func(ctx context.Context, request []byte) []byte

// Server describes an RPC server, providing multiple RPC handlers.
type Server struct {
	Handlers map[string]HandlerFunc
	Logger   zerolog.Logger

	// Connection configuration
	Connection *amqp.Connection
	Exchange   string // Exchange to register our request queues against. Expected to be topic or direct.
	RoutingKey string // Routing key prefix for requests (e.g. "rpc").

	channel *amqp.Channel
}

func (s *Server) runHandler(ctx context.Context, deliveries <-chan amqp.Delivery, handlerName string) {
	logger := s.Logger.With().Str("module", "rpc-handler").Str("handler", handlerName).Logger()

	// fetch handler
	handler := s.Handlers[handlerName]

	// process RPC requests
	for delivery := range deliveries {
		logger.Debug().Str("correlation_id", delivery.CorrelationId).Msg("Request received.")

		// run handler
		output := handler(ctx, delivery.Body)

		if delivery.ReplyTo == "" {
			logger.Error().Str("correlation_id", delivery.CorrelationId).Msg("Request without reply-to, dropping response.")
			continue
		}

		// return output to sender
		err := s.channel.Publish(
			s.Exchange,
			delivery.ReplyTo, // use ReplyTo as routing key
			false,            // mandatory
			false,            // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				CorrelationId: delivery.CorrelationId,
				Body:          output,
			},
		)
		if err != nil {
			logger.Err(err).Msg("Error publishing response.")
		}
	}
	logger.Debug().Msg("Delivery channel closed.")
}

// Run declares one queue per handler and serves them in the background until the
// connection closes.
func (s *Server) Run(ctx context.Context) error {
	// init channel
	channel, err := s.Connection.Channel()
	if err != nil {
		return err
	}
	s.channel = channel

	// set prefetch
	err = channel.Qos(1, 0, false)
	if err != nil {
		return err
	}

	// spawn handler goroutines
	for handler := range s.Handlers {
		// declare RPC queue
		queue, err := channel.QueueDeclare(
			s.Exchange+"."+s.RoutingKey+"."+handler,
			false, // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		)
		if err != nil {
			return err
		}

		// bind RPC queue
		err = channel.QueueBind(
			queue.Name,
			s.RoutingKey+"."+handler,
			s.Exchange,
			false, // noWait
			nil,
		)
		if err != nil {
			return err
		}

		deliveries, err := channel.Consume(
			queue.Name,
			"",
			true,  // autoAck
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,
		)
		if err != nil {
			return err
		}

		// spawn handler listener
		go s.runHandler(ctx, deliveries, handler)
	}

	return nil
}
