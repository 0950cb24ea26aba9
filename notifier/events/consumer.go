package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// EventHeader is the delivery header carrying the database event name. The routing
// key is used when it is absent.
const EventHeader = "event"

// ErrDeliveriesClosed is returned by Run when the broker stops delivering events.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Run consumes database events until ctx is done or the delivery channel closes.
// Every event is handled once and acknowledged; failures are reported in the
// published result, never redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	logger := c.Logger.With().Str("module", "consumer").Logger()
	logger.Info().Msg("Consumer started")

	// begin consuming
	deliveries, err := c.channel.Consume(notifier.EventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	return c.consume(ctx, deliveries)
}

func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.process(ctx, delivery)
		}
	}
}

func (c *Consumer) process(ctx context.Context, delivery amqp.Delivery) {
	logger := c.Logger.With().Str("module", "consumer").Str("routing_key", delivery.RoutingKey).Logger()
	logger.Debug().Msg("Event received")

	envelope, err := Envelope(delivery)
	if err != nil {
		logger.Err(err).Bytes("data", delivery.Body).Msg("Error deserializing. Rejecting and continuing.")
		delivery.Reject(false) // do *not* requeue, otherwise we'll just be stuck processing garbage
		c.publish(logger, delivery, notifier.Failure(err))
		return
	}

	result, _ := c.Handler.Handle(ctx, envelope)
	delivery.Ack(false)
	c.publish(logger, delivery, result)
}

// publish reports the result of an event under the result routing key.
func (c *Consumer) publish(logger zerolog.Logger, delivery amqp.Delivery, result notifier.DispatchResult) {
	data, err := notifier.Marshal(result)
	if err != nil {
		logger.Err(err).Msg("Error serializing result.")
		return
	}
	err = c.channel.Publish(
		notifier.Exchange,
		notifier.ResultRoutingKey+"."+notifier.WelcomeCall,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: delivery.CorrelationId,
			Body:          data,
		},
	)
	if err != nil {
		logger.Err(err).Msg("Error publishing result.")
	}
}

// Envelope builds the trigger of a database event delivery.
func Envelope(delivery amqp.Delivery) (notifier.TriggerEnvelope, error) {
	var document map[string]interface{}
	if err := notifier.Unmarshal(delivery.Body, &document); err != nil || document == nil {
		return notifier.TriggerEnvelope{}, fmt.Errorf("%w: event body is not a JSON document", notifier.ErrNoData)
	}

	eventName, _ := delivery.Headers[EventHeader].(string)
	if eventName == "" {
		eventName = delivery.RoutingKey
	}

	headers := make(map[string]string, len(delivery.Headers))
	for key, value := range delivery.Headers {
		if s, ok := value.(string); ok {
			headers[key] = s
		}
	}

	return notifier.TriggerEnvelope{
		Source:    notifier.DatabaseEvent,
		RawBody:   document,
		EventName: eventName,
		Headers:   headers,
	}, nil
}
