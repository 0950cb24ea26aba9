package events

import (
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// Consumer feeds database events from the message broker into the welcome handler.
type Consumer struct {
	MQURI   string // The AMQP message queue URL to dial.
	Logger  zerolog.Logger
	Handler notifier.Handler

	conn    *amqp.Connection
	channel *amqp.Channel
}

// New connects the Consumer and declares its exchange and queue. It should only be called once.
func (c *Consumer) New() error {
	// create the connection
	conn, err := amqp.Dial(c.MQURI)
	if err != nil {
		return err
	}
	c.conn = conn
	c.Logger.Debug().Msg("Connection established")

	// create the channel
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	c.channel = channel
	c.Logger.Debug().Msg("Channel established")

	// one event in flight at a time
	err = c.channel.Qos(1, 0, false)
	if err != nil {
		_ = conn.Close()
		return err
	}
	c.Logger.Debug().Msg("Prefetching set")

	// register the exchange
	err = channel.ExchangeDeclare(notifier.Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return err
	}
	c.Logger.Debug().Msg("Exchange registered")

	// register the events queue
	queue, err := channel.QueueDeclare(notifier.EventsQueue, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return err
	}
	c.Logger.Debug().Msg("Events queue registered")
	// bind the events queue to the exchange
	err = channel.QueueBind(queue.Name, notifier.EventRoutingKey+".#", notifier.Exchange, false, nil)
	if err != nil {
		_ = conn.Close()
		return err
	}
	c.Logger.Debug().Msg("Events queue bound to exchange")

	return nil
}

// Connection returns the broker connection, for sharing with the management server.
func (c *Consumer) Connection() *amqp.Connection {
	return c.conn
}

// Close closes the broker connection.
func (c *Consumer) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
