// Package welcome handles one welcome-email trigger end to end: resolve the
// payload, load the SMTP settings, send the email and shape the result.
package welcome

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/config"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/dispatch"
	"github.com/rakeshkumar9142/OpenStart-sub000/notifier/resolver"
)

// Dispatcher sends the welcome email to a resolved recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient notifier.RecipientInfo, cfg notifier.DeliveryConfig) (notifier.DispatchResult, error)
}

// Notifier represents the welcome-email handler. It is safe for concurrent use.
type Notifier struct {
	Logger     zerolog.Logger
	Lookup     config.Lookup // reads the process configuration, config.Environment when nil
	Dispatcher Dispatcher
}

// New creates a Notifier sending over SMTP with settings from the process environment.
func New(logger zerolog.Logger) *Notifier {
	return &Notifier{
		Logger:     logger,
		Lookup:     config.Environment,
		Dispatcher: dispatch.NewDispatcher(logger),
	}
}

// Handle runs one invocation. It always produces exactly one result along with the
// HTTP status describing it; errors never escape.
func (n *Notifier) Handle(ctx context.Context, envelope notifier.TriggerEnvelope) (notifier.DispatchResult, int) {
	logger := n.Logger.With().
		Str("module", "welcome").
		Str("source", envelope.Source.String()).
		Str("event", envelope.EventName).
		Logger()
	logger.Debug().Msg("Trigger received")

	lookup := n.Lookup
	if lookup == nil {
		lookup = config.Environment
	}

	filter, err := config.LoadEventFilter(lookup, envelope.Variables)
	if err != nil {
		logger.Err(err).Msg("Error loading event filter.")
		return notifier.Failure(err), notifier.StatusCode(err)
	}

	outcome, err := resolver.Resolve(envelope, filter)
	if err != nil {
		logger.Err(err).Msg("Error resolving payload.")
		return notifier.Failure(err), notifier.StatusCode(err)
	}
	if outcome.Skipped {
		logger.Info().Str("reason", outcome.Reason).Msg("Event skipped")
		return notifier.DispatchResult{Success: true, Skipped: true, Message: "Event skipped: " + outcome.Reason}, notifier.StatusCode(nil)
	}
	recipient := outcome.Recipient
	logger = logger.With().Str("recipient", recipient.Email).Logger()
	logger.Debug().Interface("resolved", recipient).Msg("Payload resolved")

	cfg, err := config.Load(lookup, envelope.Variables)
	if err != nil {
		logger.Err(err).Msg("Error loading delivery configuration.")
		return notifier.Failure(err), notifier.StatusCode(err)
	}

	result, err := n.Dispatcher.Dispatch(ctx, recipient, cfg)
	if err != nil {
		return notifier.Failure(err), notifier.StatusCode(err)
	}
	return result, notifier.StatusCode(nil)
}
