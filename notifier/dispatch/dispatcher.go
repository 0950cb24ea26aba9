// Package dispatch delivers the welcome email over SMTP.
package dispatch

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/rs/zerolog"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// SuccessMessage is reported to the caller once the relay accepted the email.
const SuccessMessage = "Welcome email sent successfully"

// Dispatcher renders and sends one welcome email per call. It keeps no state
// between calls and is safe for concurrent use.
type Dispatcher struct {
	Dialer   Dialer
	Template *Template
	Logger   zerolog.Logger
}

// NewDispatcher returns a Dispatcher sending the built-in welcome template over SMTP.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		Dialer:   &SMTPDialer{},
		Template: NewWelcomeTemplate(),
		Logger:   logger,
	}
}

// Dispatch sends the welcome email to recipient. The transport is dialed and
// verified exactly once; failures are returned, never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient notifier.RecipientInfo, cfg notifier.DeliveryConfig) (notifier.DispatchResult, error) {
	logger := d.Logger.With().Str("module", "dispatcher").Str("recipient", recipient.Email).Logger()

	result, err := d.dispatch(ctx, logger, recipient, cfg)
	if err != nil {
		logger.Err(err).Msg("Error dispatching welcome email.")
		return notifier.Failure(err), err
	}
	logger.Info().Str("email_id", result.EmailID).Msg("Welcome email sent.")
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, logger zerolog.Logger, recipient notifier.RecipientInfo, cfg notifier.DeliveryConfig) (notifier.DispatchResult, error) {
	from, err := mail.ParseAddress(cfg.FromAddress)
	if err != nil {
		return notifier.DispatchResult{}, fmt.Errorf("%w: sender %q: %v", notifier.ErrInvalidConfig, cfg.FromAddress, err)
	}
	to := &mail.Address{Name: recipient.FirstName, Address: recipient.Email}
	if recipient.FirstName == notifier.DefaultFirstName {
		to.Name = ""
	}

	tmpl := d.Template
	if tmpl == nil {
		tmpl = NewWelcomeTemplate()
	}
	rendered, err := tmpl.Render(recipient)
	if err != nil {
		return notifier.DispatchResult{}, fmt.Errorf("render welcome template failed: %w", err)
	}

	// connecting
	transport, err := d.Dialer.Dial(ctx, cfg)
	if err != nil {
		return notifier.DispatchResult{}, fmt.Errorf("%w: dial %s: %v", notifier.ErrTransport, cfg.Addr(), err)
	}
	defer func() {
		if err := transport.Close(); err != nil {
			logger.Debug().Err(err).Msg("Error closing transport.")
		}
	}()
	logger.Debug().Str("addr", cfg.Addr()).Bool("implicit_tls", cfg.ImplicitTLS()).Msg("Transport connected")

	if err := transport.Verify(ctx); err != nil {
		return notifier.DispatchResult{}, fmt.Errorf("%w: verify %s: %v", notifier.ErrTransport, cfg.Addr(), err)
	}
	logger.Debug().Msg("Transport verified")

	// sending
	msg := NewMessage(from, to, rendered)
	if err := transport.Send(ctx, msg); err != nil {
		return notifier.DispatchResult{}, fmt.Errorf("%w: %v", notifier.ErrSend, err)
	}

	return notifier.DispatchResult{
		Success:   true,
		Message:   SuccessMessage,
		Recipient: recipient.Email,
		EmailID:   msg.ID,
	}, nil
}
