package management

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
	"github.com/rakeshkumar9142/OpenStart-sub000/rpc"
)

// Server represents the management server. It answers welcome RPC calls.
type Server struct {
	Logger     zerolog.Logger
	Connection *amqp.Connection
	Handler    notifier.Handler

	rpc *rpc.Server
}

func (server *Server) getLogger(module string) zerolog.Logger {
	return server.Logger.With().Str("module", module).Logger()
}

// Handlers returns the RPC handlers served by the management server.
func (server *Server) Handlers() map[string]rpc.HandlerFunc {
	return map[string]rpc.HandlerFunc{
		notifier.WelcomeCall: server.welcomeHandler,
	}
}

// Run runs the Server until ctx is done or the broker connection is lost.
func (server *Server) Run(ctx context.Context) error {
	logger := server.getLogger("runner")

	handlers := server.Handlers()
	logger.Debug().Msgf("%d handlers registered", len(handlers))

	server.rpc = &rpc.Server{
		Logger:   server.Logger,
		Handlers: handlers,

		Connection: server.Connection,
		Exchange:   notifier.Exchange,
		RoutingKey: notifier.RPCRoutingKey,
	}
	if err := server.rpc.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("Management server started")

	closed := server.Connection.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-closed:
		if !ok || err == nil {
			return errors.New("broker connection closed")
		}
		return err
	}
}
