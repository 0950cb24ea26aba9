package management

import (
	"context"
	"fmt"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// Response is the body answered to a welcome RPC call.
type Response struct {
	Status int `json:"status"`
	notifier.DispatchResult
}

func (server *Server) welcomeHandler(ctx context.Context, data []byte) []byte {
	logger := server.getLogger("handler.welcome")
	logger.Debug().Bytes("data", data).Msg("Received welcome request.")

	var response Response
	var envelope notifier.TriggerEnvelope
	if err := notifier.Unmarshal(data, &envelope); err != nil {
		err = fmt.Errorf("%w: %v", notifier.ErrNoData, err)
		logger.Err(err).Msg("Error deserializing trigger.")
		response = Response{Status: notifier.StatusCode(err), DispatchResult: notifier.Failure(err)}
	} else {
		result, status := server.Handler.Handle(ctx, envelope)
		response = Response{Status: status, DispatchResult: result}
	}

	data, err := notifier.Marshal(response)
	if err != nil {
		logger.Err(err).Msg("Error serializing response.")
		return []byte(`{"status":500,"success":false,"error":"internal error"}`)
	}
	logger.Debug().Bytes("data", data).Msg("Answered welcome request.")
	return data
}
