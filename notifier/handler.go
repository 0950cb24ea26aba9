package notifier

import "context"

// Handler processes one trigger and reports its result with the matching HTTP status.
type Handler interface {
	Handle(ctx context.Context, envelope TriggerEnvelope) (DispatchResult, int)
}
