package notifier

import "time"

// Exchange describes the RabbitMQ exchange name.
const Exchange = "openstart"

// Message broker queue names.
const (
	EventsQueue = Exchange + ".events"
)

// Routing key prefixes.
const (
	EventRoutingKey       = "database"
	ResultRoutingKey      = "result"
	RPCRoutingKey         = "rpc"
	RPCResponseRoutingKey = RPCRoutingKey + ".response"
)

// RPC call names.
const (
	WelcomeCall = "welcome"
)

// DefaultRPCTimeout represents the default RPC timeout.
const DefaultRPCTimeout = 30 * time.Second

// Delivery defaults.
const (
	DefaultSMTPPort    = 587
	ImplicitTLSPort    = 465
	DefaultFromAddress = "OpenStart <noreply@openstart.com>"
	DefaultFirstName   = "there"
)
