package notifier

import (
	"fmt"
	"net"
	"strconv"
)

// Source identifies how a trigger reached the notifier.
type Source int

// Trigger sources.
const (
	DatabaseEvent Source = iota + 1 // document-create event, body is an already decoded document
	HTTPBody                        // raw HTTP request body, any shape
	DirectObject                    // in-process caller handing over a decoded object
)

var sourceNames = map[Source]string{
	DatabaseEvent: "database_event",
	HTTPBody:      "http_body",
	DirectObject:  "direct_object",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if _, ok := sourceNames[s]; !ok {
		return nil, fmt.Errorf("unknown source %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	for source, name := range sourceNames {
		if name == string(text) {
			*s = source
			return nil
		}
	}
	return fmt.Errorf("unknown source %q", string(text))
}

// TriggerEnvelope represents one inbound invocation, as handed over by the trigger.
// It is never mutated once built.
type TriggerEnvelope struct {
	Source    Source            `json:"source"`
	RawBody   interface{}       `json:"body,omitempty"`      // nil, string, []byte or map[string]interface{}
	EventName string            `json:"event,omitempty"`     // e.g. databases.main.collections.users.documents.abc.create
	Headers   map[string]string `json:"headers,omitempty"`   // request headers, lower-cased keys
	Variables map[string]string `json:"variables,omitempty"` // configuration overrides supplied by the trigger
}

// RecipientInfo is the canonical identity extracted from a trigger payload.
type RecipientInfo struct {
	FirstName      string `json:"first_name"`
	Email          string `json:"email"`
	GraduationYear string `json:"graduation_year,omitempty"`
	Country        string `json:"country,omitempty"`
}

// DeliveryConfig holds the SMTP settings for one invocation.
type DeliveryConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

// Addr returns the host:port pair to dial.
func (c DeliveryConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ImplicitTLS reports whether the connection must start with TLS instead of upgrading.
func (c DeliveryConfig) ImplicitTLS() bool {
	return c.Port == ImplicitTLSPort
}

// EventFilter limits database events to one database and/or collection.
// Empty fields match anything.
type EventFilter struct {
	DatabaseID   string
	CollectionID string
}

// Active reports whether the filter constrains anything.
func (f EventFilter) Active() bool {
	return f.DatabaseID != "" || f.CollectionID != ""
}

// DispatchResult is the terminal outcome of an invocation.
type DispatchResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	EmailID   string `json:"emailId,omitempty"`
	Error     string `json:"error,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// Failure builds an unsuccessful DispatchResult from err.
func Failure(err error) DispatchResult {
	return DispatchResult{Success: false, Error: err.Error()}
}
