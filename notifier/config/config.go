// Package config assembles the SMTP delivery settings of one invocation from the
// process environment and the variables supplied by the trigger.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"dario.cat/mergo"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// Lookup reads one configuration variable, like os.LookupEnv.
type Lookup func(key string) (string, bool)

// Environment reads the process environment.
var Environment Lookup = os.LookupEnv

// Variable names, in order of preference.
var (
	HostKeys         = []string{"SMTP_HOST"}
	PortKeys         = []string{"SMTP_PORT"}
	UsernameKeys     = []string{"SMTP_USERNAME", "SMTP_USER"}
	PasswordKeys     = []string{"SMTP_PASSWORD", "SMTP_PASS"}
	FromKeys         = []string{"FROM_EMAIL", "SENDER_EMAIL"}
	DatabaseIDKeys   = []string{"DATABASE_ID"}
	CollectionIDKeys = []string{"COLLECTION_ID"}
)

// settings is the raw, string typed view of the delivery variables.
type settings struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func read(lookup Lookup) settings {
	return settings{
		Host:     first(lookup, HostKeys),
		Port:     first(lookup, PortKeys),
		Username: first(lookup, UsernameKeys),
		Password: first(lookup, PasswordKeys),
		From:     first(lookup, FromKeys),
	}
}

// Load builds the DeliveryConfig from lookup, with non-empty overrides taking
// precedence. It fails with notifier.ErrMissingConfig when the host or credentials
// are missing, before anything touches the network.
func Load(lookup Lookup, overrides map[string]string) (notifier.DeliveryConfig, error) {
	merged := read(lookup)
	if err := mergo.Merge(&merged, read(mapLookup(overrides)), mergo.WithOverride); err != nil {
		return notifier.DeliveryConfig{}, fmt.Errorf("%w: %v", notifier.ErrInvalidConfig, err)
	}

	var missing []string
	if merged.Host == "" {
		missing = append(missing, HostKeys[0])
	}
	if merged.Username == "" {
		missing = append(missing, UsernameKeys[0])
	}
	if merged.Password == "" {
		missing = append(missing, PasswordKeys[0])
	}
	if len(missing) > 0 {
		return notifier.DeliveryConfig{}, fmt.Errorf("%w: missing %s", notifier.ErrMissingConfig, strings.Join(missing, ", "))
	}

	port := notifier.DefaultSMTPPort
	if merged.Port != "" {
		parsed, err := strconv.Atoi(merged.Port)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return notifier.DeliveryConfig{}, fmt.Errorf("%w: SMTP_PORT %q is not a port number", notifier.ErrInvalidConfig, merged.Port)
		}
		port = parsed
	}

	from := merged.From
	if from == "" {
		from = notifier.DefaultFromAddress
	}

	return notifier.DeliveryConfig{
		Host:        merged.Host,
		Port:        port,
		Username:    merged.Username,
		Password:    merged.Password,
		FromAddress: from,
	}, nil
}

// LoadEventFilter reads the expected database and collection of database events.
func LoadEventFilter(lookup Lookup, overrides map[string]string) (notifier.EventFilter, error) {
	filter := notifier.EventFilter{
		DatabaseID:   first(lookup, DatabaseIDKeys),
		CollectionID: first(lookup, CollectionIDKeys),
	}
	err := mergo.Merge(&filter, notifier.EventFilter{
		DatabaseID:   first(mapLookup(overrides), DatabaseIDKeys),
		CollectionID: first(mapLookup(overrides), CollectionIDKeys),
	}, mergo.WithOverride)
	if err != nil {
		return notifier.EventFilter{}, fmt.Errorf("%w: %v", notifier.ErrInvalidConfig, err)
	}
	return filter, nil
}

func first(lookup Lookup, keys []string) string {
	if lookup == nil {
		return ""
	}
	for _, key := range keys {
		if value, ok := lookup(key); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

func mapLookup(values map[string]string) Lookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
