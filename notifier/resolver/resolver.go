// Package resolver turns inbound trigger payloads of any shape into a RecipientInfo.
//
// Resolution has no side effects and keeps no state, so the same envelope always
// resolves to the same recipient.
package resolver

import (
	"fmt"
	"strings"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// Outcome is the result of resolving one envelope.
type Outcome struct {
	Recipient notifier.RecipientInfo
	Skipped   bool   // the event is outside the configured filter, nothing else should run
	Reason    string // why the event was skipped
}

// Resolve normalizes envelope into a recipient. Database events that do not match
// filter are reported as skipped rather than failed.
func Resolve(envelope notifier.TriggerEnvelope, filter notifier.EventFilter) (Outcome, error) {
	var (
		object map[string]interface{}
		err    error
	)

	switch envelope.Source {
	case notifier.DatabaseEvent:
		object, err = documentObject(envelope.RawBody)
		if err != nil {
			return Outcome{}, err
		}
		if reason, skip := outsideFilter(object, envelope.EventName, filter); skip {
			return Outcome{Skipped: true, Reason: reason}, nil
		}
	case notifier.HTTPBody:
		object, err = bodyObject(envelope.RawBody)
		if err != nil {
			return Outcome{}, err
		}
	case notifier.DirectObject:
		var ok bool
		if object, ok = asObject(envelope.RawBody); !ok {
			return Outcome{}, notifier.ErrNoData
		}
	default:
		return Outcome{}, fmt.Errorf("%w: unsupported trigger source %s", notifier.ErrNoData, envelope.Source)
	}

	recipient, err := Extract(object)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Recipient: recipient}, nil
}

// documentObject accepts the decoded document snapshot of a database event.
func documentObject(raw interface{}) (map[string]interface{}, error) {
	if object, ok := asObject(raw); ok {
		return object, nil
	}
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return nil, notifier.ErrNoData
	}
	if object, ok := strictObject(text); ok {
		return object, nil
	}
	return nil, fmt.Errorf("%w: database event body is not a document", notifier.ErrNoData)
}

// outsideFilter reports whether a database document belongs to another database or
// collection than the one this notifier is deployed for.
func outsideFilter(document map[string]interface{}, eventName string, filter notifier.EventFilter) (string, bool) {
	if !filter.Active() {
		return "", false
	}

	databaseID := firstString(document, "$databaseId", "databaseId")
	collectionID := firstString(document, "$collectionId", "collectionId")
	eventDatabaseID, eventCollectionID := eventScope(eventName)
	if databaseID == "" {
		databaseID = eventDatabaseID
	}
	if collectionID == "" {
		collectionID = eventCollectionID
	}

	if filter.DatabaseID != "" && databaseID != "" && databaseID != filter.DatabaseID {
		return fmt.Sprintf("database %s does not match %s", databaseID, filter.DatabaseID), true
	}
	if filter.CollectionID != "" && collectionID != "" && collectionID != filter.CollectionID {
		return fmt.Sprintf("collection %s does not match %s", collectionID, filter.CollectionID), true
	}
	return "", false
}

// eventScope pulls the database and collection identifiers out of an event name such
// as databases.main.collections.users.documents.abc.create.
func eventScope(eventName string) (databaseID, collectionID string) {
	parts := strings.Split(eventName, ".")
	for i := 0; i+1 < len(parts); i++ {
		switch parts[i] {
		case "databases":
			databaseID = parts[i+1]
		case "collections":
			collectionID = parts[i+1]
		}
	}
	return databaseID, collectionID
}
