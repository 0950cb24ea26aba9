package resolver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

var (
	bareKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][\w$-]*)\s*:`)
	bareValue = regexp.MustCompile(`(:\s*)([^\s"{}\[\],][^"{}\[\],]*?)(\s*[,}])`)
)

// stray characters left around keys and values by sloppy clients
const strayCutset = " \t\r\n\"'{}"

// bodyObject resolves an HTTP body. Strings are tried, in order, as strict JSON,
// JSON with bare keys and values, comma separated key:value pairs and finally a
// URL query string. Anything else is rejected.
func bodyObject(raw interface{}) (map[string]interface{}, error) {
	if object, ok := asObject(raw); ok {
		return object, nil
	}
	switch v := raw.(type) {
	case string:
		return parseBody(v)
	case []byte:
		return parseBody(string(v))
	case nil:
		return nil, notifier.ErrNoData
	default:
		return nil, fmt.Errorf("%w: unsupported body type %T", notifier.ErrNoData, raw)
	}
}

func parseBody(body string) (map[string]interface{}, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, notifier.ErrNoData
	}

	if object, ok := strictObject(body); ok {
		return object, nil
	}

	hasBraces := strings.ContainsAny(body, "{}")
	if hasBraces {
		if object, ok := strictObject(quoteBareTokens(body)); ok {
			return cleanObject(object), nil
		}
	}

	if hasBraces || (strings.Contains(body, ":") && !queryLike(body)) {
		if object := splitPairs(body); len(object) > 0 {
			return object, nil
		}
		return nil, fmt.Errorf("%w: unreadable body", notifier.ErrNoData)
	}

	if object := queryObject(body); len(object) > 0 {
		return object, nil
	}
	return nil, fmt.Errorf("%w: unrecognised body", notifier.ErrNoData)
}

// strictObject decodes body as a JSON object. A JSON string wrapping an object is
// unwrapped once.
func strictObject(body string) (map[string]interface{}, bool) {
	if !json.Valid([]byte(body)) {
		return nil, false
	}
	var value interface{}
	if err := notifier.Unmarshal([]byte(body), &value); err != nil {
		return nil, false
	}
	switch v := value.(type) {
	case map[string]interface{}:
		return v, true
	case string:
		var inner map[string]interface{}
		if err := notifier.Unmarshal([]byte(v), &inner); err != nil || inner == nil {
			return nil, false
		}
		return inner, true
	}
	return nil, false
}

func quoteBareTokens(body string) string {
	repaired := bareKey.ReplaceAllString(body, `$1"$2":`)
	return bareValue.ReplaceAllString(repaired, `$1"$2"$3`)
}

// cleanObject strips stray quotes from top level keys and string values.
func cleanObject(object map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(object))
	for key, value := range object {
		if s, ok := value.(string); ok {
			value = strings.Trim(s, strayCutset)
		}
		cleaned[strings.Trim(key, strayCutset)] = value
	}
	return cleaned
}

// splitPairs reads a body such as `{first_name: "Ana", 'email': ana@x.com}`.
func splitPairs(body string) map[string]interface{} {
	object := make(map[string]interface{})
	for _, part := range strings.Split(strings.Trim(body, strayCutset), ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.Trim(key, strayCutset)
		if key == "" {
			continue
		}
		object[key] = strings.Trim(value, strayCutset)
	}
	return object
}

// queryLike reports whether body starts with a key=value pair, so colons further
// along belong to values such as URLs or times.
func queryLike(body string) bool {
	before, _, _ := strings.Cut(body, ":")
	return strings.Contains(before, "=")
}

// queryObject reads a URL encoded body. A body without any key=value pair is not a
// query string.
func queryObject(body string) map[string]interface{} {
	if !strings.Contains(body, "=") {
		return nil
	}
	// ParseQuery keeps every well formed pair even when it reports an error.
	values, _ := url.ParseQuery(body)
	object := make(map[string]interface{}, len(values))
	for key, list := range values {
		if key == "" || len(list) == 0 {
			continue
		}
		object[key] = list[0]
	}
	return object
}

// asObject reports whether v is a decoded JSON object.
func asObject(v interface{}) (map[string]interface{}, bool) {
	switch object := v.(type) {
	case map[string]interface{}:
		return object, object != nil
	case map[string]string:
		if object == nil {
			return nil, false
		}
		converted := make(map[string]interface{}, len(object))
		for key, value := range object {
			converted[key] = value
		}
		return converted, true
	case json.RawMessage:
		decoded, ok := strictObject(string(bytes.TrimSpace(object)))
		return decoded, ok
	}
	return nil, false
}
