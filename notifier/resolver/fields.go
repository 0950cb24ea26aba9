package resolver

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// Extract reads the recipient fields out of a resolved payload object.
func Extract(object map[string]interface{}) (notifier.RecipientInfo, error) {
	user, _ := asObject(object["user"])
	account, _ := asObject(object["account"])

	email := firstString(object, "email")
	if email == "" {
		email = firstString(user, "email")
	}
	if email == "" {
		email = firstString(account, "email")
	}
	if email == "" {
		return notifier.RecipientInfo{}, notifier.ErrMissingEmail
	}

	firstName := firstString(object, "first_name", "firstName")
	if firstName == "" {
		name := firstString(object, "name")
		if name == "" {
			name = firstString(user, "name", "firstName")
		}
		firstName = firstToken(name)
	}
	if firstName == "" {
		firstName = notifier.DefaultFirstName
	}

	return notifier.RecipientInfo{
		FirstName:      firstName,
		Email:          email,
		GraduationYear: firstString(object, "graduation_year", "graduationYear"),
		Country:        firstString(object, "country"),
	}, nil
}

// firstString returns the first non-empty scalar found under keys.
func firstString(object map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value := scalar(object[key]); value != "" {
			return value
		}
	}
	return ""
}

func scalar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
