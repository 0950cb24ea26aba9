package notifier

import (
	"bytes"
	"encoding/json"
)

// Marshal encodes v for the message broker.
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes broker data into v. Numbers are kept as json.Number so that
// identifiers and years survive untouched.
func Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
