// Package codec holds the msgpack encoding shared by the cart, exports and
// the API. Field names follow the json tags so both encodings agree.
package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// ContentType is the media type of msgpack responses and export files.
const ContentType = "application/msgpack"

// Marshal encodes v as msgpack using json tag names.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes msgpack produced by Marshal into v.
func Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
