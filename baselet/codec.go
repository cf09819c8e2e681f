package baselet

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/goccy/go-json"
)

// Codec is the interface for encoding and decoding the buckets stored by the
// bases.
//
// The baselet package natively supports the following codecs:
//   - [JSONCodec]: Returns a Codec for the JSON format. This is the default.
//   - [GobCodec]: Returns a Codec for the [gob] format.
//
// Additional codecs are provided by the packages in driver/encoding.
//
// Database descriptors are always stored as JSON, regardless of the Codec.
type Codec interface {
	// Encode returns the Codec encoding of v as a byte slice.
	Encode(v any) ([]byte, error)

	// Decode parses the encoded data and stores the result in the value
	// pointed to by v. It is the inverse of Encode.
	Decode(data []byte, v any) error
}

// Extensioner is implemented by codecs that want their buckets stored with
// a file extension other than "json".
type Extensioner interface {
	Extension() string
}

// JSONCodec Returns a Codec for the JSON format.
func JSONCodec() Codec { return jsonCodec{} }

// GobCodec Returns a Codec for the [gob] format, a self-describing
// serialization format native to Go.
//
// Gob is a binary format and is more compact than text-based formats like
// JSON, but it cannot encode nil pointers inside slices or maps.
func GobCodec() Codec { return gobCodec{} }

// Json Codec

type jsonCodec struct{}

func (jsonCodec) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonCodec) Decode(data []byte, value any) error {
	return json.Unmarshal(data, value)
}

func (jsonCodec) Extension() string { return "json" }

// Gob Codec

type gobCodec struct{}

func (gobCodec) Encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	err := enc.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode gob: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Decode(data []byte, value any) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	err := dec.Decode(value)
	if err != nil {
		return fmt.Errorf("decode gob: %w", err)
	}
	return nil
}

func (gobCodec) Extension() string { return "gob" }

func codecExtension(c Codec) string {
	if e, ok := c.(Extensioner); ok && e.Extension() != "" {
		return e.Extension()
	}
	return "json"
}
