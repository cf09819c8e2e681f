package storetest

import (
	"reflect"
	"testing"

	"github.com/lucmq/go-baselet/baselet"
)

// Codec is an interface for encoding and decoding. It is an alias for the
// baselet.Codec interface.
type Codec = baselet.Codec

// TestStruct is used to test the codec with a struct that contains different
// types.
type TestStruct struct {
	U64 uint64
	S   string
	F64 float64
	I   int
	B   bool
}

// MakeTestStruct creates a new TestStruct.
func MakeTestStruct() TestStruct {
	return TestStruct{
		U64: 1,
		S:   "test",
		F64: 1.0,
		I:   1,
		B:   true,
	}
}

// TestCodec checks that a codec round-trips the bucket shapes used by the
// bases, and that it reports the expected file extension.
func TestCodec(t *testing.T, codec Codec, extension string) {
	t.Run("Extension", func(t *testing.T) {
		e, ok := codec.(baselet.Extensioner)
		if !ok {
			t.Fatalf("Expected %T to implement baselet.Extensioner", codec)
		}
		if e.Extension() != extension {
			t.Errorf("Expected %s, but got %s", extension, e.Extension())
		}
	})

	t.Run("Struct", func(t *testing.T) {
		in := MakeTestStruct()
		var out TestStruct
		roundTrip(t, codec, in, &out)
		if !reflect.DeepEqual(in, out) {
			t.Errorf("Expected %v, but got %v", in, out)
		}
	})

	t.Run("Count bucket", func(t *testing.T) {
		in := []TestStruct{MakeTestStruct(), {S: "second"}}
		var out []TestStruct
		roundTrip(t, codec, in, &out)
		if !reflect.DeepEqual(in, out) {
			t.Errorf("Expected %v, but got %v", in, out)
		}
	})

	t.Run("Hash bucket", func(t *testing.T) {
		in := map[string]float64{"abc1": 1.5, "abc2": -3}
		var out map[string]float64
		roundTrip(t, codec, in, &out)
		if !reflect.DeepEqual(in, out) {
			t.Errorf("Expected %v, but got %v", in, out)
		}
	})

	t.Run("Invalid data", func(t *testing.T) {
		var out []TestStruct
		if err := codec.Decode([]byte{0xff, 0x00, 0x01}, &out); err == nil {
			t.Errorf("Expected an error, but got nil")
		}
	})
}

func roundTrip(t *testing.T, codec Codec, in, out any) {
	t.Helper()
	data, err := codec.Encode(in)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if err = codec.Decode(data, out); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
}
