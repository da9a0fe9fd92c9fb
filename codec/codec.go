// Package codec defines the message codec boundary for rpcmock.
//
// The toolkit never interprets message payloads itself; every place that
// turns a typed message into wire bytes (or back) goes through a Codec.
// CBOR is the default because it handles arbitrary Go structs without
// generated code; Proto is provided for generated protobuf types.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"
)

// Codec serializes and deserializes messages carried in mock frames.
type Codec interface {
	// Name identifies the codec in error messages.
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Default is the codec used when a component is not configured with one.
var Default Codec = CBOR{}

// CBOR encodes messages with CBOR. Works with any Go value.
type CBOR struct{}

func (CBOR) Name() string { return "cbor" }

func (CBOR) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (CBOR) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// JSON encodes messages with JSON. Useful together with schema-based
// request predicates, where the request needs a JSON form anyway.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Proto encodes messages with protobuf. Values must implement
// proto.Message; anything else is a marshal/unmarshal error.
type Proto struct{}

func (Proto) Name() string { return "proto" }

func (Proto) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("proto codec: %T does not implement proto.Message", v)
	}
	return proto.Marshal(m)
}

// Unmarshal accepts either a proto.Message or a pointer to one (the form
// produced by generic decode helpers, where the target is *T with
// T = *SomeMessage). A nil inner pointer is allocated before decoding.
func (Proto) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		elem := rv.Elem()
		if elem.Kind() == reflect.Ptr {
			if elem.IsNil() {
				elem.Set(reflect.New(elem.Type().Elem()))
			}
			if m, ok := elem.Interface().(proto.Message); ok {
				return proto.Unmarshal(data, m)
			}
		}
	}
	return fmt.Errorf("proto codec: %T does not implement proto.Message", v)
}
