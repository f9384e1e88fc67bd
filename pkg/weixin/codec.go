package weixin

import jsoniter "github.com/json-iterator/go"

// Codec serializes request bodies and decodes response bodies.
// Field names come from the snake_case struct tags on the request and response types;
// a Codec must honour omitempty and ignore unknown fields on decode.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsoniterCodec struct {
	api jsoniter.API
}

// DefaultCodec returns the json-iterator backed codec used when New receives a nil Codec.
func DefaultCodec() Codec {
	return jsoniterCodec{api: jsoniter.ConfigCompatibleWithStandardLibrary}
}

func (c jsoniterCodec) Marshal(v any) ([]byte, error)      { return c.api.Marshal(v) }
func (c jsoniterCodec) Unmarshal(data []byte, v any) error { return c.api.Unmarshal(data, v) }
