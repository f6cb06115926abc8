// Package feed streams simulation snapshots to presentation clients over
// websockets.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Format is a snapshot wire encoding, chosen per client.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatProto   Format = "proto"
)

// ParseFormat maps a ?format= query value to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	case FormatProto:
		return FormatProto, nil
	default:
		return "", fmt.Errorf("unknown feed format %q", s)
	}
}

// MessageType returns the websocket frame type used for f.
func (f Format) MessageType() int {
	if f == FormatJSON {
		return websocket.TextMessage
	}
	return websocket.BinaryMessage
}

// Encode serializes v in the given format.
//
// Proto frames carry a google.protobuf.Struct built from the JSON form of v,
// so field names match the JSON feed.
func Encode(f Format, v any) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.Marshal(v)
	case FormatMsgpack:
		return msgpack.Marshal(v)
	case FormatProto:
		s, err := toStruct(v)
		if err != nil {
			return nil, err
		}
		return proto.Marshal(s)
	default:
		return nil, fmt.Errorf("unknown feed format %q", f)
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("snapshot is not an object: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("building struct: %w", err)
	}
	return s, nil
}
