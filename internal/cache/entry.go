package cache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// entry is the serialized form of a cached value. Timestamps are
// milliseconds since the Unix epoch.
type entry[T any] struct {
	Data      T     `json:"data" msgpack:"data"`
	CreatedAt int64 `json:"createdAt" msgpack:"createdAt"`
	ExpiresAt int64 `json:"expiresAt" msgpack:"expiresAt"`
}

// entryHeader decodes only the timestamps of an entry
type entryHeader struct {
	CreatedAt int64 `json:"createdAt" msgpack:"createdAt"`
	ExpiresAt int64 `json:"expiresAt" msgpack:"expiresAt"`
}

func (h entryHeader) freshAt(nowMs int64) bool {
	return nowMs <= h.ExpiresAt
}

func (h entryHeader) remaining(nowMs int64) time.Duration {
	left := h.ExpiresAt - nowMs
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Millisecond
}

// Codec turns entries into the text stored in the substrate
type Codec interface {
	Name() string
	Encode(v any) (string, error)
	Decode(data string, v any) error
}

// JSONCodec stores entries as plain JSON
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec) Decode(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}

// MsgpackCodec stores entries as base64-wrapped msgpack, keeping the
// substrate text-safe while shrinking large payloads
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (MsgpackCodec) Decode(data string, v any) error {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("msgpack codec: %w", err)
	}
	return msgpack.Unmarshal(b, v)
}

// CodecByName resolves a configured codec name
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown cache codec %q", name)
	}
}
