package indexedcache

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// StringSerializer serializes strings as raw UTF-8 bytes.
type StringSerializer struct{}

var _ Serializer[string] = StringSerializer{}

// Serialize implements Serializer.
func (StringSerializer) Serialize(v string) ([]byte, error) { return []byte(v), nil }

// Deserialize implements Serializer.
func (StringSerializer) Deserialize(b []byte) (string, error) { return string(b), nil }

// Int64Serializer serializes int64 values as fixed-width big-endian bytes.
type Int64Serializer struct{}

var _ Serializer[int64] = Int64Serializer{}

// Serialize implements Serializer.
func (Int64Serializer) Serialize(v int64) ([]byte, error) {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
	return b, nil
}

// Deserialize implements Serializer.
func (Int64Serializer) Deserialize(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("indexedcache: int64 serializer expects 8 bytes, got %d", len(b))
	}
	var v int64
	for i := 0; i < 8; i++ {
		v = v<<8 | int64(b[i])
	}
	return v, nil
}

// GobSerializer is a generic fallback Serializer for any gob-encodable type.
// It is used whenever the caller has not supplied a more specific
// Serializer for their key or value type.
type GobSerializer[T any] struct{}

var _ Serializer[struct{}] = GobSerializer[struct{}]{}

// Serialize implements Serializer.
func (GobSerializer[T]) Serialize(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("indexedcache: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize implements Serializer.
func (GobSerializer[T]) Deserialize(b []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return v, fmt.Errorf("indexedcache: gob decode: %w", err)
	}
	return v, nil
}
