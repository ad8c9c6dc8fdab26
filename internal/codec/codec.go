// Package codec serializes cache entries for tiers that store bytes.
package codec

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-tiered-cache/cache"
)

// wireEntry is the msgpack layout of a cache.Entry. Times are unix nanos.
type wireEntry[V any] struct {
	Value          V     `msgpack:"v"`
	HasMeta        bool  `msgpack:"m"`
	CreatedAt      int64 `msgpack:"c,omitempty"`
	TTL            int64 `msgpack:"t,omitempty"`
	LastAccessedAt int64 `msgpack:"a,omitempty"`
}

// Encode serializes entry, metadata included.
func Encode[V any](entry *cache.Entry[V]) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("codec: nil entry")
	}

	w := wireEntry[V]{Value: entry.Value}
	if m := entry.Metadata; m != nil {
		w.HasMeta = true
		w.CreatedAt = m.CreatedAt.UnixNano()
		w.TTL = int64(m.TTL)
		w.LastAccessedAt = m.LastAccessedAt().UnixNano()
	}

	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("codec: encode entry: %w", err)
	}
	return data, nil
}

// Decode restores an entry written by Encode.
func Decode[V any](data []byte) (*cache.Entry[V], error) {
	var w wireEntry[V]
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("codec: decode entry: %w", err)
	}

	entry := &cache.Entry[V]{Value: w.Value}
	if w.HasMeta {
		entry.Metadata = cache.NewMetadata(time.Unix(0, w.CreatedAt), time.Duration(w.TTL))
		entry.Metadata.Touch(time.Unix(0, w.LastAccessedAt))
	}
	return entry, nil
}

// EncodeValue serializes a bare value. Used by tiers that keep metadata in
// separate columns.
func EncodeValue[V any](value V) ([]byte, error) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: encode value: %w", err)
	}
	return data, nil
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue[V any](data []byte) (V, error) {
	var value V
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("codec: decode value: %w", err)
	}
	return value, nil
}
