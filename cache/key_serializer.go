package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// KeySerializer builds a cache key from a namespace and arbitrary args.
// Implementations must produce the same key for equal args.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// KeyFromParams returns a KeyFunc that serializes params under namespace and
// ignores the fetched result.
func KeyFromParams[P, V any](serializer KeySerializer, namespace string) KeyFunc[P, V] {
	return func(params P, _ *V) string {
		return serializer.SerializeKey(namespace, params)
	}
}

// reflectKeySerializer walks args with reflection. Maps are emitted with
// sorted keys and structs with exported fields only, so equal values always
// give equal keys within a process. Function and channel values are keyed
// by pointer and are therefore only stable for the lifetime of the process.
type reflectKeySerializer struct{}

// NewDefaultKeySerializer creates the reflection based key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return reflectKeySerializer{}
}

// SerializeKey implements KeySerializer.
func (s reflectKeySerializer) SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}

	var b strings.Builder
	b.WriteString(namespace)
	for _, arg := range args {
		b.WriteString(KeySeparator)
		s.write(&b, reflect.ValueOf(arg))
	}
	return b.String()
}

func (s reflectKeySerializer) write(b *strings.Builder, v reflect.Value) {
	if !v.IsValid() {
		b.WriteString("nil")
		return
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			b.WriteString("nil")
			return
		}
		s.write(b, v.Elem())

	case reflect.Func:
		fmt.Fprintf(b, "func:%#x", v.Pointer())

	case reflect.Chan:
		fmt.Fprintf(b, "chan:%#x", v.Pointer())

	case reflect.Slice:
		if v.IsNil() {
			b.WriteString("slice:nil")
			return
		}
		s.writeSeq(b, "slice", v)

	case reflect.Array:
		s.writeSeq(b, "array", v)

	case reflect.Map:
		if v.IsNil() {
			b.WriteString("map:nil")
			return
		}
		s.writeMap(b, v)

	case reflect.Struct:
		s.writeStruct(b, v)

	case reflect.String:
		b.WriteString(v.String())

	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits()))

	case reflect.Complex64, reflect.Complex128:
		fmt.Fprintf(b, "%v", v.Complex())

	default:
		s.writeJSON(b, v)
	}
}

func (s reflectKeySerializer) writeSeq(b *strings.Builder, kind string, v reflect.Value) {
	n := v.Len()
	fmt.Fprintf(b, "%s[%d]:{", kind, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		s.write(b, v.Index(i))
	}
	b.WriteByte('}')
}

func (s reflectKeySerializer) writeMap(b *strings.Builder, v reflect.Value) {
	pairs := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		var pair strings.Builder
		s.write(&pair, iter.Key())
		pair.WriteByte('=')
		s.write(&pair, iter.Value())
		pairs = append(pairs, pair.String())
	}
	sort.Strings(pairs)

	fmt.Fprintf(b, "map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s reflectKeySerializer) writeStruct(b *strings.Builder, v reflect.Value) {
	t := v.Type()
	b.WriteString("struct:{")
	first := true
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(field.Name)
		b.WriteByte(':')
		s.write(b, v.Field(i))
	}
	b.WriteByte('}')
}

func (s reflectKeySerializer) writeJSON(b *strings.Builder, v reflect.Value) {
	if v.CanInterface() {
		if data, err := json.Marshal(v.Interface()); err == nil {
			b.WriteString("json:")
			b.Write(data)
			return
		}
	}
	b.WriteString("fallback:")
	b.WriteString(v.Type().String())
}

// hashedKeySerializer bounds key length for stores that reject long keys.
type hashedKeySerializer struct {
	inner  KeySerializer
	maxLen int
}

// NewHashedKeySerializer wraps inner so keys longer than maxLen are replaced
// by the namespace followed by the xxhash of the full key.
func NewHashedKeySerializer(inner KeySerializer, maxLen int) KeySerializer {
	if inner == nil {
		inner = NewDefaultKeySerializer()
	}
	return &hashedKeySerializer{inner: inner, maxLen: maxLen}
}

// SerializeKey implements KeySerializer.
func (h *hashedKeySerializer) SerializeKey(namespace string, args ...any) string {
	key := h.inner.SerializeKey(namespace, args...)
	if h.maxLen <= 0 || len(key) <= h.maxLen {
		return key
	}
	return namespace + KeySeparator + "h:" + strconv.FormatUint(xxhash.Sum64String(key), 16)
}
