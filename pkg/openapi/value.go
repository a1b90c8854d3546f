// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openapi

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"math/bits"
	"sort"
	"strconv"

	"github.com/tombee/apiwire/pkg/errors"
)

// ValueKind discriminates the variants of a parameter Value.
type ValueKind int

const (
	// KindAbsent marks a value the provider could not supply.
	KindAbsent ValueKind = iota
	// KindScalar is a single int, uint, float, or string.
	KindScalar
	// KindBinary is an opaque byte blob.
	KindBinary
	// KindArray is an ordered list of scalar or binary elements.
	KindArray
	// KindObject is a field-name to scalar mapping, ordered by name.
	KindObject
)

type scalarKind int

const (
	scalarString scalarKind = iota
	scalarInt
	scalarUint
	scalarFloat
)

// Value is the typed result of resolving a parameter field. Only scalar
// and binary leaves are directly encodable; arrays hold scalar or
// binary elements, objects hold scalar fields. Anything deeper must be
// serialized to binary by the value provider before it reaches the
// encoder.
type Value struct {
	kind ValueKind

	sk scalarKind
	i  int64
	u  uint64
	f  float64
	s  string

	blob   []byte
	items  []Value
	fields []ObjectField
}

// ObjectField is one named scalar inside an object value.
type ObjectField struct {
	Name  string
	Value Value
}

// Absent returns the unresolved value.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// StringValue wraps a string scalar.
func StringValue(s string) Value {
	return Value{kind: KindScalar, sk: scalarString, s: s}
}

// IntValue wraps a signed integer scalar.
func IntValue(i int64) Value {
	return Value{kind: KindScalar, sk: scalarInt, i: i}
}

// UintValue wraps an unsigned integer scalar.
func UintValue(u uint64) Value {
	return Value{kind: KindScalar, sk: scalarUint, u: u}
}

// FloatValue wraps a floating-point scalar.
func FloatValue(f float64) Value {
	return Value{kind: KindScalar, sk: scalarFloat, f: f}
}

// BinaryValue wraps an opaque byte blob.
func BinaryValue(b []byte) Value {
	return Value{kind: KindBinary, blob: b}
}

// ArrayValue wraps an ordered list of scalar or binary elements.
func ArrayValue(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

// ObjectValue wraps a field-name to scalar mapping. Fields are
// normalized to name order so encoding is deterministic regardless of
// map iteration.
func ObjectValue(fields map[string]Value) Value {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make([]ObjectField, 0, len(names))
	for _, name := range names {
		ordered = append(ordered, ObjectField{Name: name, Value: fields[name]})
	}
	return Value{kind: KindObject, fields: ordered}
}

// Kind returns the variant of the value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsAbsent reports whether the provider could not supply the value.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// Bytes returns the payload of a binary value, or the UTF-8 bytes of a
// string scalar. Used for body placement.
func (v Value) Bytes() ([]byte, error) {
	switch v.kind {
	case KindBinary:
		return v.blob, nil
	case KindScalar:
		if v.sk == scalarString {
			return []byte(v.s), nil
		}
	}
	return nil, &errors.ValidationError{Message: "value is not binary"}
}

// render encodes a scalar or binary leaf per the parameter format.
func (v Value) render(f Format) (string, error) {
	switch v.kind {
	case KindScalar, KindBinary:
	default:
		return "", &errors.ValidationError{Message: "value is not a scalar or binary leaf"}
	}

	switch f {
	case FormatString:
		if v.kind == KindBinary {
			return string(v.blob), nil
		}
		return v.text(), nil
	case FormatHex:
		data, err := v.byteRepr()
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(data), nil
	case FormatBase64:
		data, err := v.byteRepr()
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	case FormatBase64url:
		data, err := v.byteRepr()
		if err != nil {
			return "", err
		}
		return base64.RawURLEncoding.EncodeToString(data), nil
	case FormatBinary:
		return "", &errors.ValidationError{Message: "binary format is only valid for body placement"}
	default:
		return "", &errors.ValidationError{Message: "unknown parameter format"}
	}
}

// text is the natural string representation of a scalar.
func (v Value) text() string {
	switch v.sk {
	case scalarInt:
		return strconv.FormatInt(v.i, 10)
	case scalarUint:
		return strconv.FormatUint(v.u, 10)
	case scalarFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// byteRepr is the octet representation a byte-oriented format applies
// to: raw bytes for blobs, UTF-8 for strings, minimal big-endian octets
// for non-negative integers, and the decimal rendering for floats.
func (v Value) byteRepr() ([]byte, error) {
	if v.kind == KindBinary {
		return v.blob, nil
	}
	switch v.sk {
	case scalarString:
		return []byte(v.s), nil
	case scalarFloat:
		return []byte(v.text()), nil
	case scalarInt:
		if v.i < 0 {
			return nil, &errors.ValidationError{Message: "negative integer has no octet representation"}
		}
		return minimalBigEndian(uint64(v.i)), nil
	case scalarUint:
		return minimalBigEndian(v.u), nil
	default:
		return nil, &errors.ValidationError{Message: "unsupported scalar kind"}
	}
}

// minimalBigEndian returns the shortest big-endian encoding of u.
// Zero encodes as a single zero octet.
func minimalBigEndian(u uint64) []byte {
	width := (bits.Len64(u) + 7) / 8
	if width == 0 {
		width = 1
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	return buf[8-width:]
}
