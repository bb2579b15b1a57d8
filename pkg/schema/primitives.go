// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
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

package schema

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Built-in little-endian primitives.
var (
	U8  = NewPrimitive("u8", 1, func(b []byte) any { return b[0] })
	U16 = NewPrimitive("u16", 2, func(b []byte) any { return binary.LittleEndian.Uint16(b) })
	U32 = NewPrimitive("u32", 4, func(b []byte) any { return binary.LittleEndian.Uint32(b) })
	U64 = NewPrimitive("u64", 8, func(b []byte) any { return binary.LittleEndian.Uint64(b) })
	I8  = NewPrimitive("i8", 1, func(b []byte) any { return int8(b[0]) })
	I16 = NewPrimitive("i16", 2, func(b []byte) any { return int16(binary.LittleEndian.Uint16(b)) })
	I32 = NewPrimitive("i32", 4, func(b []byte) any { return int32(binary.LittleEndian.Uint32(b)) })
	F64 = NewPrimitive("f64", 8, func(b []byte) any { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })

	// WChar is one UTF-16 code unit rendered as a string ("" for NUL).
	WChar = NewPrimitive("wchar", 2, func(b []byte) any {
		s, _ := DecodeUTF16(b)
		if s == "\x00" {
			return ""
		}
		return s
	})

	// BStr is a u16 code-unit count followed by that many UTF-16 code units.
	BStr = NewVariablePrimitive("bstr", func(c *Cursor) (any, error) {
		n, err := c.Uint16()
		if err != nil {
			return nil, err
		}
		return c.UTF16(int(n))
	})

	// RestUTF16 consumes the remaining payload as UTF-16 text.
	RestUTF16 = NewVariablePrimitive("utf16*", func(c *Cursor) (any, error) {
		return DecodeUTF16(c.Rest())
	})

	// RestBytes consumes the remaining payload verbatim.
	RestBytes = NewVariablePrimitive("bytes*", func(c *Cursor) (any, error) {
		return append([]byte(nil), c.Rest()...), nil
	})
)

// Bytes is an n-byte opaque primitive; the same n yields the same type.
func Bytes(n int) *Primitive {
	return intern("bytes:"+strconv.Itoa(n), func() Type {
		return NewPrimitive("bytes["+strconv.Itoa(n)+"]", n, func(b []byte) any { return append([]byte(nil), b...) })
	}).(*Primitive)
}

// Alias names an existing fixed primitive differently (HWPUNIT over u32, for
// example) while keeping its layout.
func Alias(name string, base *Primitive) *Primitive {
	return intern("alias:"+name+":"+typeKey(base), func() Type {
		return &Primitive{name: name, size: base.size, read: base.read}
	}).(*Primitive)
}
