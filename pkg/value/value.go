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

// Package value holds the decoded value tree produced by the resolver.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a Scalar, a *Struct or an *Array.
type Value interface {
	isValue()
}

// Fielder is implemented by scalar payloads that expose named sub-values,
// such as bit-field views over an integer.
type Fielder interface {
	Field(name string) (any, bool)
}

// Scalar is a decoded leaf with the payload offset it was read from.
type Scalar struct {
	V      any
	Offset int
}

// Struct is an ordered name -> value map.
type Struct struct {
	names  []string
	values []Value
	index  map[string]int
	frozen bool
}

// Array is an ordered list of values.
type Array struct {
	Items  []Value
	frozen bool
}

func (Scalar) isValue()  {}
func (*Struct) isValue() {}
func (*Array) isValue()  {}

func NewStruct() *Struct {
	return &Struct{index: make(map[string]int)}
}

// Set appends name or replaces its existing entry. It panics on a frozen
// struct.
func (s *Struct) Set(name string, v Value) {
	if s.frozen {
		panic(fmt.Sprintf("value: set %q on frozen struct", name))
	}
	if i, ok := s.index[name]; ok {
		s.values[i] = v
		return
	}
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
	s.values = append(s.values, v)
}

func (s *Struct) Freeze()         { s.frozen = true }
func (s *Struct) Frozen() bool    { return s.frozen }
func (s *Struct) Len() int        { return len(s.names) }
func (s *Struct) Names() []string { return append([]string(nil), s.names...) }

func (s *Struct) Get(name string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.values[i], true
}

// Has reports whether name was resolved (conditions skip absent fields).
func (s *Struct) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Each calls fn for every entry in declaration order.
func (s *Struct) Each(fn func(name string, v Value)) {
	for i, name := range s.names {
		fn(name, s.values[i])
	}
}

// Lookup follows a path through nested structs, array indexes ("0", "1"...)
// and Fielder scalars (bit-field names).
func (s *Struct) Lookup(path ...string) (any, bool) {
	var cur any = s
	for _, seg := range path {
		switch v := cur.(type) {
		case *Struct:
			next, ok := v.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case *Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v.Items) {
				return nil, false
			}
			cur = v.Items[idx]
		case Scalar:
			f, ok := v.V.(Fielder)
			if !ok {
				return nil, false
			}
			next, ok := f.Field(seg)
			if !ok {
				return nil, false
			}
			cur = next
		default:
			f, ok := v.(Fielder)
			if !ok {
				return nil, false
			}
			next, ok := f.Field(seg)
			if !ok {
				return nil, false
			}
			cur = next
		}
	}
	if sc, ok := cur.(Scalar); ok {
		return sc.V, true
	}
	return cur, true
}

// Int looks up path and converts the result to int64.
func (s *Struct) Int(path ...string) (int64, bool) {
	v, ok := s.Lookup(path...)
	if !ok {
		return 0, false
	}
	return ToInt(v)
}

// Text looks up path and returns a string result.
func (s *Struct) Text(path ...string) (string, bool) {
	v, ok := s.Lookup(path...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

func NewArray(capacity int) *Array {
	return &Array{Items: make([]Value, 0, capacity)}
}

func (a *Array) Append(v Value) {
	if a.frozen {
		panic("value: append on frozen array")
	}
	a.Items = append(a.Items, v)
}

func (a *Array) Freeze()      { a.frozen = true }
func (a *Array) Len() int     { return len(a.Items) }
func (a *Array) Frozen() bool { return a.frozen }

// Inter is implemented by wrapped integers (flags, enums) so they take part
// in counts and comparisons.
type Inter interface {
	Int64() int64
}

// ToInt converts any decoded integer representation to int64.
func ToInt(v any) (int64, bool) {
	switch n := v.(type) {
	case Scalar:
		return ToInt(n.V)
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case Inter:
		return n.Int64(), true
	}
	return 0, false
}

// Plain converts a value tree into maps, slices and scalars, suitable for
// JSON rendering and structural comparison.
func Plain(v Value) any {
	switch t := v.(type) {
	case Scalar:
		if p, ok := t.V.(interface{ Plain() any }); ok {
			return p.Plain()
		}
		return t.V
	case *Struct:
		out := make(map[string]any, t.Len())
		t.Each(func(name string, v Value) {
			out[name] = Plain(v)
		})
		return out
	case *Array:
		out := make([]any, 0, len(t.Items))
		for _, item := range t.Items {
			out = append(out, Plain(item))
		}
		return out
	}
	return nil
}

// Dump renders v as an indented, order-preserving text tree.
func Dump(v Value) string {
	var b strings.Builder
	dump(&b, v, 0)
	return b.String()
}

func dump(b *strings.Builder, v Value, depth int) {
	pad := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case Scalar:
		fmt.Fprintf(b, "%v @%d\n", t.V, t.Offset)
	case *Struct:
		b.WriteString("{\n")
		t.Each(func(name string, child Value) {
			fmt.Fprintf(b, "%s  %s: ", pad, name)
			dump(b, child, depth+1)
		})
		fmt.Fprintf(b, "%s}\n", pad)
	case *Array:
		b.WriteString("[\n")
		for _, item := range t.Items {
			fmt.Fprintf(b, "%s  - ", pad)
			dump(b, item, depth+1)
		}
		fmt.Fprintf(b, "%s]\n", pad)
	default:
		b.WriteString("<nil>\n")
	}
}
