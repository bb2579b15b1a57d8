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
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/novatechflow/hwpscale/pkg/value"
)

// Kind identifies a Type variant.
type Kind uint8

const (
	KindPrimitive Kind = iota + 1
	KindStruct
	KindFlags
	KindEnum
	KindFixedArray
	KindCountedArray
	KindReferencedArray
	KindSelective
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindStruct:
		return "struct"
	case KindFlags:
		return "flags"
	case KindEnum:
		return "enum"
	case KindFixedArray:
		return "fixed_array"
	case KindCountedArray:
		return "counted_array"
	case KindReferencedArray:
		return "referenced_array"
	case KindSelective:
		return "selective"
	}
	return "unknown"
}

// Type describes a binary layout. The set of implementations is closed to
// this package.
type Type interface {
	Name() string
	Kind() Kind
	sealed()
}

// interned keeps parameterized types identity-equal: the same constructor
// arguments always return the same pointer.
var interned = struct {
	sync.Mutex
	m map[string]Type
}{m: make(map[string]Type)}

func intern(key string, build func() Type) Type {
	interned.Lock()
	defer interned.Unlock()
	if t, ok := interned.m[key]; ok {
		return t
	}
	t := build()
	interned.m[key] = t
	return t
}

func typeKey(t Type) string {
	return fmt.Sprintf("%s@%p", t.Name(), t)
}

// Primitive reads a fixed number of bytes, or delimits itself (size 0).
type Primitive struct {
	name string
	size int
	read func(c *Cursor) (any, error)
}

func (p *Primitive) Name() string { return p.name }
func (p *Primitive) Kind() Kind   { return KindPrimitive }
func (p *Primitive) Size() int    { return p.size }
func (p *Primitive) sealed()      {}

// Read decodes one value at the cursor.
func (p *Primitive) Read(c *Cursor) (any, error) {
	return p.read(c)
}

// NewPrimitive defines a fixed-width primitive decoded from exactly size bytes.
func NewPrimitive(name string, size int, decode func(b []byte) any) *Primitive {
	return &Primitive{
		name: name,
		size: size,
		read: func(c *Cursor) (any, error) {
			b, err := c.Bytes(size)
			if err != nil {
				return nil, err
			}
			return decode(b), nil
		},
	}
}

// NewVariablePrimitive defines a primitive that reads its own length.
func NewVariablePrimitive(name string, read func(c *Cursor) (any, error)) *Primitive {
	return &Primitive{name: name, read: read}
}

// Enum maps integer codes to symbolic names. Base may be nil when the enum is
// only used as a bit-field value type.
type Enum struct {
	name   string
	base   *Primitive
	items  []EnumItem
	byCode map[int64]string
	byName map[string]int64
}

type EnumItem struct {
	Name string
	Code int64
}

// Items numbers names sequentially from zero.
func Items(names ...string) []EnumItem {
	out := make([]EnumItem, len(names))
	for i, n := range names {
		out[i] = EnumItem{Name: n, Code: int64(i)}
	}
	return out
}

func NewEnum(name string, base *Primitive, items ...EnumItem) *Enum {
	e := &Enum{
		name:   name,
		base:   base,
		items:  items,
		byCode: make(map[int64]string, len(items)),
		byName: make(map[string]int64, len(items)),
	}
	for _, it := range items {
		if _, dup := e.byCode[it.Code]; !dup {
			e.byCode[it.Code] = it.Name
		}
		e.byName[it.Name] = it.Code
	}
	return e
}

func (e *Enum) Name() string            { return e.name }
func (e *Enum) Kind() Kind              { return KindEnum }
func (e *Enum) Base() *Primitive        { return e.base }
func (e *Enum) Items() []EnumItem       { return append([]EnumItem(nil), e.items...) }
func (e *Enum) sealed()                 {}
func (e *Enum) Of(code int64) EnumValue { return EnumValue{Type: e, Code: code} }

// Code returns the code of a declared name. Unknown names panic: they are a
// schema definition bug.
func (e *Enum) Code(name string) int64 {
	c, ok := e.byName[name]
	if !ok {
		panic(fmt.Sprintf("enum %s has no item %q", e.name, name))
	}
	return c
}

// EnumValue is a decoded enum code.
type EnumValue struct {
	Type *Enum
	Code int64
}

// Name returns the symbolic name, or "" for codes the enum does not declare.
func (v EnumValue) Name() string {
	if v.Type == nil {
		return ""
	}
	return v.Type.byCode[v.Code]
}

func (v EnumValue) Known() bool  { return v.Name() != "" }
func (v EnumValue) Int64() int64 { return v.Code }

func (v EnumValue) String() string {
	if n := v.Name(); n != "" {
		return n
	}
	return fmt.Sprintf("%s(%d)", v.Type.Name(), v.Code)
}

func (v EnumValue) Plain() any { return v.String() }

// BitField is a named bit range [LSB, MSB] of a Flags word, optionally typed
// by an Enum.
type BitField struct {
	Name string
	LSB  uint
	MSB  uint
	Enum *Enum
}

func Bit(name string, n uint) BitField         { return BitField{Name: name, LSB: n, MSB: n} }
func Bits(name string, lsb, msb uint) BitField { return BitField{Name: name, LSB: lsb, MSB: msb} }
func EnumBits(name string, lsb, msb uint, e *Enum) BitField {
	return BitField{Name: name, LSB: lsb, MSB: msb, Enum: e}
}

func (b BitField) extract(word uint64) uint64 {
	width := b.MSB - b.LSB + 1
	mask := uint64(1)<<width - 1
	if width >= 64 {
		mask = ^uint64(0)
	}
	return (word >> b.LSB) & mask
}

// Flags reads a base primitive and exposes it as named bit ranges.
type Flags struct {
	name   string
	base   *Primitive
	fields []BitField
	index  map[string]int
}

func NewFlags(name string, base *Primitive, fields ...BitField) *Flags {
	f := &Flags{name: name, base: base, fields: fields, index: make(map[string]int, len(fields))}
	for i, bf := range fields {
		if bf.MSB < bf.LSB || bf.MSB >= uint(base.size*8) {
			panic(fmt.Sprintf("flags %s: bit range %s [%d,%d] outside %s", name, bf.Name, bf.LSB, bf.MSB, base.name))
		}
		f.index[bf.Name] = i
	}
	return f
}

func (f *Flags) Name() string              { return f.name }
func (f *Flags) Kind() Kind                { return KindFlags }
func (f *Flags) Base() *Primitive          { return f.base }
func (f *Flags) BitFields() []BitField     { return append([]BitField(nil), f.fields...) }
func (f *Flags) sealed()                   {}
func (f *Flags) Of(word uint64) FlagsValue { return FlagsValue{Type: f, Word: word} }

// FlagsValue is a bit-field view over a decoded integer.
type FlagsValue struct {
	Type *Flags
	Word uint64
}

// Get returns the raw bits of a named field; unknown names return 0.
func (v FlagsValue) Get(name string) uint64 {
	i, ok := v.Type.index[name]
	if !ok {
		return 0
	}
	return v.Type.fields[i].extract(v.Word)
}

func (v FlagsValue) Bool(name string) bool { return v.Get(name) != 0 }

// Enum returns a bit-field typed by an Enum.
func (v FlagsValue) Enum(name string) EnumValue {
	i, ok := v.Type.index[name]
	if !ok || v.Type.fields[i].Enum == nil {
		return EnumValue{}
	}
	bf := v.Type.fields[i]
	return bf.Enum.Of(int64(bf.extract(v.Word)))
}

// Field implements value.Fielder.
func (v FlagsValue) Field(name string) (any, bool) {
	i, ok := v.Type.index[name]
	if !ok {
		return nil, false
	}
	bf := v.Type.fields[i]
	if bf.Enum != nil {
		return bf.Enum.Of(int64(bf.extract(v.Word))), true
	}
	return bf.extract(v.Word), true
}

func (v FlagsValue) Int64() int64 { return int64(v.Word) }

func (v FlagsValue) String() string {
	parts := make([]string, 0, len(v.Type.fields))
	for _, bf := range v.Type.fields {
		raw := bf.extract(v.Word)
		if raw == 0 {
			continue
		}
		if bf.Enum != nil {
			parts = append(parts, bf.Name+"="+bf.Enum.Of(int64(raw)).String())
			continue
		}
		if bf.MSB == bf.LSB {
			parts = append(parts, bf.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", bf.Name, raw))
	}
	return fmt.Sprintf("0x%x<%s>", v.Word, strings.Join(parts, ","))
}

func (v FlagsValue) Plain() any {
	out := map[string]any{"_word": v.Word}
	for _, bf := range v.Type.fields {
		if bf.Enum != nil {
			out[bf.Name] = bf.Enum.Of(int64(bf.extract(v.Word))).String()
			continue
		}
		out[bf.Name] = bf.extract(v.Word)
	}
	return out
}

var _ value.Fielder = FlagsValue{}

// FixedArray repeats item a constant number of times.
type FixedArray struct {
	item  Type
	count int
}

func FixedArrayOf(item Type, count int) *FixedArray {
	key := fmt.Sprintf("fixed:%s:%d", typeKey(item), count)
	return intern(key, func() Type { return &FixedArray{item: item, count: count} }).(*FixedArray)
}

func (a *FixedArray) Name() string { return fmt.Sprintf("[%d]%s", a.count, a.item.Name()) }
func (a *FixedArray) Kind() Kind   { return KindFixedArray }
func (a *FixedArray) Item() Type   { return a.item }
func (a *FixedArray) Count() int   { return a.count }
func (a *FixedArray) sealed()      {}

// CountedArray reads its own element count first.
type CountedArray struct {
	countType *Primitive
	item      Type
}

func CountedArrayOf(countType *Primitive, item Type) *CountedArray {
	key := fmt.Sprintf("counted:%s:%s", typeKey(countType), typeKey(item))
	return intern(key, func() Type { return &CountedArray{countType: countType, item: item} }).(*CountedArray)
}

func (a *CountedArray) Name() string          { return fmt.Sprintf("[%s]%s", a.countType.Name(), a.item.Name()) }
func (a *CountedArray) Kind() Kind            { return KindCountedArray }
func (a *CountedArray) Item() Type            { return a.item }
func (a *CountedArray) CountType() *Primitive { return a.countType }
func (a *CountedArray) sealed()               {}

// ReferencedArray takes its element count from already-resolved values.
type ReferencedArray struct {
	item Type
	ref  Ref
}

func ReferencedArrayOf(item Type, ref Ref) *ReferencedArray {
	key := fmt.Sprintf("referenced:%s:%s", typeKey(item), ref.identity())
	return intern(key, func() Type { return &ReferencedArray{item: item, ref: ref} }).(*ReferencedArray)
}

func (a *ReferencedArray) Name() string { return fmt.Sprintf("[%s]%s", a.ref.key, a.item.Name()) }
func (a *ReferencedArray) Kind() Kind   { return KindReferencedArray }
func (a *ReferencedArray) Item() Type   { return a.item }
func (a *ReferencedArray) Ref() Ref     { return a.ref }
func (a *ReferencedArray) sealed()      {}

// Case is one alternative of a Selective.
type Case struct {
	Key  int64
	Type Type
}

func On(key int64, t Type) Case { return Case{Key: key, Type: t} }

// Selective is a tagged union: the key reference, evaluated against the
// enclosing struct, picks exactly one case.
type Selective struct {
	key   Ref
	cases []Case
	def   Type
}

// SelectOn builds a Selective. def is used when the key matches no case; a
// nil def resolves to an empty struct.
func SelectOn(key Ref, def Type, cases ...Case) *Selective {
	sorted := append([]Case(nil), cases...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	var b strings.Builder
	fmt.Fprintf(&b, "select:%s", key.identity())
	for _, c := range sorted {
		fmt.Fprintf(&b, ":%d=%s", c.Key, typeKey(c.Type))
	}
	if def != nil {
		fmt.Fprintf(&b, ":default=%s", typeKey(def))
	}
	return intern(b.String(), func() Type { return &Selective{key: key, cases: sorted, def: def} }).(*Selective)
}

func (s *Selective) Name() string  { return "select(" + s.key.key + ")" }
func (s *Selective) Kind() Kind    { return KindSelective }
func (s *Selective) Key() Ref      { return s.key }
func (s *Selective) Cases() []Case { return append([]Case(nil), s.cases...) }
func (s *Selective) Default() Type { return s.def }
func (s *Selective) sealed()       {}

// Predicate decides whether a field is present, given the values resolved
// so far in the enclosing struct.
type Predicate func(ctx *Context, cur *value.Struct) bool

// Field is one member of a Struct.
type Field struct {
	Name string
	Type Type
	// MinVersion prunes the field for streams older than it.
	MinVersion *Version
	Cond       Predicate
}

// F declares a field.
func F(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// Since gates the field on a minimum format version.
func (f Field) Since(v Version) Field {
	f.MinVersion = &v
	return f
}

// If makes the field conditional.
func (f Field) If(p Predicate) Field {
	f.Cond = p
	return f
}

// Struct is an ordered field list, optionally extending a base struct whose
// fields come first.
type Struct struct {
	name   string
	base   *Struct
	fields []Field
}

func NewStruct(name string, fields ...Field) *Struct {
	return &Struct{name: name, fields: fields}
}

// Extend declares a struct whose layout is base's fields followed by fields.
func Extend(base *Struct, name string, fields ...Field) *Struct {
	return &Struct{name: name, base: base, fields: fields}
}

func (s *Struct) Name() string    { return s.name }
func (s *Struct) Kind() Kind      { return KindStruct }
func (s *Struct) Base() *Struct   { return s.base }
func (s *Struct) Fields() []Field { return append([]Field(nil), s.fields...) }
func (s *Struct) sealed()         {}

// Is reports whether s is t or extends it.
func (s *Struct) Is(t *Struct) bool {
	for cur := s; cur != nil; cur = cur.base {
		if cur == t {
			return true
		}
	}
	return false
}

// allFields flattens the extension chain, base fields first.
func (s *Struct) allFields() ([]*Field, error) {
	var chain []*Struct
	seen := make(map[*Struct]bool)
	for cur := s; cur != nil; cur = cur.base {
		if seen[cur] {
			return nil, fmt.Errorf("struct %s: cyclic extension through %s", s.name, cur.name)
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
	var out []*Field
	for i := len(chain) - 1; i >= 0; i-- {
		for j := range chain[i].fields {
			out = append(out, &chain[i].fields[j])
		}
	}
	return out, nil
}

// Ref computes an integer from already-resolved values: a sibling path, a
// bit-field of a sibling, a field of an enclosing record, or a custom
// function. Key names the reference; types built on it are interned by its
// identity, which also tells apart custom functions sharing a key.
type Ref struct {
	key  string
	id   string
	eval func(ctx *Context, cur *value.Struct) (int64, error)
}

func (r Ref) Key() string { return r.key }

func (r Ref) identity() string {
	if r.id == "" {
		return r.key
	}
	return r.id
}

func (r Ref) Eval(ctx *Context, cur *value.Struct) (int64, error) {
	if r.eval == nil {
		return 0, fmt.Errorf("reference %q has no evaluator", r.key)
	}
	return r.eval(ctx, cur)
}

// Sibling refers to a value already resolved in the enclosing struct. Paths
// may descend into nested structs and bit-fields ("flags", "count").
func Sibling(path ...string) Ref {
	key := strings.Join(path, ".")
	return Ref{key: key, eval: func(_ *Context, cur *value.Struct) (int64, error) {
		n, ok := cur.Int(path...)
		if !ok {
			return 0, fmt.Errorf("reference %s unresolved", key)
		}
		return n, nil
	}}
}

// Ancestor refers to a value of the nearest enclosing record of type t.
func Ancestor(t *Struct, path ...string) Ref {
	key := t.Name() + ":" + strings.Join(path, ".")
	id := "ancestor:" + typeKey(t) + ":" + strings.Join(path, ".")
	return Ref{key: key, id: id, eval: func(ctx *Context, _ *value.Struct) (int64, error) {
		vals, ok := ctx.Nearest(t)
		if !ok {
			return 0, fmt.Errorf("reference %s: no enclosing %s", key, t.Name())
		}
		n, ok := vals.Int(path...)
		if !ok {
			return 0, fmt.Errorf("reference %s unresolved", key)
		}
		return n, nil
	}}
}

var refFuncSeq atomic.Uint64

// RefFunc wraps a custom computation. Every call yields a distinct identity,
// so two functions registered under the same key never share a type.
func RefFunc(key string, fn func(ctx *Context, cur *value.Struct) (int64, error)) Ref {
	id := fmt.Sprintf("func:%s#%d", key, refFuncSeq.Add(1))
	return Ref{key: key, id: id, eval: fn}
}

// IfSet is true when the sibling path resolves to a non-zero value.
func IfSet(path ...string) Predicate {
	return func(_ *Context, cur *value.Struct) bool {
		n, ok := cur.Int(path...)
		return ok && n != 0
	}
}

// IfEquals is true when the sibling path resolves to want.
func IfEquals(want int64, path ...string) Predicate {
	return func(_ *Context, cur *value.Struct) bool {
		n, ok := cur.Int(path...)
		return ok && n == want
	}
}

// IfGreater is true when the sibling path resolves to more than min.
func IfGreater(min int64, path ...string) Predicate {
	return func(_ *Context, cur *value.Struct) bool {
		n, ok := cur.Int(path...)
		return ok && n > min
	}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(ctx *Context, cur *value.Struct) bool { return !p(ctx, cur) }
}
