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
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/value"
)

func mustResolve(t *testing.T, s *Struct, ctx *Context, payload []byte) (*value.Struct, int) {
	t.Helper()
	c := NewCompiler()
	v, n, err := c.Resolve(s, ctx, payload)
	if err != nil {
		t.Fatalf("resolve %s: %v", s.Name(), err)
	}
	return v, n
}

func TestCompileIdempotent(t *testing.T) {
	s := NewStruct("pair", F("a", U16), F("b", FixedArrayOf(U8, 3)))
	c := NewCompiler()
	first, err := c.Compile(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := c.Compile(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached template")
	}
	if FixedArrayOf(U8, 3) != FixedArrayOf(U8, 3) {
		t.Fatalf("expected interned array types")
	}
	if CountedArrayOf(U16, U32) == CountedArrayOf(U32, U32) {
		t.Fatalf("different count types must not share a type")
	}

	kinds := make([]StepKind, 0, len(first.Steps))
	for _, st := range first.Steps {
		kinds = append(kinds, st.Kind)
	}
	want := []StepKind{StepLeaf, StepStart, StepLeaf, StepEnd}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("steps (-want +got):\n%s", diff)
	}
	if first.Steps[1].End != 3 {
		t.Fatalf("expected start to point at end 3, got %d", first.Steps[1].End)
	}
}

func TestReferencedArrayLength(t *testing.T) {
	s := NewStruct("list",
		F("count", U16),
		F("items", ReferencedArrayOf(U16, Sibling("count"))),
	)
	v, n := mustResolve(t, s, nil, []byte{0x02, 0x00, 0x0A, 0x00, 0x0B, 0x00})
	if n != 6 {
		t.Fatalf("expected 6 bytes consumed, got %d", n)
	}
	want := map[string]any{
		"count": uint16(2),
		"items": []any{uint16(10), uint16(11)},
	}
	if diff := cmp.Diff(want, value.Plain(v)); diff != "" {
		t.Fatalf("value (-want +got):\n%s", diff)
	}

	v, n = mustResolve(t, s, nil, []byte{0x00, 0x00, 0xFF})
	if n != 2 {
		t.Fatalf("expected 2 bytes consumed, got %d", n)
	}
	items, ok := v.Get("items")
	if !ok || items.(*value.Array).Len() != 0 {
		t.Fatalf("expected empty items, got %v", items)
	}
}

func TestConditionSeesEarlierSiblings(t *testing.T) {
	s := NewStruct("opt",
		F("has_extra", U8),
		F("extra", U32).If(IfSet("has_extra")),
		F("tail", U8),
	)

	v, n := mustResolve(t, s, nil, []byte{0x00, 0x07})
	if n != 2 || v.Has("extra") {
		t.Fatalf("expected extra skipped, consumed=%d names=%v", n, v.Names())
	}
	if tail, _ := v.Int("tail"); tail != 7 {
		t.Fatalf("expected tail 7, got %d", tail)
	}

	v, n = mustResolve(t, s, nil, []byte{0x01, 0x01, 0x00, 0x00, 0x00, 0x07})
	if n != 6 {
		t.Fatalf("expected 6 bytes, got %d", n)
	}
	if diff := cmp.Diff([]string{"has_extra", "extra", "tail"}, v.Names()); diff != "" {
		t.Fatalf("declaration order (-want +got):\n%s", diff)
	}
}

var (
	kindFlags = NewFlags("shape_flags", U8, Bits("kind", 0, 1), Bit("visible", 7))
	typeA     = NewStruct("TypeA", F("a", U32))
	typeB     = NewStruct("TypeB", F("b", U16))
	tagged    = NewStruct("tagged",
		F("flags", kindFlags),
		F("body", SelectOn(Sibling("flags", "kind"), nil, On(0, typeA), On(1, typeB))),
	)
)

func TestSelectiveResolvesMatchingCase(t *testing.T) {
	v, n := mustResolve(t, tagged, nil, []byte{0x81, 0x34, 0x12})
	if n != 3 {
		t.Fatalf("expected 3 bytes, got %d", n)
	}
	flags, ok := v.Lookup("flags")
	if !ok {
		t.Fatalf("missing flags")
	}
	fv := flags.(FlagsValue)
	if fv.Get("kind") != 1 || !fv.Bool("visible") {
		t.Fatalf("unexpected flags %s", fv)
	}
	body, _ := v.Get("body")
	got := value.Plain(body)
	if diff := cmp.Diff(map[string]any{"b": uint16(0x1234)}, got); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
}

func TestSelectiveNoMatchUsesDefault(t *testing.T) {
	fallback := NewStruct("Fallback", F("raw", RestBytes))
	s := NewStruct("tagged_default",
		F("kind", U8),
		F("body", SelectOn(Sibling("kind"), fallback, On(0, typeA))),
	)
	var reported []*diag.Error
	ctx := NewContext(MaxVersion)
	ctx.Report = func(e *diag.Error) { reported = append(reported, e) }

	v, n := mustResolve(t, s, ctx, []byte{0x09, 0xAA, 0xBB})
	if n != 3 {
		t.Fatalf("expected 3 bytes, got %d", n)
	}
	raw, ok := v.Lookup("body", "raw")
	if !ok {
		t.Fatalf("expected default case")
	}
	if diff := cmp.Diff([]byte{0xAA, 0xBB}, raw); diff != "" {
		t.Fatalf("raw (-want +got):\n%s", diff)
	}
	if len(reported) != 1 || reported[0].Kind != diag.SelectiveNoMatch {
		t.Fatalf("expected one selective_no_match, got %v", reported)
	}
	if !errors.Is(reported[0], diag.ErrNoCase) {
		t.Fatalf("expected ErrNoCase, got %v", reported[0])
	}

	// Without a default the union resolves to an empty struct.
	bare := NewStruct("tagged_bare", F("kind", U8), F("body", SelectOn(Sibling("kind"), nil, On(0, typeA))))
	v, n = mustResolve(t, bare, nil, []byte{0x05})
	body, _ := v.Get("body")
	if n != 1 || body.(*value.Struct).Len() != 0 {
		t.Fatalf("expected empty body, consumed %d", n)
	}
}

func TestVersionFilterMonotonic(t *testing.T) {
	s := NewStruct("gated",
		F("a", U16),
		F("b", NewStruct("extra", F("x", U8), F("y", U8))).Since(V(5, 0, 2, 1)),
		F("c", U16).Since(V(5, 0, 3, 0)),
	)
	c := NewCompiler()
	versions := []Version{V(5, 0, 0, 0), V(5, 0, 2, 1), V(5, 0, 2, 9), V(5, 0, 3, 0), V(5, 1, 0, 0)}
	prev := -1
	for _, ver := range versions {
		tpl, err := c.For(s, ver)
		if err != nil {
			t.Fatalf("for %s: %v", ver, err)
		}
		if len(tpl.Steps) < prev {
			t.Fatalf("version %s dropped steps: %d < %d", ver, len(tpl.Steps), prev)
		}
		prev = len(tpl.Steps)
		if again := c.Filter(tpl, ver); again != tpl {
			t.Fatalf("filter not idempotent for %s", ver)
		}
		for i, st := range tpl.Steps {
			if st.Kind == StepStart && tpl.Steps[st.End].Kind != StepEnd {
				t.Fatalf("step %d: end %d is not an end step", i, st.End)
			}
		}
	}

	v, n, err := c.Resolve(s, NewContext(V(5, 0, 2, 1)), []byte{1, 0, 2, 3, 4, 0})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if n != 4 || v.Has("c") {
		t.Fatalf("expected c pruned, consumed=%d names=%v", n, v.Names())
	}
	if y, _ := v.Int("b", "y"); y != 3 {
		t.Fatalf("expected b.y 3, got %d", y)
	}
}

func TestCompilerConcurrentCallersShareTemplates(t *testing.T) {
	s := NewStruct("shared",
		F("a", U16),
		F("b", FixedArrayOf(U8, 2)).Since(V(5, 0, 3, 0)),
	)
	c := NewCompiler()
	ver := V(5, 0, 3, 2)

	const workers = 32
	compiled := make([]*Template, workers)
	filtered := make([]*Template, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tpl, err := c.Compile(s)
			if err != nil {
				errs[i] = err
				return
			}
			compiled[i] = tpl
			filtered[i], errs[i] = c.For(s, ver)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if compiled[i] != compiled[0] {
			t.Fatalf("worker %d got a distinct compiled template", i)
		}
		if filtered[i] != filtered[0] {
			t.Fatalf("worker %d got a distinct filtered template", i)
		}
	}
}

func TestFilterRemapsAlternatives(t *testing.T) {
	newer := NewStruct("Newer", F("x", U8), F("y", U8).Since(V(5, 0, 3, 0)))
	s := NewStruct("sel_gated",
		F("kind", U8),
		F("pad", U16).Since(V(5, 0, 3, 0)),
		F("body", SelectOn(Sibling("kind"), nil, On(1, newer), On(2, typeB))),
	)
	v, n := mustResolve(t, s, NewContext(V(5, 0, 0, 0)), []byte{0x02, 0x10, 0x00})
	if n != 3 {
		t.Fatalf("expected 3 bytes, got %d", n)
	}
	if b, _ := v.Int("body", "b"); b != 0x10 {
		t.Fatalf("expected body.b 16, got %d", b)
	}
}

func TestTruncatedFieldCarriesFrames(t *testing.T) {
	inner := NewStruct("Inner", F("lo", U16), F("hi", U32))
	s := NewStruct("Outer", F("head", U8), F("inner", inner))
	_, _, err := NewCompiler().Resolve(s, nil, []byte{0x01, 0x02, 0x00, 0x03})
	if err == nil {
		t.Fatalf("expected error")
	}
	de, ok := diag.As(err)
	if !ok {
		t.Fatalf("expected diag error, got %T", err)
	}
	if de.Kind != diag.FieldDecodeFailed || de.Field != "hi" || de.Offset != 3 {
		t.Fatalf("unexpected diagnostic %+v", de)
	}
	if !errors.Is(err, diag.ErrTruncatedField) {
		t.Fatalf("expected ErrTruncatedField, got %v", err)
	}
	want := []diag.Frame{{Type: "Outer", Field: "inner"}, {Type: "Inner", Field: "hi"}}
	if diff := cmp.Diff(want, de.Frames); diff != "" {
		t.Fatalf("frames (-want +got):\n%s", diff)
	}
}

func TestExtendPutsBaseFieldsFirst(t *testing.T) {
	base := NewStruct("Base", F("id", U8))
	child := Extend(base, "Child", F("extra", U8))
	v, _ := mustResolve(t, child, nil, []byte{0x01, 0x02})
	if diff := cmp.Diff([]string{"id", "extra"}, v.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if !child.Is(base) || base.Is(child) {
		t.Fatalf("unexpected Is relation")
	}
}

func TestCompileRejectsSelfContainment(t *testing.T) {
	loop := NewStruct("Loop", F("n", U8))
	loop.fields = append(loop.fields, F("self", loop))
	if _, err := NewCompiler().Compile(loop); err == nil {
		t.Fatalf("expected self-containment error")
	}

	a := NewStruct("A")
	b := Extend(a, "B")
	a.base = b
	if _, err := NewCompiler().Compile(b); err == nil {
		t.Fatalf("expected cyclic extension error")
	}

	bare := NewStruct("bare", F("e", NewEnum("E", nil, Items("x")...)))
	if _, err := NewCompiler().Compile(bare); err == nil {
		t.Fatalf("expected error for enum without base")
	}
}

func TestCountedAndAncestorArrays(t *testing.T) {
	header := NewStruct("Header", F("n", U16))
	body := NewStruct("Body",
		F("names", CountedArrayOf(U16, BStr)),
		F("marks", ReferencedArrayOf(U8, Ancestor(header, "n"))),
	)
	ctx := NewContext(MaxVersion)
	hv := value.NewStruct()
	hv.Set("n", value.Scalar{V: uint16(2)})
	ctx.Ancestors = []AncestorFrame{{Type: header, Values: hv}}

	payload := []byte{
		0x01, 0x00, // one name
		0x02, 0x00, 'h', 0x00, 'i', 0x00,
		0x07, 0x08,
	}
	v, n := mustResolve(t, body, ctx, payload)
	if n != len(payload) {
		t.Fatalf("expected %d bytes, got %d", len(payload), n)
	}
	want := map[string]any{
		"names": []any{"hi"},
		"marks": []any{uint8(7), uint8(8)},
	}
	if diff := cmp.Diff(want, value.Plain(v)); diff != "" {
		t.Fatalf("value (-want +got):\n%s", diff)
	}

	if _, _, err := NewCompiler().Resolve(body, NewContext(MaxVersion), payload); err == nil {
		t.Fatalf("expected unresolved ancestor reference")
	} else if !errors.Is(err, diag.ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
}

func TestRefFuncsSharingKeyStayDistinct(t *testing.T) {
	constant := func(n int64) func(*Context, *value.Struct) (int64, error) {
		return func(*Context, *value.Struct) (int64, error) { return n, nil }
	}
	one := RefFunc("shared.count", constant(1))
	two := RefFunc("shared.count", constant(2))

	first := ReferencedArrayOf(U8, one)
	second := ReferencedArrayOf(U8, two)
	if first == second {
		t.Fatalf("arrays over different functions were interned together")
	}
	if again := ReferencedArrayOf(U8, one); again != first {
		t.Fatalf("same reference must intern to the same type")
	}
	if SelectOn(one, nil, On(1, U8)) == SelectOn(two, nil, On(1, U8)) {
		t.Fatalf("selectives over different functions were interned together")
	}

	payload := []byte{0x0a, 0x0b}
	v, n := mustResolve(t, NewStruct("uses_one", F("items", first)), nil, payload)
	if n != 1 {
		t.Fatalf("expected 1 byte via first function, got %d (%v)", n, value.Plain(v))
	}
	v, n = mustResolve(t, NewStruct("uses_two", F("items", second)), nil, payload)
	if n != 2 {
		t.Fatalf("expected 2 bytes via second function, got %d (%v)", n, value.Plain(v))
	}

	left := NewStruct("Twin", F("n", U8))
	right := NewStruct("Twin", F("n", U8))
	if ReferencedArrayOf(U8, Ancestor(left, "n")) == ReferencedArrayOf(U8, Ancestor(right, "n")) {
		t.Fatalf("ancestor references to distinct structs were interned together")
	}
}

func TestEnumAndFlagsValues(t *testing.T) {
	align := NewEnum("align", U8, Items("left", "right", "center")...)
	s := NewStruct("para", F("align", align), F("f", NewFlags("pf", U16, EnumBits("a", 2, 3, align))))
	v, _ := mustResolve(t, s, nil, []byte{0x02, 0x04, 0x00})
	got, _ := v.Text("align")
	if got != "center" {
		t.Fatalf("expected center, got %q", got)
	}
	sub, _ := v.Text("f", "a")
	if sub != "right" {
		t.Fatalf("expected right, got %q", sub)
	}
	if s := align.Of(9).String(); s != "align(9)" {
		t.Fatalf("unexpected unknown enum rendering %q", s)
	}
}

func TestVersionParse(t *testing.T) {
	v, err := ParseVersion("5.0.3.2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v != V(5, 0, 3, 2) || VersionFromUint32(0x05000302) != v || v.Uint32() != 0x05000302 {
		t.Fatalf("unexpected version %s", v)
	}
	if !V(5, 0, 2, 9).Less(v) {
		t.Fatalf("expected ordering")
	}
	if _, err := ParseVersion("x.1"); err == nil {
		t.Fatalf("expected parse error")
	}
}
