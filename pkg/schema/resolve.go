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
	"fmt"
	"strconv"

	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/value"
)

// maxArrayItems bounds array counts read from untrusted payloads.
const maxArrayItems = 1 << 24

// Resolve compiles s for ctx.Version (through the process-wide compiler) and
// resolves payload against it.
func Resolve(s *Struct, ctx *Context, payload []byte) (*value.Struct, int, error) {
	return defaultCompiler.Resolve(s, ctx, payload)
}

// Resolve resolves payload against the template of s filtered for
// ctx.Version.
func (c *Compiler) Resolve(s *Struct, ctx *Context, payload []byte) (*value.Struct, int, error) {
	if ctx == nil {
		ctx = &Context{Version: MaxVersion}
	}
	t, err := c.For(s, ctx.Version)
	if err != nil {
		return nil, 0, err
	}
	return ResolveTemplate(t, ctx, payload)
}

// ResolveTemplate walks t over payload and returns the root struct and the
// number of bytes consumed. Trailing bytes are not an error. Failures are
// *diag.Error values of kind FieldDecodeFailed.
func ResolveTemplate(t *Template, ctx *Context, payload []byte) (*value.Struct, int, error) {
	r := &resolver{
		steps:  t.Steps,
		ctx:    ctx,
		cur:    NewCursor(payload),
		frames: []diag.Frame{{Type: t.Root.Name()}},
	}
	root := value.NewStruct()
	if err := r.fields(0, len(t.Steps), root); err != nil {
		return nil, r.cur.Pos(), err
	}
	root.Freeze()
	return root, r.cur.Pos(), nil
}

type resolver struct {
	steps  []Step
	ctx    *Context
	cur    *Cursor
	frames []diag.Frame
}

func (r *resolver) push(typ, field string) {
	r.frames = append(r.frames, diag.Frame{Type: typ, Field: field})
}

func (r *resolver) pop() {
	r.frames = r.frames[:len(r.frames)-1]
}

// fields resolves the sibling steps in [lo, hi) into into, in declaration
// order, so conditions and references see every earlier sibling.
func (r *resolver) fields(lo, hi int, into *value.Struct) error {
	for i := lo; i < hi; {
		st := &r.steps[i]
		next := i + 1
		if st.Kind == StepStart {
			next = st.End + 1
		}
		r.frames[len(r.frames)-1].Field = st.Name
		if st.Field != nil && st.Field.Cond != nil && !st.Field.Cond(r.ctx, into) {
			i = next
			continue
		}
		v, err := r.one(i, into)
		if err != nil {
			return err
		}
		into.Set(st.Name, v)
		i = next
	}
	return nil
}

// one resolves the single step (leaf or bracketed subtree) at i. enclosing
// is the struct whose fields are being resolved; selective keys and array
// references are evaluated against it.
func (r *resolver) one(i int, enclosing *value.Struct) (value.Value, error) {
	st := &r.steps[i]
	if st.Kind == StepLeaf {
		return r.leaf(st)
	}
	switch t := st.Type.(type) {
	case *Struct:
		s := value.NewStruct()
		r.push(t.Name(), "")
		if err := r.fields(i+1, st.End, s); err != nil {
			return nil, err
		}
		r.pop()
		s.Freeze()
		return s, nil
	case *FixedArray:
		return r.array(i, t.Name(), int64(t.count), enclosing)
	case *CountedArray:
		off := r.cur.Pos()
		raw, err := t.countType.Read(r.cur)
		if err != nil {
			return nil, r.fail(st.Name, off, err)
		}
		n, ok := value.ToInt(raw)
		if !ok {
			return nil, r.fail(st.Name, off, fmt.Errorf("count of %s is not an integer", t.Name()))
		}
		return r.array(i, t.Name(), n, enclosing)
	case *ReferencedArray:
		n, err := t.ref.Eval(r.ctx, enclosing)
		if err != nil {
			return nil, r.fail(st.Name, r.cur.Pos(), fmt.Errorf("%w: %v", diag.ErrUnresolved, err))
		}
		return r.array(i, t.Name(), n, enclosing)
	case *Selective:
		return r.selective(st, t, enclosing)
	}
	return nil, r.fail(st.Name, r.cur.Pos(), fmt.Errorf("unexpected step type %T", st.Type))
}

func (r *resolver) leaf(st *Step) (value.Value, error) {
	off := r.cur.Pos()
	var (
		v   any
		err error
	)
	switch t := st.Type.(type) {
	case *Primitive:
		v, err = t.Read(r.cur)
	case *Flags:
		v, err = readWord(t.base, r.cur, func(n int64) any { return t.Of(uint64(n)) })
	case *Enum:
		v, err = readWord(t.base, r.cur, func(n int64) any { return t.Of(n) })
	default:
		err = fmt.Errorf("type %s is not a leaf", st.Type.Name())
	}
	if err != nil {
		return nil, r.fail(st.Name, off, err)
	}
	return value.Scalar{V: v, Offset: off}, nil
}

func readWord(base *Primitive, c *Cursor, wrap func(int64) any) (any, error) {
	raw, err := base.Read(c)
	if err != nil {
		return nil, err
	}
	n, ok := value.ToInt(raw)
	if !ok {
		return nil, fmt.Errorf("base %s is not an integer", base.Name())
	}
	return wrap(n), nil
}

// array resolves the single item step following the Start at i, count times.
func (r *resolver) array(i int, name string, count int64, enclosing *value.Struct) (value.Value, error) {
	st := &r.steps[i]
	if count < 0 || count > maxArrayItems {
		return nil, r.fail(st.Name, r.cur.Pos(), fmt.Errorf("invalid count %d for %s", count, name))
	}
	capacity := int(count)
	if rem := r.cur.Remaining(); capacity > rem {
		capacity = rem
	}
	arr := value.NewArray(capacity)
	r.push(name, "")
	for k := int64(0); k < count; k++ {
		r.frames[len(r.frames)-1].Field = strconv.FormatInt(k, 10)
		v, err := r.one(i+1, enclosing)
		if err != nil {
			return nil, err
		}
		arr.Append(v)
	}
	r.pop()
	arr.Freeze()
	return arr, nil
}

func (r *resolver) selective(st *Step, sel *Selective, enclosing *value.Struct) (value.Value, error) {
	key, err := sel.key.Eval(r.ctx, enclosing)
	if err != nil {
		return nil, r.fail(st.Name, r.cur.Pos(), fmt.Errorf("%w: %v", diag.ErrUnresolved, err))
	}
	alt, ok := pickAlt(st.Alts, key)
	if !ok || alt.Default {
		r.ctx.report(&diag.Error{
			Kind:   diag.SelectiveNoMatch,
			Field:  st.Name,
			Offset: r.cur.Pos(),
			Frames: r.trace(),
			Err:    fmt.Errorf("%w: %s=%d", diag.ErrNoCase, sel.key.key, key),
		})
	}
	if !ok {
		s := value.NewStruct()
		s.Freeze()
		return s, nil
	}
	return r.one(alt.Lo, enclosing)
}

// pickAlt returns the alternative for key, else the default one.
func pickAlt(alts []Alt, key int64) (Alt, bool) {
	var def *Alt
	for i := range alts {
		a := &alts[i]
		if a.Default {
			def = a
			continue
		}
		if a.Key == key && a.Hi > a.Lo {
			return *a, true
		}
	}
	if def != nil && def.Hi > def.Lo {
		return *def, true
	}
	return Alt{}, false
}

func (r *resolver) trace() []diag.Frame {
	return append([]diag.Frame(nil), r.frames...)
}

func (r *resolver) fail(field string, offset int, err error) error {
	var de *diag.Error
	if errors.As(err, &de) {
		return err
	}
	return &diag.Error{
		Kind:   diag.FieldDecodeFailed,
		Field:  field,
		Offset: offset,
		Frames: r.trace(),
		Err:    err,
	}
}
