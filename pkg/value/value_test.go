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

package value

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type bits uint64

func (b bits) Field(name string) (any, bool) {
	if name == "low" {
		return uint64(b) & 1, true
	}
	return nil, false
}

func (b bits) Int64() int64 { return int64(b) }

func TestLookupDescends(t *testing.T) {
	inner := NewStruct()
	inner.Set("flags", Scalar{V: bits(3)})
	arr := NewArray(2)
	arr.Append(Scalar{V: uint16(5)})
	arr.Append(Scalar{V: int8(-1)})
	root := NewStruct()
	root.Set("inner", inner)
	root.Set("list", arr)

	if n, ok := root.Int("inner", "flags", "low"); !ok || n != 1 {
		t.Fatalf("expected flags.low 1, got %d %v", n, ok)
	}
	if n, ok := root.Int("inner", "flags"); !ok || n != 3 {
		t.Fatalf("expected wrapped int 3, got %d %v", n, ok)
	}
	if n, ok := root.Int("list", "1"); !ok || n != -1 {
		t.Fatalf("expected list[1] -1, got %d %v", n, ok)
	}
	for _, path := range [][]string{{"missing"}, {"list", "2"}, {"list", "x"}, {"inner", "flags", "high"}} {
		if _, ok := root.Lookup(path...); ok {
			t.Fatalf("expected %v to be absent", path)
		}
	}
}

func TestSetKeepsOrderAndFreezes(t *testing.T) {
	s := NewStruct()
	s.Set("b", Scalar{V: 1})
	s.Set("a", Scalar{V: 2})
	s.Set("b", Scalar{V: 3})
	if diff := cmp.Diff([]string{"b", "a"}, s.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"a": 2, "b": 3}, Plain(s)); diff != "" {
		t.Fatalf("plain (-want +got):\n%s", diff)
	}

	s.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on frozen struct")
		}
	}()
	s.Set("c", Scalar{V: 4})
}

func TestDumpIsOrdered(t *testing.T) {
	s := NewStruct()
	s.Set("z", Scalar{V: "last", Offset: 4})
	s.Set("a", Scalar{V: uint8(1)})
	out := Dump(s)
	if strings.Index(out, "z:") > strings.Index(out, "a:") {
		t.Fatalf("dump lost declaration order:\n%s", out)
	}
	if !strings.Contains(out, "last @4") {
		t.Fatalf("dump missing offset:\n%s", out)
	}
}
