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
	"sync"

	"github.com/novatechflow/hwpscale/internal/metrics"
)

// StepKind is the role of a template step.
type StepKind uint8

const (
	StepStart StepKind = iota + 1
	StepLeaf
	StepEnd
)

func (k StepKind) String() string {
	switch k {
	case StepStart:
		return "start"
	case StepLeaf:
		return "leaf"
	case StepEnd:
		return "end"
	}
	return "?"
}

// Alt is one compiled alternative of a Selective: steps [Lo, Hi).
type Alt struct {
	Key     int64
	Default bool
	Lo, Hi  int
}

// Step is one entry of a flattened template.
type Step struct {
	Kind StepKind
	// Name is the field name the value is stored under; empty for array
	// items.
	Name string
	Type Type
	// Field is set on the outermost step of a declared struct field; version
	// gates and conditions are read from it.
	Field *Field
	// Owner is the struct declaring Field.
	Owner *Struct
	// End is the index of the matching End step of a Start.
	End int
	// Alts lists the alternatives of a Selective Start, in key order with the
	// default last.
	Alts []Alt
}

// Template is the immutable compiled form of a Struct.
type Template struct {
	Root  *Struct
	Steps []Step
	// Version is the stream version the template was filtered for; nil when
	// unfiltered.
	Version *Version
	source  *Template
}

// Compiler memoizes compiled and version-filtered templates. It is safe for
// concurrent use; racing compilations of the same type keep the first
// result.
type Compiler struct {
	mu       sync.Mutex
	compiled map[*Struct]*Template
	filtered map[filterKey]*Template
}

type filterKey struct {
	root    *Struct
	version Version
}

func NewCompiler() *Compiler {
	return &Compiler{
		compiled: make(map[*Struct]*Template),
		filtered: make(map[filterKey]*Template),
	}
}

var defaultCompiler = NewCompiler()

// Default returns the process-wide compiler.
func Default() *Compiler { return defaultCompiler }

// Compile flattens s using the process-wide compiler.
func Compile(s *Struct) (*Template, error) { return defaultCompiler.Compile(s) }

// Compile returns the cached template for s, compiling it on first use.
func (c *Compiler) Compile(s *Struct) (*Template, error) {
	c.mu.Lock()
	t, ok := c.compiled[s]
	c.mu.Unlock()
	if ok {
		metrics.TemplateCacheHits.WithLabelValues("compiled").Inc()
		return t, nil
	}

	built, err := compile(s)
	if err != nil {
		return nil, err
	}
	metrics.TemplateCompiles.WithLabelValues("compiled").Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.compiled[s]; ok {
		return existing, nil
	}
	c.compiled[s] = built
	return built, nil
}

// For returns the template of s filtered for version v.
func (c *Compiler) For(s *Struct, v Version) (*Template, error) {
	key := filterKey{root: s, version: v}
	c.mu.Lock()
	t, ok := c.filtered[key]
	c.mu.Unlock()
	if ok {
		metrics.TemplateCacheHits.WithLabelValues("filtered").Inc()
		return t, nil
	}
	base, err := c.Compile(s)
	if err != nil {
		return nil, err
	}
	return c.Filter(base, v), nil
}

// Filter prunes fields newer than v. Filtering twice for the same version
// returns the same template.
func (c *Compiler) Filter(t *Template, v Version) *Template {
	if t.Version != nil {
		if *t.Version == v {
			return t
		}
		t = t.source
	}
	key := filterKey{root: t.Root, version: v}
	c.mu.Lock()
	cached, ok := c.filtered[key]
	c.mu.Unlock()
	if ok {
		return cached
	}

	built := filter(t, v)
	metrics.TemplateCompiles.WithLabelValues("filtered").Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.filtered[key]; ok {
		return existing
	}
	c.filtered[key] = built
	return built
}

type compiler struct {
	steps []Step
	// open holds the structs being expanded, to reject self-containment.
	open map[*Struct]bool
}

func compile(s *Struct) (*Template, error) {
	c := &compiler{open: make(map[*Struct]bool)}
	if err := c.fields(s); err != nil {
		return nil, fmt.Errorf("compile %s: %w", s.Name(), err)
	}
	return &Template{Root: s, Steps: c.steps}, nil
}

func (c *compiler) fields(s *Struct) error {
	if c.open[s] {
		return fmt.Errorf("struct %s contains itself", s.Name())
	}
	c.open[s] = true
	defer delete(c.open, s)

	fields, err := s.allFields()
	if err != nil {
		return err
	}
	for _, f := range fields {
		if f.Type == nil {
			return fmt.Errorf("%s.%s: nil type", s.Name(), f.Name)
		}
		first := len(c.steps)
		if err := c.emit(f.Name, f.Type); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Name(), f.Name, err)
		}
		c.steps[first].Field = f
		c.steps[first].Owner = s
	}
	return nil
}

func (c *compiler) emit(name string, t Type) error {
	switch tt := t.(type) {
	case *Primitive, *Flags:
		c.steps = append(c.steps, Step{Kind: StepLeaf, Name: name, Type: t})
		return nil
	case *Enum:
		if tt.base == nil {
			return fmt.Errorf("enum %s has no base primitive", tt.name)
		}
		c.steps = append(c.steps, Step{Kind: StepLeaf, Name: name, Type: t})
		return nil
	case *Struct:
		start := c.open1(name, t)
		if err := c.fields(tt); err != nil {
			return err
		}
		c.close1(start)
		return nil
	case *FixedArray:
		return c.array(name, t, tt.item)
	case *CountedArray:
		return c.array(name, t, tt.item)
	case *ReferencedArray:
		return c.array(name, t, tt.item)
	case *Selective:
		start := c.open1(name, t)
		alts := make([]Alt, 0, len(tt.cases)+1)
		for _, cs := range tt.cases {
			lo := len(c.steps)
			if err := c.emit(name, cs.Type); err != nil {
				return fmt.Errorf("case %d: %w", cs.Key, err)
			}
			alts = append(alts, Alt{Key: cs.Key, Lo: lo, Hi: len(c.steps)})
		}
		if tt.def != nil {
			lo := len(c.steps)
			if err := c.emit(name, tt.def); err != nil {
				return fmt.Errorf("default case: %w", err)
			}
			alts = append(alts, Alt{Default: true, Lo: lo, Hi: len(c.steps)})
		}
		c.steps[start].Alts = alts
		c.close1(start)
		return nil
	}
	return fmt.Errorf("unsupported type %T", t)
}

func (c *compiler) array(name string, t, item Type) error {
	start := c.open1(name, t)
	if err := c.emit("", item); err != nil {
		return fmt.Errorf("item: %w", err)
	}
	c.close1(start)
	return nil
}

func (c *compiler) open1(name string, t Type) int {
	c.steps = append(c.steps, Step{Kind: StepStart, Name: name, Type: t})
	return len(c.steps) - 1
}

func (c *compiler) close1(start int) {
	c.steps = append(c.steps, Step{Kind: StepEnd, Name: c.steps[start].Name, Type: c.steps[start].Type})
	c.steps[start].End = len(c.steps) - 1
}
