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

package tree

import (
	"fmt"
	"math"

	"github.com/novatechflow/hwpscale/pkg/record"
	"github.com/novatechflow/hwpscale/pkg/schema"
)

// AnyCode in a Key matches every payload code.
const AnyCode = math.MinInt64

// Key selects an extension of a base record type. A nil Parent, AnyCode or
// an empty Phase act as wildcards.
type Key struct {
	// Parent is the concrete type of the structural parent.
	Parent *schema.Struct
	// Code is a sub-type code read from the payload, such as a control id.
	Code int64
	// Phase names the record's position among its siblings.
	Phase string
}

// Input is what a keyer may inspect: the record and its structural parent
// with the children attached so far.
type Input struct {
	Record *record.Record
	Parent *Node
}

// ParentType returns the parent's schema, nil under the root.
func (in Input) ParentType() *schema.Struct {
	if in.Parent == nil {
		return nil
	}
	return in.Parent.Type
}

// Keyer computes the dispatch key of a record whose tag maps to a base type.
type Keyer func(in Input) Key

// Entry is a dispatch result: the concrete type and the parent slot it
// fills. An empty Slot appends.
type Entry struct {
	Type *schema.Struct
	Slot string
}

// Registry maps record tags to schemas. It is filled by a constructor and
// read-only afterwards.
type Registry struct {
	names  map[uint32]string
	tags   map[uint32]Entry
	keyers map[*schema.Struct]Keyer
	ext    map[*schema.Struct]map[Key]Entry
}

func NewRegistry() *Registry {
	return &Registry{
		names:  make(map[uint32]string),
		tags:   make(map[uint32]Entry),
		keyers: make(map[*schema.Struct]Keyer),
		ext:    make(map[*schema.Struct]map[Key]Entry),
	}
}

// Name records a display name for tag without binding a schema.
func (r *Registry) Name(tag uint32, name string) {
	r.names[tag] = name
}

// Register binds tag to its base type.
func (r *Registry) Register(tag uint32, name string, t *schema.Struct, slot string) {
	if _, dup := r.tags[tag]; dup {
		panic(fmt.Sprintf("tree: tag %d registered twice", tag))
	}
	r.names[tag] = name
	r.tags[tag] = Entry{Type: t, Slot: slot}
}

// KeyBy installs the keyer consulted when a record dispatches to base.
func (r *Registry) KeyBy(base *schema.Struct, k Keyer) {
	r.keyers[base] = k
}

// Extend binds key under base to a concrete type.
func (r *Registry) Extend(base *schema.Struct, key Key, t *schema.Struct, slot string) {
	m, ok := r.ext[base]
	if !ok {
		m = make(map[Key]Entry)
		r.ext[base] = m
	}
	m[key] = Entry{Type: t, Slot: slot}
}

// TagName returns the registered name of tag, or its number.
func (r *Registry) TagName(tag uint32) string {
	if n, ok := r.names[tag]; ok {
		return n
	}
	return fmt.Sprintf("tag_%d", tag)
}

// Known reports whether tag is bound to a schema.
func (r *Registry) Known(tag uint32) bool {
	_, ok := r.tags[tag]
	return ok
}

// maxExtensionDepth bounds chains of extensions that are themselves keyed.
const maxExtensionDepth = 8

// Dispatch resolves the concrete type of a record. The tag's base type is
// refined through its keyer as long as a more specific extension matches.
func (r *Registry) Dispatch(in Input) (Entry, bool) {
	entry, ok := r.tags[in.Record.Tag]
	if !ok {
		return Entry{}, false
	}
	for i := 0; i < maxExtensionDepth; i++ {
		keyer, ok := r.keyers[entry.Type]
		if !ok {
			break
		}
		next, ok := r.lookup(entry.Type, keyer(in))
		if !ok || next.Type == entry.Type {
			break
		}
		if next.Slot == "" {
			next.Slot = entry.Slot
		}
		entry = next
	}
	return entry, true
}

// lookup tries the most specific key first, then widens phase, code and
// parent (walking the parent's base chain before the wildcard).
func (r *Registry) lookup(base *schema.Struct, k Key) (Entry, bool) {
	m := r.ext[base]
	if len(m) == 0 {
		return Entry{}, false
	}
	var parents []*schema.Struct
	for p := k.Parent; p != nil; p = p.Base() {
		parents = append(parents, p)
	}
	parents = append(parents, nil)
	codes := []int64{k.Code}
	if k.Code != AnyCode {
		codes = append(codes, AnyCode)
	}
	phases := []string{k.Phase}
	if k.Phase != "" {
		phases = append(phases, "")
	}
	for _, p := range parents {
		for _, c := range codes {
			for _, ph := range phases {
				if e, ok := m[Key{Parent: p, Code: c, Phase: ph}]; ok {
					return e, true
				}
			}
		}
	}
	return Entry{}, false
}
