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

// Package tree assembles a flat, leveled record sequence into a typed
// document model.
package tree

import (
	"encoding/hex"

	"github.com/novatechflow/hwpscale/pkg/schema"
	"github.com/novatechflow/hwpscale/pkg/value"
)

// Node is one record of the document model, or the implicit root.
type Node struct {
	// Type is the dispatched schema, nil for the root and unresolved tags.
	Type  *schema.Struct
	Tag   uint32
	Seq   uint32
	Level int
	// Slot is the parent's named slot this node fills; empty when appended.
	Slot  string
	Value *value.Struct
	// Raw holds the payload of opaque nodes.
	Raw []byte
	// Err is the decode failure that made the node opaque, if any.
	Err error

	root     bool
	children []*Node
}

func newRoot() *Node {
	return &Node{root: true, Level: -1}
}

func (n *Node) IsRoot() bool { return n.root }

// Opaque reports whether the record was kept undecoded.
func (n *Node) Opaque() bool { return !n.root && n.Value == nil }

// Name returns the schema name, or "opaque".
func (n *Node) Name() string {
	switch {
	case n.root:
		return "document"
	case n.Type == nil:
		return "opaque"
	}
	return n.Type.Name()
}

func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }
func (n *Node) Len() int          { return len(n.children) }

// Child returns the first child attached under slot.
func (n *Node) Child(slot string) *Node {
	for _, c := range n.children {
		if c.Slot == slot {
			return c
		}
	}
	return nil
}

// ChildrenByTag returns children with the given record tag, in order.
func (n *Node) ChildrenByTag(tag uint32) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// ChildrenOf returns children whose type is t or extends it.
func (n *Node) ChildrenOf(t *schema.Struct) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Type != nil && c.Type.Is(t) {
			out = append(out, c)
		}
	}
	return out
}

// HasChildTag reports whether a child with tag was already attached.
func (n *Node) HasChildTag(tag uint32) bool {
	for _, c := range n.children {
		if c.Tag == tag {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first; returning false from fn
// skips the subtree.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		c.walk(fn, depth+1)
	}
}

func (n *Node) attach(c *Node) {
	n.children = append(n.children, c)
}

// Plain renders the subtree into maps and slices for JSON output.
func (n *Node) Plain() map[string]any {
	out := map[string]any{"type": n.Name()}
	if !n.root {
		out["tag"] = n.Tag
		out["seq"] = n.Seq
		out["level"] = n.Level
	}
	if n.Slot != "" {
		out["slot"] = n.Slot
	}
	if n.Value != nil {
		out["value"] = value.Plain(n.Value)
	}
	if n.Opaque() {
		out["raw"] = hex.EncodeToString(n.Raw)
	}
	if n.Err != nil {
		out["error"] = n.Err.Error()
	}
	if len(n.children) > 0 {
		kids := make([]any, 0, len(n.children))
		for _, c := range n.children {
			kids = append(kids, c.Plain())
		}
		out["children"] = kids
	}
	return out
}
