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
	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/value"
)

// AncestorFrame is an open enclosing record and its resolved values.
type AncestorFrame struct {
	Type   Type
	Values *value.Struct
}

// Context carries what a resolution may consult besides its own bytes. It is
// read-only while a record resolves.
type Context struct {
	Version Version
	// Ancestors lists enclosing records, outermost first.
	Ancestors []AncestorFrame
	// Report receives non-fatal diagnostics such as SelectiveNoMatch.
	Report func(*diag.Error)
}

// NewContext returns a context for version with no ancestors.
func NewContext(v Version) *Context {
	return &Context{Version: v}
}

// Nearest returns the values of the innermost ancestor whose type is t or
// extends t.
func (c *Context) Nearest(t *Struct) (*value.Struct, bool) {
	if c == nil {
		return nil, false
	}
	for i := len(c.Ancestors) - 1; i >= 0; i-- {
		a := c.Ancestors[i]
		s, ok := a.Type.(*Struct)
		if !ok || a.Values == nil {
			continue
		}
		if s.Is(t) {
			return a.Values, true
		}
	}
	return nil, false
}

func (c *Context) report(err *diag.Error) {
	if c != nil && c.Report != nil {
		c.Report(err)
	}
}
