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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/novatechflow/hwpscale/internal/metrics"
	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/record"
	"github.com/novatechflow/hwpscale/pkg/schema"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-record debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithCompiler replaces the process-wide template compiler.
func WithCompiler(c *schema.Compiler) Option {
	return func(b *Builder) { b.compiler = c }
}

// WithStream names the stream in diagnostics.
func WithStream(name string) Option {
	return func(b *Builder) { b.stream = name }
}

// WithStrict makes field decode failures fatal for the stream.
func WithStrict(strict bool) Option {
	return func(b *Builder) { b.strict = strict }
}

// Builder turns records into a node tree. It keeps an explicit stack of
// open nodes; after each Push the stack depth equals the record level + 1.
// A Builder decodes one stream and is not safe for concurrent use.
type Builder struct {
	registry *Registry
	compiler *schema.Compiler
	version  schema.Version
	stream   string
	strict   bool
	logger   *slog.Logger

	root  *Node
	stack []*Node
	diags []*diag.Error
	err   error
}

func NewBuilder(reg *Registry, version schema.Version, opts ...Option) *Builder {
	b := &Builder{
		registry: reg,
		compiler: schema.Default(),
		version:  version,
		logger:   slog.Default(),
		root:     newRoot(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Depth returns the number of open nodes below the root.
func (b *Builder) Depth() int { return len(b.stack) }

// Diagnostics returns every diagnostic recorded so far, fatal ones included.
func (b *Builder) Diagnostics() []*diag.Error {
	return append([]*diag.Error(nil), b.diags...)
}

// Err returns the fatal error that stopped the builder, if any.
func (b *Builder) Err() error { return b.err }

// Push places one record into the tree. It returns an error only when the
// stream cannot continue; per-record failures are kept as opaque nodes and
// diagnostics.
func (b *Builder) Push(rec *record.Record) error {
	if b.err != nil {
		return b.err
	}
	level := int(rec.Level)
	if level > len(b.stack) {
		de := (&diag.Error{
			Kind: diag.StructureInvalid,
			Err:  fmt.Errorf("%w: level %d at depth %d", diag.ErrLevelSkipped, level, len(b.stack)),
		}).WithRecord(b.stream, rec.Seq, rec.Tag)
		b.note(de)
		b.err = de
		return de
	}
	b.stack = b.stack[:level]
	parent := b.root
	if level > 0 {
		parent = b.stack[level-1]
	}

	node, err := b.decode(rec, parent)
	parent.attach(node)
	b.stack = append(b.stack, node)
	if err != nil {
		b.err = err
		return err
	}
	return nil
}

// Close ends the stream and returns the document root.
func (b *Builder) Close() *Node {
	b.stack = b.stack[:0]
	return b.root
}

func (b *Builder) decode(rec *record.Record, parent *Node) (*Node, error) {
	node := &Node{Tag: rec.Tag, Seq: rec.Seq, Level: int(rec.Level)}
	entry, ok := b.registry.Dispatch(Input{Record: rec, Parent: parent})
	if !ok {
		node.Raw = rec.Payload
		de := (&diag.Error{
			Kind: diag.DispatchUnresolved,
			Err:  fmt.Errorf("%w: %s", diag.ErrUnresolved, b.registry.TagName(rec.Tag)),
		}).WithRecord(b.stream, rec.Seq, rec.Tag)
		b.note(de)
		metrics.RecordsDecoded.WithLabelValues("opaque").Inc()
		b.logger.Debug("record kept opaque", "stream", b.stream, "seq", rec.Seq, "tag", b.registry.TagName(rec.Tag), "size", len(rec.Payload))
		return node, nil
	}
	node.Type = entry.Type
	node.Slot = entry.Slot

	ctx := &schema.Context{
		Version:   b.version,
		Ancestors: b.ancestors(),
		Report: func(e *diag.Error) {
			b.note(e.WithRecord(b.stream, rec.Seq, rec.Tag))
		},
	}
	vals, _, err := b.compiler.Resolve(entry.Type, ctx, rec.Payload)
	if err != nil {
		de, ok := diag.As(err)
		if !ok {
			de = diag.New(diag.FieldDecodeFailed, err)
		}
		de = de.WithRecord(b.stream, rec.Seq, rec.Tag)
		b.note(de)
		node.Raw = rec.Payload
		node.Err = de
		metrics.RecordsDecoded.WithLabelValues("failed").Inc()
		b.logger.Debug("record decode failed", "stream", b.stream, "seq", rec.Seq, "type", entry.Type.Name(), "error", de)
		if b.strict {
			return node, de
		}
		return node, nil
	}
	node.Value = vals
	metrics.RecordsDecoded.WithLabelValues("typed").Inc()
	return node, nil
}

func (b *Builder) ancestors() []schema.AncestorFrame {
	out := make([]schema.AncestorFrame, 0, len(b.stack))
	for _, n := range b.stack {
		if n.Type == nil || n.Value == nil {
			continue
		}
		out = append(out, schema.AncestorFrame{Type: n.Type, Values: n.Value})
	}
	return out
}

func (b *Builder) note(de *diag.Error) {
	b.diags = append(b.diags, de)
	metrics.Diagnostics.WithLabelValues(de.Kind.String()).Inc()
}

// Result is a decoded stream.
type Result struct {
	Root        *Node
	Diagnostics []*diag.Error
	Records     int
}

// Build reads rd to the end and returns the tree. A fatal stream error is
// returned together with the partial tree built before it; cancellation
// drops the tree.
func Build(ctx context.Context, reg *Registry, rd *record.Reader, version schema.Version, opts ...Option) (*Result, error) {
	b := NewBuilder(reg, version, opts...)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if de, ok := diag.As(err); ok {
				if de.Stream == "" {
					de.Stream = b.stream
				}
				b.note(de)
			}
			return &Result{Root: b.Close(), Diagnostics: b.Diagnostics(), Records: count}, err
		}
		count++
		if err := b.Push(rec); err != nil {
			return &Result{Root: b.Close(), Diagnostics: b.Diagnostics(), Records: count}, err
		}
	}
	return &Result{Root: b.Close(), Diagnostics: b.Diagnostics(), Records: count}, nil
}
