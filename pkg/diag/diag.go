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

package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a decoding failure by how far it propagates.
type Kind int

const (
	// StreamTruncated aborts the whole stream: a record header or payload ran
	// out of bytes and the reader cannot resynchronize.
	StreamTruncated Kind = iota + 1
	// FieldDecodeFailed aborts the enclosing record only.
	FieldDecodeFailed
	// DispatchUnresolved means no schema is registered for the record; the
	// record is kept opaque.
	DispatchUnresolved
	// SelectiveNoMatch means a tagged union key matched no case; the default
	// case was used.
	SelectiveNoMatch
	// StructureInvalid means record levels skipped a nesting step.
	StructureInvalid
)

func (k Kind) String() string {
	switch k {
	case StreamTruncated:
		return "stream_truncated"
	case FieldDecodeFailed:
		return "field_decode_failed"
	case DispatchUnresolved:
		return "dispatch_unresolved"
	case SelectiveNoMatch:
		return "selective_no_match"
	case StructureInvalid:
		return "structure_invalid"
	default:
		return "unknown"
	}
}

// Fatal reports whether the kind stops decoding of the whole stream.
func (k Kind) Fatal() bool {
	return k == StreamTruncated || k == StructureInvalid
}

var (
	ErrTruncatedField = errors.New("truncated field")
	ErrNoCase         = errors.New("selective key matched no case")
	ErrUnresolved     = errors.New("no schema registered")
	ErrLevelSkipped   = errors.New("record level skips a nesting step")
)

// Frame is one enclosing (type, field) pair at the time of a failure.
type Frame struct {
	Type  string
	Field string
}

func (f Frame) String() string {
	if f.Field == "" {
		return f.Type
	}
	return f.Type + "." + f.Field
}

// Error is the structured failure surfaced to callers. Stream, Seq and Tag are
// filled in by the tree builder; Offset and Frames by the resolver.
type Error struct {
	Kind   Kind
	Stream string
	Seq    uint32
	Tag    uint32
	HasRec bool
	Field  string
	Offset int
	Frames []Frame
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Stream != "" {
		fmt.Fprintf(&b, " stream=%s", e.Stream)
	}
	if e.HasRec {
		fmt.Fprintf(&b, " record=%d tag=%d", e.Seq, e.Tag)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field=%s", e.Field)
	}
	fmt.Fprintf(&b, " offset=%d", e.Offset)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// WithRecord returns a copy of e annotated with the record identity.
func (e *Error) WithRecord(stream string, seq, tag uint32) *Error {
	out := *e
	out.Stream = stream
	out.Seq = seq
	out.Tag = tag
	out.HasRec = true
	return &out
}

// Trace renders the error and its frame stack, innermost frame last.
func (e *Error) Trace() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for i, f := range e.Frames {
		fmt.Fprintf(&b, "\n  %s%s", strings.Repeat("  ", i), f)
	}
	return b.String()
}

// New builds an error of the given kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// As extracts a *Error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of err, or 0 when err carries no diagnostic.
func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	return 0
}
