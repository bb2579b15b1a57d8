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

package hwp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/novatechflow/hwpscale/internal/metrics"
	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/record"
	"github.com/novatechflow/hwpscale/pkg/schema"
	"github.com/novatechflow/hwpscale/pkg/storage"
	"github.com/novatechflow/hwpscale/pkg/tree"
)

// Stream names inside a document container.
const (
	StreamFileHeader  = "FileHeader"
	StreamDocInfo     = "DocInfo"
	StreamPreviewText = "PrvText"
	BodyTextPrefix    = "BodyText/"
	sectionPrefix     = BodyTextPrefix + "Section"
)

// Section is one decoded BodyText stream.
type Section struct {
	Index   int
	Name    string
	Root    *tree.Node
	Records int
}

// Document is a decoded HWP document.
type Document struct {
	Header      *FileHeader
	DocInfo     *tree.Node
	Sections    []*Section
	PreviewText string
	Diagnostics []*diag.Error
}

// Text returns the plain text of all sections.
func (d *Document) Text() string {
	var b strings.Builder
	for _, s := range d.Sections {
		b.WriteString(PlainText(s.Root))
	}
	return b.String()
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

func WithLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) { d.logger = l }
}

// WithWorkers bounds the number of sections decoded concurrently.
func WithWorkers(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithStrict makes field decode failures fatal for their stream.
func WithStrict(strict bool) DecoderOption {
	return func(d *Decoder) { d.strict = strict }
}

func WithCompiler(c *schema.Compiler) DecoderOption {
	return func(d *Decoder) { d.compiler = c }
}

// Decoder turns a document container into a Document. It is safe for
// concurrent use; only the template caches are shared.
type Decoder struct {
	registry *tree.Registry
	compiler *schema.Compiler
	logger   *slog.Logger
	workers  int
	strict   bool
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		registry: NewRegistry(),
		compiler: schema.Default(),
		logger:   slog.Default(),
		workers:  4,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the dispatch registry used for record streams.
func (d *Decoder) Registry() *tree.Registry { return d.registry }

// Decode reads the file header, DocInfo and every body section of c. A
// fatal error in any stream is returned together with what was decoded.
func (d *Decoder) Decode(ctx context.Context, c storage.Container) (*Document, error) {
	raw, err := storage.ReadStream(ctx, c, StreamFileHeader)
	if err != nil {
		return nil, fmt.Errorf("read file header: %w", err)
	}
	header, err := ParseFileHeader(raw)
	if err != nil {
		return nil, err
	}
	if header.Distributable() {
		return nil, ErrDistributed
	}
	if header.Password() {
		return nil, ErrPassword
	}
	doc := &Document{Header: header}
	d.logger.Debug("decoding document", "version", header.Version.String(), "compressed", header.Compressed())

	info, err := d.DecodeStream(ctx, c, StreamDocInfo, header)
	if info != nil {
		doc.DocInfo = info.Root
		doc.Diagnostics = append(doc.Diagnostics, info.Diagnostics...)
	}
	if err != nil {
		return doc, fmt.Errorf("decode %s: %w", StreamDocInfo, err)
	}

	names, err := sectionNames(ctx, c)
	if err != nil {
		return doc, err
	}
	results := make([]*tree.Result, len(names))
	errs := make([]error, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			metrics.ActiveSections.Inc()
			defer metrics.ActiveSections.Dec()
			start := time.Now()
			res, err := d.DecodeStream(gctx, c, name, header)
			metrics.SectionDuration.Observe(float64(time.Since(start).Milliseconds()))
			results[i] = res
			errs[i] = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var firstErr error
	for i, res := range results {
		if res != nil {
			doc.Sections = append(doc.Sections, &Section{Index: i, Name: names[i], Root: res.Root, Records: res.Records})
			doc.Diagnostics = append(doc.Diagnostics, res.Diagnostics...)
		}
		if errs[i] != nil && firstErr == nil {
			firstErr = fmt.Errorf("decode %s: %w", names[i], errs[i])
		}
	}

	if preview, err := storage.ReadStream(ctx, c, StreamPreviewText); err == nil {
		doc.PreviewText, _ = schema.DecodeUTF16(preview)
	} else if !errors.Is(err, storage.ErrNotFound) {
		d.logger.Warn("preview text unreadable", "error", err)
	}
	return doc, firstErr
}

// DecodeStream decodes one record stream of c, inflating it when the header
// says streams are compressed.
func (d *Decoder) DecodeStream(ctx context.Context, c storage.Container, name string, header *FileHeader) (*tree.Result, error) {
	data, err := storage.ReadStream(ctx, c, name)
	if err != nil {
		return nil, err
	}
	metrics.StreamBytes.WithLabelValues("read").Add(float64(len(data)))
	if header.Compressed() {
		if data, err = storage.Inflate(data); err != nil {
			return nil, err
		}
	}
	rd := record.NewReader(bytes.NewReader(data))
	return tree.Build(ctx, d.registry, rd, header.Version,
		tree.WithStream(name),
		tree.WithLogger(d.logger),
		tree.WithCompiler(d.compiler),
		tree.WithStrict(d.strict),
	)
}

// sectionNames lists BodyText/SectionN streams ordered by N.
func sectionNames(ctx context.Context, c storage.Container) ([]string, error) {
	names, err := storage.ListPrefix(ctx, c, sectionPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	type indexed struct {
		name string
		n    int
	}
	out := make([]indexed, 0, len(names))
	for _, name := range names {
		n, err := strconv.Atoi(strings.TrimPrefix(name, sectionPrefix))
		if err != nil || n < 0 {
			continue
		}
		out = append(out, indexed{name: name, n: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n < out[j].n })
	sorted := make([]string, len(out))
	for i, s := range out {
		sorted[i] = s.name
	}
	return sorted, nil
}
