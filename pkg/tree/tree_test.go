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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/record"
	"github.com/novatechflow/hwpscale/pkg/schema"
)

const (
	tagEmpty  = 5
	tagPara   = 16
	tagText   = 17
	tagCtrl   = 18
	tagList   = 19
	tagTable  = 20
	tagUnused = 99
)

var (
	emptyType = schema.NewStruct("Empty")
	paraType  = schema.NewStruct("Para", schema.F("chars", schema.U16))
	textType  = schema.NewStruct("Text",
		schema.F("codes", schema.ReferencedArrayOf(schema.U16, schema.Ancestor(paraType, "chars"))),
	)
	ctrlType   = schema.NewStruct("Ctrl", schema.F("code", schema.U32))
	tableCtrl  = schema.Extend(ctrlType, "TableCtrl", schema.F("rows", schema.U16))
	listType   = schema.NewStruct("List", schema.F("paras", schema.U16))
	captionTyp = schema.Extend(listType, "Caption", schema.F("gap", schema.U8))
	cellType   = schema.Extend(listType, "Cell", schema.F("col", schema.U8))
	tableType  = schema.NewStruct("Table", schema.F("cols", schema.U16))
)

const tableCode = 0x74626c20

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(tagEmpty, "EMPTY", emptyType, "")
	r.Register(tagPara, "PARA", paraType, "")
	r.Register(tagText, "TEXT", textType, "text")
	r.Register(tagCtrl, "CTRL", ctrlType, "")
	r.Register(tagList, "LIST", listType, "")
	r.Register(tagTable, "TABLE", tableType, "table")
	r.KeyBy(ctrlType, func(in Input) Key {
		if len(in.Record.Payload) < 4 {
			return Key{Code: AnyCode}
		}
		return Key{Code: int64(binary.LittleEndian.Uint32(in.Record.Payload))}
	})
	r.Extend(ctrlType, Key{Code: tableCode}, tableCtrl, "")
	r.KeyBy(listType, func(in Input) Key {
		phase := "before_body"
		if in.Parent.HasChildTag(tagTable) {
			phase = "after_body"
		}
		return Key{Parent: in.ParentType(), Code: AnyCode, Phase: phase}
	})
	r.Extend(listType, Key{Parent: tableCtrl, Code: AnyCode, Phase: "before_body"}, captionTyp, "caption")
	r.Extend(listType, Key{Parent: tableCtrl, Code: AnyCode, Phase: "after_body"}, cellType, "")
	return r
}

func rec(seq uint32, tag uint32, level uint16, payload ...byte) *record.Record {
	return &record.Record{Tag: tag, Level: level, Seq: seq, Payload: payload}
}

func TestHeaderWithChildScenario(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x05, 0x00, 0x00, 0x00})
	if err := record.WriteRecord(&buf, tagEmpty, 1, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := Build(context.Background(), testRegistry(), record.NewReader(&buf), schema.MaxVersion)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Root.Len() != 1 {
		t.Fatalf("expected one root child, got %d", res.Root.Len())
	}
	first := res.Root.Children()[0]
	if first.Tag != tagEmpty || first.Len() != 1 {
		t.Fatalf("expected tag 5 with one child, got tag %d with %d", first.Tag, first.Len())
	}
	if child := first.Children()[0]; child.Level != 1 || child.Value == nil {
		t.Fatalf("unexpected child %+v", child)
	}
	if res.Records != 2 || len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected result records=%d diags=%v", res.Records, res.Diagnostics)
	}
}

func TestLevelStackInvariant(t *testing.T) {
	b := NewBuilder(testRegistry(), schema.MaxVersion)
	levels := []uint16{0, 1, 2, 2, 1, 0, 1, 0}
	for i, l := range levels {
		if err := b.Push(rec(uint32(i), tagEmpty, l)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		if b.Depth() != int(l)+1 {
			t.Fatalf("record %d: depth %d, want %d", i, b.Depth(), l+1)
		}
	}
	root := b.Close()
	if root.Len() != 3 {
		t.Fatalf("expected 3 top-level nodes, got %d", root.Len())
	}

	var depths []int
	root.Walk(func(n *Node, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	if diff := cmp.Diff([]int{0, 1, 2, 3, 3, 2, 1, 2, 1}, depths); diff != "" {
		t.Fatalf("walk depths (-want +got):\n%s", diff)
	}
}

func TestSkippedLevelIsFatal(t *testing.T) {
	b := NewBuilder(testRegistry(), schema.MaxVersion, WithStream("Section0"))
	if err := b.Push(rec(0, tagEmpty, 0)); err != nil {
		t.Fatalf("push: %v", err)
	}
	err := b.Push(rec(1, tagEmpty, 2))
	if err == nil {
		t.Fatalf("expected structural error")
	}
	if diag.KindOf(err) != diag.StructureInvalid || !errors.Is(err, diag.ErrLevelSkipped) {
		t.Fatalf("unexpected error %v", err)
	}
	if err := b.Push(rec(2, tagEmpty, 0)); err == nil {
		t.Fatalf("expected builder to stay failed")
	}
	de, _ := diag.As(err)
	if de.Stream != "Section0" || de.Seq != 1 {
		t.Fatalf("expected record identity, got %+v", de)
	}
}

func TestAncestorValuesReachChildren(t *testing.T) {
	b := NewBuilder(testRegistry(), schema.MaxVersion)
	pushAll(t, b,
		rec(0, tagPara, 0, 0x02, 0x00),
		rec(1, tagText, 1, 0x41, 0x00, 0x42, 0x00),
	)
	para := b.Close().Children()[0]
	text := para.Child("text")
	if text == nil || text.Value == nil {
		t.Fatalf("expected text slot, got %+v", para.Children())
	}
	if n, _ := text.Value.Int("codes", "1"); n != 0x42 {
		t.Fatalf("expected second code 0x42, got %x", n)
	}
}

func TestControlDispatchByPayloadCode(t *testing.T) {
	b := NewBuilder(testRegistry(), schema.MaxVersion)
	pushAll(t, b,
		rec(0, tagCtrl, 0, 0x20, 0x6c, 0x62, 0x74, 0x03, 0x00),
		rec(1, tagCtrl, 0, 0x01, 0x02, 0x03, 0x04),
	)
	kids := b.Close().Children()
	if kids[0].Type != tableCtrl {
		t.Fatalf("expected table control, got %s", kids[0].Name())
	}
	if rows, _ := kids[0].Value.Int("rows"); rows != 3 {
		t.Fatalf("expected 3 rows, got %d", rows)
	}
	if kids[1].Type != ctrlType {
		t.Fatalf("expected base control, got %s", kids[1].Name())
	}
}

func TestListHeaderPhase(t *testing.T) {
	b := NewBuilder(testRegistry(), schema.MaxVersion)
	pushAll(t, b,
		rec(0, tagCtrl, 0, 0x20, 0x6c, 0x62, 0x74, 0x01, 0x00),
		rec(1, tagList, 1, 0x01, 0x00, 0x09),
		rec(2, tagPara, 2, 0x00, 0x00),
		rec(3, tagTable, 1, 0x02, 0x00),
		rec(4, tagList, 1, 0x01, 0x00, 0x00),
		rec(5, tagList, 1, 0x01, 0x00, 0x01),
		rec(6, tagList, 0, 0x01, 0x00),
	)
	root := b.Close()
	table := root.Children()[0]
	if c := table.Child("caption"); c == nil || c.Type != captionTyp {
		t.Fatalf("expected caption slot, got %+v", c)
	}
	if table.Child("table") == nil {
		t.Fatalf("expected table body slot")
	}
	cells := table.ChildrenOf(cellType)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if col, _ := cells[1].Value.Int("col"); col != 1 {
		t.Fatalf("expected second cell col 1, got %d", col)
	}
	if len(table.ChildrenOf(listType)) != 3 {
		t.Fatalf("caption and cells should all extend the list header")
	}
	if top := root.Children()[1]; top.Type != listType {
		t.Fatalf("expected plain list at top level, got %s", top.Name())
	}
}

func TestUnknownAndBrokenRecordsStayOpaque(t *testing.T) {
	b := NewBuilder(testRegistry(), schema.MaxVersion, WithStream("DocInfo"))
	pushAll(t, b,
		rec(0, tagUnused, 0, 0xDE, 0xAD),
		rec(1, tagPara, 0, 0x01),
		rec(2, tagEmpty, 1),
		rec(3, tagPara, 0, 0x00, 0x00),
	)
	root := b.Close()
	kids := root.Children()
	if !kids[0].Opaque() || kids[0].Type != nil || !bytes.Equal(kids[0].Raw, []byte{0xDE, 0xAD}) {
		t.Fatalf("expected opaque unknown record, got %+v", kids[0])
	}
	if !kids[1].Opaque() || kids[1].Err == nil || kids[1].Type != paraType {
		t.Fatalf("expected failed para, got %+v", kids[1])
	}
	if kids[1].Len() != 1 {
		t.Fatalf("children of a failed record still attach")
	}
	if kids[2].Opaque() {
		t.Fatalf("decoding continues after a failed record")
	}

	var kinds []diag.Kind
	for _, d := range b.Diagnostics() {
		kinds = append(kinds, d.Kind)
		if d.Stream != "DocInfo" || !d.HasRec {
			t.Fatalf("diagnostic lacks record identity: %v", d)
		}
	}
	if diff := cmp.Diff([]diag.Kind{diag.DispatchUnresolved, diag.FieldDecodeFailed}, kinds); diff != "" {
		t.Fatalf("diagnostics (-want +got):\n%s", diff)
	}
}

func TestStrictModeStopsOnFieldFailure(t *testing.T) {
	b := NewBuilder(testRegistry(), schema.MaxVersion, WithStrict(true))
	err := b.Push(rec(0, tagPara, 0, 0x01))
	if diag.KindOf(err) != diag.FieldDecodeFailed {
		t.Fatalf("expected field failure, got %v", err)
	}
	if b.Err() == nil {
		t.Fatalf("expected sticky error")
	}
}

func TestBuildReportsTruncation(t *testing.T) {
	var buf bytes.Buffer
	if err := record.WriteRecord(&buf, tagPara, 0, []byte{0x00, 0x00}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf.Write([]byte{0x10, 0x00})
	res, err := Build(context.Background(), testRegistry(), record.NewReader(&buf), schema.MaxVersion, WithStream("Section1"))
	if diag.KindOf(err) != diag.StreamTruncated {
		t.Fatalf("expected truncation, got %v", err)
	}
	if res == nil || res.Root.Len() != 1 {
		t.Fatalf("expected partial tree with one record")
	}
	last := res.Diagnostics[len(res.Diagnostics)-1]
	if last.Kind != diag.StreamTruncated || last.Stream != "Section1" {
		t.Fatalf("unexpected diagnostic %v", last)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, testRegistry(), record.NewReader(bytes.NewReader(nil)), schema.MaxVersion); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func pushAll(t *testing.T, b *Builder, recs ...*record.Record) {
	t.Helper()
	for _, r := range recs {
		if err := b.Push(r); err != nil {
			t.Fatalf("push %s: %v", r, err)
		}
	}
}
