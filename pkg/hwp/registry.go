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
	"encoding/binary"

	"github.com/novatechflow/hwpscale/pkg/schema"
	"github.com/novatechflow/hwpscale/pkg/tree"
)

// List header phases under a table control.
const (
	PhaseBeforeBody = "before_body"
	PhaseAfterBody  = "after_body"
)

// NewRegistry builds the dispatch registry for DocInfo and BodyText
// streams.
func NewRegistry() *tree.Registry {
	r := tree.NewRegistry()
	for tag, name := range opaqueTags {
		r.Name(tag, name)
	}

	r.Register(TagDocumentProperties, "DOCUMENT_PROPERTIES", DocumentProperties, "properties")
	r.Register(TagIDMappings, "ID_MAPPINGS", IDMappings, "id_mappings")
	r.Register(TagBinData, "BIN_DATA", BinData, "")
	r.Register(TagFaceName, "FACE_NAME", FaceName, "")
	r.Register(TagBorderFill, "BORDER_FILL", BorderFill, "")
	r.Register(TagCharShape, "CHAR_SHAPE", CharShape, "")
	r.Register(TagTabDef, "TAB_DEF", TabDef, "")
	r.Register(TagNumbering, "NUMBERING", Numbering, "")
	r.Register(TagBullet, "BULLET", Bullet, "")
	r.Register(TagParaShape, "PARA_SHAPE", ParaShape, "")
	r.Register(TagStyle, "STYLE", Style, "")
	r.Register(TagCompatibleDocument, "COMPATIBLE_DOCUMENT", CompatibleDocument, "compatible_document")
	r.Register(TagLayoutCompatibility, "LAYOUT_COMPATIBILITY", LayoutCompatibility, "layout")
	r.Register(TagMemoShape, "MEMO_SHAPE", MemoShape, "")

	r.Register(TagParaHeader, "PARA_HEADER", ParaHeader, "")
	r.Register(TagParaText, "PARA_TEXT", ParaText, "text")
	r.Register(TagParaCharShape, "PARA_CHAR_SHAPE", ParaCharShape, "charshapes")
	r.Register(TagParaLineSeg, "PARA_LINE_SEG", ParaLineSeg, "linesegs")
	r.Register(TagParaRangeTag, "PARA_RANGE_TAG", ParaRangeTag, "rangetags")
	r.Register(TagCtrlHeader, "CTRL_HEADER", Control, "")
	r.Register(TagListHeader, "LIST_HEADER", ListHeader, "")
	r.Register(TagPageDef, "PAGE_DEF", PageDef, "page_def")
	r.Register(TagFootnoteShape, "FOOTNOTE_SHAPE", FootnoteShape, "")
	r.Register(TagPageBorderFill, "PAGE_BORDER_FILL", PageBorderFill, "")
	r.Register(TagShapeComponent, "SHAPE_COMPONENT", ShapeComponent, "")
	r.Register(TagTable, "TABLE", TableBody, "table")
	r.Register(TagShapeComponentLine, "SHAPE_COMPONENT_LINE", ShapeLine, "line")
	r.Register(TagShapeComponentRectangle, "SHAPE_COMPONENT_RECTANGLE", ShapeRectangle, "rectangle")
	r.Register(TagShapeComponentEllipse, "SHAPE_COMPONENT_ELLIPSE", ShapeEllipse, "ellipse")
	r.Register(TagShapeComponentArc, "SHAPE_COMPONENT_ARC", ShapeArc, "arc")
	r.Register(TagShapeComponentPolygon, "SHAPE_COMPONENT_POLYGON", ShapePolygon, "polygon")
	r.Register(TagShapeComponentCurve, "SHAPE_COMPONENT_CURVE", ShapeCurve, "curve")
	r.Register(TagShapeComponentOLE, "SHAPE_COMPONENT_OLE", ShapeOLE, "ole")
	r.Register(TagShapeComponentPicture, "SHAPE_COMPONENT_PICTURE", ShapePicture, "picture")
	r.Register(TagShapeComponentContainer, "SHAPE_COMPONENT_CONTAINER", ShapeContainer, "container")
	r.Register(TagEqEdit, "EQEDIT", EqEdit, "eqedit")

	r.KeyBy(Control, controlKey)
	for chid, t := range controls {
		r.Extend(Control, tree.Key{Code: chid.Int64()}, t, "")
	}
	for _, id := range fieldChids {
		r.Extend(Control, tree.Key{Code: MakeChid(id).Int64()}, FieldControl, "")
	}

	r.KeyBy(ListHeader, listHeaderKey)
	r.Extend(ListHeader, tree.Key{Parent: TableControl, Code: tree.AnyCode, Phase: PhaseBeforeBody}, TableCaption, "caption")
	r.Extend(ListHeader, tree.Key{Parent: TableControl, Code: tree.AnyCode, Phase: PhaseAfterBody}, TableCell, "")
	r.Extend(ListHeader, tree.Key{Parent: GShapeObjectControl, Code: tree.AnyCode}, TableCaption, "caption")
	r.Extend(ListHeader, tree.Key{Parent: Header, Code: tree.AnyCode}, HeaderParagraphList, "paragraphs")
	r.Extend(ListHeader, tree.Key{Parent: Footer, Code: tree.AnyCode}, FooterParagraphList, "paragraphs")
	r.Extend(ListHeader, tree.Key{Parent: ShapeComponent, Code: tree.AnyCode}, TextboxParagraphList, "textbox")

	r.KeyBy(ShapeComponent, shapeComponentKey)
	r.Extend(ShapeComponent, tree.Key{Parent: GShapeObjectControl, Code: tree.AnyCode}, TopShapeComponent, "shape")
	r.Extend(ShapeComponent, tree.Key{Code: tree.AnyCode}, NestedShapeComponent, "")
	return r
}

var controls = map[Chid]*schema.Struct{
	ChidSectionDef: SectionDef,
	ChidColumnsDef: ColumnsDef,
	ChidTable:      TableControl,
	ChidGShape:     GShapeObjectControl,
	ChidEquation:   EquationControl,
	ChidHeader:     Header,
	ChidFooter:     Footer,
	ChidFootNote:   FootNote,
	ChidEndNote:    EndNote,
	ChidAutoNumber: AutoNumbering,
	ChidNewNumber:  NewNumbering,
	ChidPageHide:   PageHide,
	ChidPageNumPos: PageNumberPositionControl,
	ChidBookmark:   Bookmark,
	ChidIndexMark:  IndexMark,
	ChidHiddenComm: HiddenComment,
}

// controlKey reads the control id leading every CTRL_HEADER payload.
func controlKey(in tree.Input) tree.Key {
	if len(in.Record.Payload) < 4 {
		return tree.Key{Code: tree.AnyCode}
	}
	return tree.Key{Code: int64(binary.LittleEndian.Uint32(in.Record.Payload))}
}

// listHeaderKey distinguishes a table caption from its cells: captions come
// before the TABLE record, cells after it.
func listHeaderKey(in tree.Input) tree.Key {
	k := tree.Key{Parent: in.ParentType(), Code: tree.AnyCode}
	if in.Parent != nil && k.Parent != nil && k.Parent.Is(TableControl) {
		k.Phase = PhaseBeforeBody
		if in.Parent.HasChildTag(TagTable) {
			k.Phase = PhaseAfterBody
		}
	}
	return k
}

func shapeComponentKey(in tree.Input) tree.Key {
	return tree.Key{Parent: in.ParentType(), Code: tree.AnyCode}
}
