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
	"github.com/novatechflow/hwpscale/pkg/schema"
	"github.com/novatechflow/hwpscale/pkg/value"
)

var paraTextCount = schema.NewFlags("ParaTextCount", schema.U32,
	schema.Bits("chars", 0, 30),
	schema.Bit("unknown", 31),
)

var paraSplit = schema.NewFlags("ParaSplit", schema.U8,
	schema.Bit("new_section", 0),
	schema.Bit("new_columnsdef", 1),
	schema.Bit("new_page", 2),
	schema.Bit("new_column", 3),
)

var ParaHeader = schema.NewStruct("ParaHeader",
	schema.F("text", paraTextCount),
	schema.F("controlmask", schema.U32),
	schema.F("parashape_id", schema.U16),
	schema.F("style_id", schema.U8),
	schema.F("split", paraSplit),
	schema.F("charshapes", schema.U16),
	schema.F("rangetags", schema.U16),
	schema.F("linesegs", schema.U16),
	schema.F("instance_id", schema.U32),
	schema.F("change_tracking_id", schema.U16).Since(v5032),
)

var ParaText = schema.NewStruct("ParaText",
	schema.F("text", PARATEXT),
)

var CharShapePos = schema.NewStruct("CharShapePos",
	schema.F("pos", schema.U32),
	schema.F("charshape_id", schema.U32),
)

var ParaCharShape = schema.NewStruct("ParaCharShape",
	schema.F("runs", schema.ReferencedArrayOf(CharShapePos, schema.Ancestor(ParaHeader, "charshapes"))),
)

var lineSegFlags = schema.NewFlags("LineSegFlags", schema.U32,
	schema.Bit("first_in_page", 0),
	schema.Bit("first_in_column", 1),
	schema.Bit("empty", 16),
	schema.Bit("line_head", 17),
	schema.Bit("line_tail", 18),
	schema.Bit("auto_hyphen", 19),
	schema.Bit("indented", 20),
	schema.Bit("heading_applied", 21),
)

var LineSeg = schema.NewStruct("LineSeg",
	schema.F("chpos", schema.U32),
	schema.F("y", SHWPUNIT),
	schema.F("height", SHWPUNIT),
	schema.F("height_text", SHWPUNIT),
	schema.F("height_baseline", SHWPUNIT),
	schema.F("space_below", SHWPUNIT),
	schema.F("x", SHWPUNIT),
	schema.F("width", SHWPUNIT),
	schema.F("flags", lineSegFlags),
)

var ParaLineSeg = schema.NewStruct("ParaLineSeg",
	schema.F("linesegs", schema.ReferencedArrayOf(LineSeg, schema.Ancestor(ParaHeader, "linesegs"))),
)

var RangeTag = schema.NewStruct("RangeTag",
	schema.F("start", schema.U32),
	schema.F("end", schema.U32),
	schema.F("tag", schema.U32),
)

var ParaRangeTag = schema.NewStruct("ParaRangeTag",
	schema.F("range_tags", schema.ReferencedArrayOf(RangeTag, schema.Ancestor(ParaHeader, "rangetags"))),
)

// Control is the base of every CTRL_HEADER record; the chid selects the
// concrete control.
var Control = schema.NewStruct("Control",
	schema.F("chid", CHID),
)

var sectionFlags = schema.NewFlags("SectionDefFlags", schema.U32,
	schema.Bit("hide_header", 0),
	schema.Bit("hide_footer", 1),
	schema.Bit("hide_page", 2),
	schema.Bit("hide_border", 3),
	schema.Bit("hide_background", 4),
	schema.Bit("hide_pagenumber", 5),
	schema.Bit("show_border_on_first_page", 8),
	schema.Bit("show_background_on_first_page", 9),
	schema.Bits("text_direction", 16, 18),
	schema.Bit("hide_blank_line", 19),
	schema.Bits("pagenum_on_split_section", 20, 21),
	schema.Bit("squared_manuscript_paper", 22),
)

var SectionDef = schema.Extend(Control, "SectionDef",
	schema.F("flags", sectionFlags),
	schema.F("columnspacing", HWPUNIT16),
	schema.F("grid_vertical", HWPUNIT16),
	schema.F("grid_horizontal", HWPUNIT16),
	schema.F("default_tabstops", HWPUNIT),
	schema.F("numbering_shape_id", schema.U16),
	schema.F("starting_pagenum", schema.U16),
	schema.F("starting_picturenum", schema.U16),
	schema.F("starting_tablenum", schema.U16),
	schema.F("starting_equationnum", schema.U16),
)

var columnsKind = schema.NewEnum("ColumnsKind", nil, schema.Items("normal", "distribute", "parallel")...)

var columnsDirection = schema.NewEnum("ColumnsDirection", nil, schema.Items("l2r", "r2l", "both")...)

var columnsFlags = schema.NewFlags("ColumnsDefFlags", schema.U16,
	schema.EnumBits("kind", 0, 1, columnsKind),
	schema.Bits("count", 2, 9),
	schema.EnumBits("direction", 10, 11, columnsDirection),
	schema.Bit("same_widths", 12),
)

var ColumnsDef = schema.Extend(Control, "ColumnsDef",
	schema.F("flags", columnsFlags),
	schema.F("spacing", HWPUNIT16),
	schema.F("widths", schema.ReferencedArrayOf(schema.U16, schema.Sibling("flags", "count"))).If(schema.Not(schema.IfSet("flags", "same_widths"))),
	schema.F("attr2", schema.U16),
	schema.F("splitter_stroke_type", strokeType),
	schema.F("splitter_width", strokeWidth),
	schema.F("splitter_color", COLORREF),
)

var vRelTo = schema.NewEnum("VRelTo", nil, schema.Items("paper", "page", "paragraph")...)

var hRelTo = schema.NewEnum("HRelTo", nil, schema.Items("paper", "page", "column", "paragraph")...)

var flowKind = schema.NewEnum("Flow", nil, schema.Items("float", "block", "back", "front")...)

var commonControlFlags = schema.NewFlags("CommonControlFlags", schema.U32,
	schema.Bit("inline", 0),
	schema.Bit("affect_line_spacing", 2),
	schema.EnumBits("vrelto", 3, 4, vRelTo),
	schema.Bits("valign", 5, 7),
	schema.EnumBits("hrelto", 8, 9, hRelTo),
	schema.Bits("halign", 10, 12),
	schema.Bit("restrict_in_page", 13),
	schema.Bit("overlap_others", 14),
	schema.Bits("width_relto", 15, 17),
	schema.Bits("height_relto", 18, 19),
	schema.Bit("protect_size_when_vrelto_paragraph", 20),
	schema.EnumBits("flow", 21, 23, flowKind),
	schema.Bits("text_side", 24, 25),
	schema.Bits("number_category", 26, 27),
)

var Margin = schema.NewStruct("Margin",
	schema.F("left", HWPUNIT16),
	schema.F("right", HWPUNIT16),
	schema.F("top", HWPUNIT16),
	schema.F("bottom", HWPUNIT16),
)

// CommonControl is the object-placement header shared by tables, drawing
// objects and equations.
var CommonControl = schema.Extend(Control, "CommonControl",
	schema.F("flags", commonControlFlags),
	schema.F("y", SHWPUNIT),
	schema.F("x", SHWPUNIT),
	schema.F("width", HWPUNIT),
	schema.F("height", HWPUNIT),
	schema.F("z_order", schema.I32),
	schema.F("margin", Margin),
	schema.F("instance_id", schema.U32),
	schema.F("prevent_page_break", schema.I32).Since(v5005),
	schema.F("description", schema.BStr).Since(v5005),
)

var TableControl = schema.Extend(CommonControl, "TableControl")

var GShapeObjectControl = schema.Extend(CommonControl, "GShapeObjectControl")

var EquationControl = schema.Extend(CommonControl, "EquationControl")

var pagesKind = schema.NewEnum("Places", nil, schema.Items("both", "even", "odd")...)

var headerFooterFlags = schema.NewFlags("HeaderFooterFlags", schema.U32,
	schema.EnumBits("places", 0, 1, pagesKind),
)

var Header = schema.Extend(Control, "Header",
	schema.F("flags", headerFooterFlags),
)

var Footer = schema.Extend(Control, "Footer",
	schema.F("flags", headerFooterFlags),
)

var FootNote = schema.Extend(Control, "FootNote",
	schema.F("number", schema.U32),
)

var EndNote = schema.Extend(Control, "EndNote",
	schema.F("number", schema.U32),
)

var numberKind = schema.NewEnum("NumberKind", nil, schema.Items("page", "footnote", "endnote", "picture", "table", "equation")...)

var numberingFlags = schema.NewFlags("AutoNumberingFlags", schema.U32,
	schema.EnumBits("kind", 0, 3, numberKind),
	schema.Bits("shape", 4, 11),
	schema.Bit("superscript", 12),
)

var AutoNumbering = schema.Extend(Control, "AutoNumbering",
	schema.F("flags", numberingFlags),
	schema.F("number", schema.U16),
	schema.F("usersymbol", schema.WChar),
	schema.F("prefix", schema.WChar),
	schema.F("suffix", schema.WChar),
)

var NewNumbering = schema.Extend(Control, "NewNumbering",
	schema.F("flags", numberingFlags),
	schema.F("number", schema.U16),
)

var pageHideFlags = schema.NewFlags("PageHideFlags", schema.U32,
	schema.Bit("header", 0),
	schema.Bit("footer", 1),
	schema.Bit("basepage", 2),
	schema.Bit("pageborder", 3),
	schema.Bit("pagefill", 4),
	schema.Bit("pagenumber", 5),
)

var PageHide = schema.Extend(Control, "PageHide",
	schema.F("flags", pageHideFlags),
)

var pageNumberPosition = schema.NewEnum("PageNumberPosition", nil, schema.Items(
	"none", "top_left", "top_center", "top_right", "bottom_left", "bottom_center",
	"bottom_right", "outside_top", "outside_bottom", "inside_top", "inside_bottom",
)...)

var pageNumberFlags = schema.NewFlags("PageNumberFlags", schema.U32,
	schema.Bits("shape", 0, 7),
	schema.EnumBits("position", 8, 11, pageNumberPosition),
)

var PageNumberPositionControl = schema.Extend(Control, "PageNumberPosition",
	schema.F("flags", pageNumberFlags),
	schema.F("usersymbol", schema.WChar),
	schema.F("prefix", schema.WChar),
	schema.F("suffix", schema.WChar),
	schema.F("dash", schema.WChar),
)

var Bookmark = schema.Extend(Control, "Bookmark")

var IndexMark = schema.Extend(Control, "IndexMark",
	schema.F("keyword1", schema.BStr),
	schema.F("keyword2", schema.BStr),
)

var HiddenComment = schema.Extend(Control, "HiddenComment")

var fieldFlags = schema.NewFlags("FieldFlags", schema.U32,
	schema.Bit("editable_in_form_mode", 0),
	schema.Bits("hyperlink_kind", 11, 14),
	schema.Bit("modified", 15),
)

// FieldControl is a field-begin control ("%hlk", "%clk", ...).
var FieldControl = schema.Extend(Control, "Field",
	schema.F("flags", fieldFlags),
	schema.F("extra_attr", schema.U8),
	schema.F("command", schema.BStr),
	schema.F("id", schema.U32),
)

var textDirection = schema.NewEnum("TextDirection", nil, schema.Items("horizontal", "vertical")...)

var vAlign = schema.NewEnum("VAlign", nil, schema.Items("top", "middle", "bottom")...)

var listFlags = schema.NewFlags("ListFlags", schema.U32,
	schema.EnumBits("textdirection", 0, 2, textDirection),
	schema.Bits("linebreak", 3, 4),
	schema.EnumBits("valign", 5, 6, vAlign),
)

// ListHeader opens a paragraph list; its meaning depends on where it sits.
var ListHeader = schema.NewStruct("ListHeader",
	schema.F("paragraphs", schema.U16),
	schema.F("unknown1", schema.U16),
	schema.F("listflags", listFlags),
)

var captionPosition = schema.NewEnum("CaptionPosition", nil, schema.Items("left", "right", "top", "bottom")...)

var captionFlags = schema.NewFlags("CaptionFlags", schema.U32,
	schema.EnumBits("position", 0, 1, captionPosition),
	schema.Bit("include_margin", 2),
)

var TableCaption = schema.Extend(ListHeader, "TableCaption",
	schema.F("flags", captionFlags),
	schema.F("width", HWPUNIT),
	schema.F("separation", HWPUNIT16),
	schema.F("max_width", HWPUNIT),
)

var TableCell = schema.Extend(ListHeader, "TableCell",
	schema.F("col", schema.U16),
	schema.F("row", schema.U16),
	schema.F("colspan", schema.U16),
	schema.F("rowspan", schema.U16),
	schema.F("width", HWPUNIT),
	schema.F("height", HWPUNIT),
	schema.F("padding", Margin),
	schema.F("borderfill_id", schema.U16),
)

var headerFooterList = []schema.Field{
	schema.F("width", HWPUNIT),
	schema.F("height", HWPUNIT),
	schema.F("text_ref", schema.U8),
	schema.F("number_ref", schema.U8),
}

var HeaderParagraphList = schema.Extend(ListHeader, "HeaderParagraphList", headerFooterList...)

var FooterParagraphList = schema.Extend(ListHeader, "FooterParagraphList", headerFooterList...)

var TextboxParagraphList = schema.Extend(ListHeader, "TextboxParagraphList",
	schema.F("padding", Margin),
	schema.F("max_width", HWPUNIT),
)

var pageDefFlags = schema.NewFlags("PageDefFlags", schema.U32,
	schema.Bit("landscape", 0),
	schema.Bits("bookbinding", 1, 2),
)

var PageDef = schema.NewStruct("PageDef",
	schema.F("width", HWPUNIT),
	schema.F("height", HWPUNIT),
	schema.F("offset_left", HWPUNIT),
	schema.F("offset_right", HWPUNIT),
	schema.F("offset_top", HWPUNIT),
	schema.F("offset_bottom", HWPUNIT),
	schema.F("offset_header", HWPUNIT),
	schema.F("offset_footer", HWPUNIT),
	schema.F("bookbinding_offset", HWPUNIT),
	schema.F("flags", pageDefFlags),
)

var FootnoteShape = schema.NewStruct("FootnoteShape",
	schema.F("flags", schema.U32),
	schema.F("usersymbol", schema.WChar),
	schema.F("prefix", schema.WChar),
	schema.F("suffix", schema.WChar),
	schema.F("starting_number", schema.U16),
	schema.F("splitter_length", HWPUNIT16),
	schema.F("splitter_margin_top", HWPUNIT16),
	schema.F("splitter_margin_bottom", HWPUNIT16),
	schema.F("notes_spacing", HWPUNIT16),
	schema.F("splitter_stroke_type", strokeType),
	schema.F("splitter_width", strokeWidth),
	schema.F("splitter_color", COLORREF),
)

var pageBorderFillFlags = schema.NewFlags("PageBorderFillFlags", schema.U32,
	schema.Bit("relative_to_paper", 0),
	schema.Bit("include_header", 1),
	schema.Bit("include_footer", 2),
	schema.Bits("fill", 3, 4),
)

var PageBorderFill = schema.NewStruct("PageBorderFill",
	schema.F("flags", pageBorderFillFlags),
	schema.F("margin", Margin),
	schema.F("borderfill_id", schema.U16),
)

var splitPage = schema.NewEnum("SplitPage", nil, schema.Items("none", "by_cell", "split")...)

var tableFlags = schema.NewFlags("TableFlags", schema.U32,
	schema.EnumBits("split_page", 0, 1, splitPage),
	schema.Bit("repeat_header", 2),
)

var ZoneInfo = schema.NewStruct("ZoneInfo",
	schema.F("starting_column", schema.U16),
	schema.F("starting_row", schema.U16),
	schema.F("end_column", schema.U16),
	schema.F("end_row", schema.U16),
	schema.F("borderfill_id", schema.U16),
)

var TableBody = schema.NewStruct("TableBody",
	schema.F("flags", tableFlags),
	schema.F("rows", schema.U16),
	schema.F("cols", schema.U16),
	schema.F("cellspacing", HWPUNIT16),
	schema.F("padding", Margin),
	schema.F("row_cols", schema.ReferencedArrayOf(schema.U16, schema.Sibling("rows"))),
	schema.F("borderfill_id", schema.U16),
	schema.F("valid_zones", schema.CountedArrayOf(schema.U16, ZoneInfo)).Since(v5007),
)

var Coord = schema.NewStruct("Coord",
	schema.F("x", SHWPUNIT),
	schema.F("y", SHWPUNIT),
)

var Matrix = schema.FixedArrayOf(schema.F64, 6)

var ScaleRotation = schema.NewStruct("ScaleRotation",
	schema.F("scaler", Matrix),
	schema.F("rotator", Matrix),
)

var lineEndFlags = schema.NewFlags("BorderLineFlags", schema.U32,
	schema.Bits("stroke", 0, 5),
	schema.Bits("line_end", 6, 9),
	schema.Bits("arrow_start", 10, 15),
	schema.Bits("arrow_end", 16, 21),
	schema.Bits("arrow_start_size", 22, 25),
	schema.Bits("arrow_end_size", 26, 29),
	schema.Bit("arrow_start_fill", 30),
	schema.Bit("arrow_end_fill", 31),
)

var BorderLine = schema.NewStruct("BorderLine",
	schema.F("color", COLORREF),
	schema.F("width", schema.I32),
	schema.F("flags", lineEndFlags),
)

// ShapeOutline is the line and fill carried by every drawing object except
// containers.
var ShapeOutline = schema.NewStruct("ShapeOutline", append([]schema.Field{
	schema.F("border", BorderLine),
}, fillFields()...)...)

var noOutline = schema.NewStruct("NoOutline")

var shapeFlags = schema.NewFlags("ShapeFlags", schema.U32,
	schema.Bit("flip_horizontal", 0),
	schema.Bit("flip_vertical", 1),
)

var shapeOutline = schema.SelectOn(schema.Sibling("chid"), nil,
	schema.On(ChidLine.Int64(), ShapeOutline),
	schema.On(ChidRectangle.Int64(), ShapeOutline),
	schema.On(ChidEllipse.Int64(), ShapeOutline),
	schema.On(ChidArc.Int64(), ShapeOutline),
	schema.On(ChidPolygon.Int64(), ShapeOutline),
	schema.On(ChidCurve.Int64(), ShapeOutline),
	schema.On(ChidOLE.Int64(), ShapeOutline),
	schema.On(ChidPicture.Int64(), ShapeOutline),
	schema.On(ChidTextArt.Int64(), ShapeOutline),
	schema.On(ChidContainer.Int64(), noOutline),
)

func shapeFields() []schema.Field {
	return []schema.Field{
		schema.F("chid", CHID),
		schema.F("x_in_group", SHWPUNIT),
		schema.F("y_in_group", SHWPUNIT),
		schema.F("level_in_group", schema.U16),
		schema.F("local_version", schema.U16),
		schema.F("initial_width", HWPUNIT),
		schema.F("initial_height", HWPUNIT),
		schema.F("width", HWPUNIT),
		schema.F("height", HWPUNIT),
		schema.F("flags", shapeFlags),
		schema.F("angle", schema.U16),
		schema.F("rotation_center", Coord),
		schema.F("scalerotations_count", schema.U16),
		schema.F("translation", Matrix),
		schema.F("scalerotations", schema.ReferencedArrayOf(ScaleRotation, schema.Sibling("scalerotations_count"))),
		schema.F("outline", shapeOutline),
	}
}

// ShapeComponent is the base of SHAPE_COMPONENT records. The record directly
// under a drawing-object control repeats the control id before its own.
var ShapeComponent = schema.NewStruct("ShapeComponent")

var TopShapeComponent = schema.Extend(ShapeComponent, "TopShapeComponent",
	append([]schema.Field{schema.F("ctrl_chid", CHID)}, shapeFields()...)...)

var NestedShapeComponent = schema.Extend(ShapeComponent, "NestedShapeComponent", shapeFields()...)

var ShapeLine = schema.NewStruct("ShapeLine",
	schema.F("p0", Coord),
	schema.F("p1", Coord),
	schema.F("attr", schema.U16),
)

var ShapeRectangle = schema.NewStruct("ShapeRectangle",
	schema.F("round", schema.U8),
	schema.F("p0", Coord),
	schema.F("p1", Coord),
	schema.F("p2", Coord),
	schema.F("p3", Coord),
)

var ellipseFlags = schema.NewFlags("EllipseFlags", schema.U32,
	schema.Bit("interval_dirty", 0),
	schema.Bit("has_arc", 1),
	schema.Bits("arc_kind", 2, 9),
)

var ShapeEllipse = schema.NewStruct("ShapeEllipse",
	schema.F("flags", ellipseFlags),
	schema.F("center", Coord),
	schema.F("axis1", Coord),
	schema.F("axis2", Coord),
	schema.F("start", Coord),
	schema.F("end", Coord),
	schema.F("start2", Coord),
	schema.F("end2", Coord),
)

var arcKind = schema.NewEnum("ArcKind", schema.U8, schema.Items("arc", "circular_sector", "bow")...)

var ShapeArc = schema.NewStruct("ShapeArc",
	schema.F("kind", arcKind),
	schema.F("center", Coord),
	schema.F("axis1", Coord),
	schema.F("axis2", Coord),
)

var ShapePolygon = schema.NewStruct("ShapePolygon",
	schema.F("count", schema.U16),
	schema.F("points", schema.ReferencedArrayOf(Coord, schema.Sibling("count"))),
)

var segmentKind = schema.NewEnum("SegmentKind", schema.U8, schema.Items("line", "curve")...)

// curveSegments is one less than the point count.
var curveSegments = schema.RefFunc("ShapeCurve.segments", func(_ *schema.Context, cur *value.Struct) (int64, error) {
	n, _ := cur.Int("count")
	if n < 1 {
		return 0, nil
	}
	return n - 1, nil
})

var ShapeCurve = schema.NewStruct("ShapeCurve",
	schema.F("count", schema.U16),
	schema.F("points", schema.ReferencedArrayOf(Coord, schema.Sibling("count"))),
	schema.F("segments", schema.ReferencedArrayOf(segmentKind, curveSegments)),
)

var oleObjectType = schema.NewEnum("OLEObjectType", nil, schema.Items("unknown", "embedded", "link", "static", "equation")...)

var oleFlags = schema.NewFlags("OLEFlags", schema.U32,
	schema.Bits("dvaspect", 0, 7),
	schema.Bit("moniker", 8),
	schema.Bits("baseline", 9, 15),
	schema.EnumBits("object_type", 16, 21, oleObjectType),
)

var ShapeOLE = schema.NewStruct("ShapeOLE",
	schema.F("flags", oleFlags),
	schema.F("extent_x", schema.I32),
	schema.F("extent_y", schema.I32),
	schema.F("storage_id", schema.U16),
	schema.F("border", BorderLine),
)

var Crop = schema.NewStruct("Crop",
	schema.F("left", schema.I32),
	schema.F("top", schema.I32),
	schema.F("right", schema.I32),
	schema.F("bottom", schema.I32),
)

var ShapePicture = schema.NewStruct("ShapePicture",
	schema.F("border", BorderLine),
	schema.F("rect", schema.FixedArrayOf(Coord, 4)),
	schema.F("crop", Crop),
	schema.F("padding", Margin),
	schema.F("picture", PictureInfo),
)

var ShapeContainer = schema.NewStruct("ShapeContainer",
	schema.F("count", schema.U16),
	schema.F("chids", schema.ReferencedArrayOf(CHID, schema.Sibling("count"))),
)

var EqEdit = schema.NewStruct("EqEdit",
	schema.F("attr", schema.U32),
	schema.F("script", schema.BStr),
	schema.F("font_size", HWPUNIT),
	schema.F("color", COLORREF),
	schema.F("baseline", schema.I16),
)
