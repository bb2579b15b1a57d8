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
)

// Version cutoffs observed for optional trailing fields.
var (
	v5005 = schema.V(5, 0, 0, 5)
	v5007 = schema.V(5, 0, 0, 7)
	v5017 = schema.V(5, 0, 1, 7)
	v5021 = schema.V(5, 0, 2, 1)
	v5025 = schema.V(5, 0, 2, 5)
	v5030 = schema.V(5, 0, 3, 0)
	v5032 = schema.V(5, 0, 3, 2)
)

// langs is the number of per-script settings in character shapes: Korean,
// English, Chinese, Japanese, other, symbol, user.
const langs = 7

var DocumentProperties = schema.NewStruct("DocumentProperties",
	schema.F("section_count", schema.U16),
	schema.F("page_startnum", schema.U16),
	schema.F("footnote_startnum", schema.U16),
	schema.F("endnote_startnum", schema.U16),
	schema.F("picture_startnum", schema.U16),
	schema.F("table_startnum", schema.U16),
	schema.F("math_startnum", schema.U16),
	schema.F("list_id", schema.U32),
	schema.F("paragraph_id", schema.U32),
	schema.F("char_unit_loc_in_paragraph", schema.U32),
)

var IDMappings = schema.NewStruct("IdMappings",
	schema.F("bindata", schema.U32),
	schema.F("ko_fonts", schema.U32),
	schema.F("en_fonts", schema.U32),
	schema.F("cn_fonts", schema.U32),
	schema.F("jp_fonts", schema.U32),
	schema.F("other_fonts", schema.U32),
	schema.F("symbol_fonts", schema.U32),
	schema.F("user_fonts", schema.U32),
	schema.F("borderfills", schema.U32),
	schema.F("charshapes", schema.U32),
	schema.F("tabdefs", schema.U32),
	schema.F("numberings", schema.U32),
	schema.F("bullets", schema.U32),
	schema.F("parashapes", schema.U32),
	schema.F("styles", schema.U32),
	schema.F("memoshapes", schema.U32).Since(v5021),
	schema.F("trackchanges", schema.U32).Since(v5032),
	schema.F("trackchange_authors", schema.U32).Since(v5032),
)

var binStorage = schema.NewEnum("BinStorageType", nil, schema.Items("link", "embedding", "storage")...)

var binCompression = schema.NewEnum("BinCompression", nil, schema.Items("storage_default", "yes", "no")...)

var binAccess = schema.NewEnum("BinAccess", nil, schema.Items("never", "ok", "failed", "failed_ignored")...)

var binDataFlags = schema.NewFlags("BinDataFlags", schema.U16,
	schema.EnumBits("storage", 0, 3, binStorage),
	schema.EnumBits("compression", 4, 5, binCompression),
	schema.EnumBits("access", 8, 9, binAccess),
)

var BinDataLink = schema.NewStruct("BinDataLink",
	schema.F("abspath", schema.BStr),
	schema.F("relpath", schema.BStr),
)

var BinDataEmbedding = schema.NewStruct("BinDataEmbedding",
	schema.F("storage_id", schema.U16),
	schema.F("ext", schema.BStr),
)

var BinDataStorage = schema.NewStruct("BinDataStorage",
	schema.F("storage_id", schema.U16),
)

var BinData = schema.NewStruct("BinData",
	schema.F("flags", binDataFlags),
	schema.F("bindata", schema.SelectOn(schema.Sibling("flags", "storage"), nil,
		schema.On(binStorage.Code("link"), BinDataLink),
		schema.On(binStorage.Code("embedding"), BinDataEmbedding),
		schema.On(binStorage.Code("storage"), BinDataStorage),
	)),
)

var alternateFontType = schema.NewEnum("AlternateFontType", schema.U8, schema.Items("unknown", "ttf", "hft")...)

var faceNameFlags = schema.NewFlags("FaceNameFlags", schema.U8,
	schema.Bits("font_file_type", 0, 1),
	schema.Bit("default", 5),
	schema.Bit("metric", 6),
	schema.Bit("alternate", 7),
)

var Panose1 = schema.NewStruct("Panose1",
	schema.F("family_kind", schema.U8),
	schema.F("serif_style", schema.U8),
	schema.F("weight", schema.U8),
	schema.F("proportion", schema.U8),
	schema.F("contrast", schema.U8),
	schema.F("stroke_variation", schema.U8),
	schema.F("arm_style", schema.U8),
	schema.F("letterform", schema.U8),
	schema.F("midline", schema.U8),
	schema.F("x_height", schema.U8),
)

var FaceName = schema.NewStruct("FaceName",
	schema.F("flags", faceNameFlags),
	schema.F("name", schema.BStr),
	schema.F("alternate_font_type", alternateFontType).If(schema.IfSet("flags", "alternate")),
	schema.F("alternate_font_name", schema.BStr).If(schema.IfSet("flags", "alternate")),
	schema.F("panose1", Panose1).If(schema.IfSet("flags", "metric")),
	schema.F("default_font", schema.BStr).If(schema.IfSet("flags", "default")),
)

var strokeType = schema.NewEnum("StrokeType", schema.U8, schema.Items(
	"none", "solid", "dashed", "dotted", "dash_dot", "dash_dot_dot",
	"long_dash", "large_dot", "double", "double_2", "double_3", "triple",
	"wave", "double_wave", "thick_3d", "thick_3d_reverse", "3d", "3d_reverse",
)...)

var strokeWidth = schema.NewEnum("StrokeWidth", schema.U8, schema.Items(
	"0.1mm", "0.12mm", "0.15mm", "0.2mm", "0.25mm", "0.3mm", "0.4mm", "0.5mm",
	"0.6mm", "0.7mm", "1.0mm", "1.5mm", "2.0mm", "3.0mm", "4.0mm", "5.0mm",
)...)

var Border = schema.NewStruct("Border",
	schema.F("stroke_type", strokeType),
	schema.F("width", strokeWidth),
	schema.F("color", COLORREF),
)

var borderFillFlags = schema.NewFlags("BorderFillFlags", schema.U16,
	schema.Bit("effect_3d", 0),
	schema.Bit("effect_shadow", 1),
	schema.Bits("slash", 2, 4),
	schema.Bits("backslash", 5, 7),
)

var fillFlags = schema.NewFlags("FillFlags", schema.U32,
	schema.Bit("pattern", 0),
	schema.Bit("image", 1),
	schema.Bit("gradation", 2),
)

var FillColorPattern = schema.NewStruct("FillColorPattern",
	schema.F("background_color", COLORREF),
	schema.F("pattern_color", COLORREF),
	schema.F("pattern_type", schema.I32),
)

var gradationType = schema.NewEnum("GradationType", schema.I16, []schema.EnumItem{
	{Name: "linear", Code: 1},
	{Name: "circular", Code: 2},
	{Name: "conical", Code: 3},
	{Name: "square", Code: 4},
}...)

var FillGradation = schema.NewStruct("FillGradation",
	schema.F("type", gradationType),
	schema.F("angle", schema.I16),
	schema.F("center_x", schema.I16),
	schema.F("center_y", schema.I16),
	schema.F("blur", schema.I16),
	schema.F("count", schema.I16),
	schema.F("positions", schema.ReferencedArrayOf(schema.I32, schema.Sibling("count"))).If(schema.IfGreater(2, "count")),
	schema.F("colors", schema.ReferencedArrayOf(COLORREF, schema.Sibling("count"))),
)

var pictureEffect = schema.NewEnum("PictureEffect", schema.U8, schema.Items("none", "gray_scale", "black_white", "pattern_8x8")...)

var PictureInfo = schema.NewStruct("PictureInfo",
	schema.F("brightness", schema.I8),
	schema.F("contrast", schema.I8),
	schema.F("effect", pictureEffect),
	schema.F("bindata_id", schema.U16),
)

var FillImage = schema.NewStruct("FillImage",
	schema.F("image_fill_type", schema.U8),
	schema.F("picture", PictureInfo),
)

// fillFields is the fill description shared by border fills and drawing
// objects.
func fillFields() []schema.Field {
	return []schema.Field{
		schema.F("fill_flags", fillFlags),
		schema.F("fill_pattern", FillColorPattern).If(schema.IfSet("fill_flags", "pattern")),
		schema.F("fill_gradation", FillGradation).If(schema.IfSet("fill_flags", "gradation")),
		schema.F("fill_image", FillImage).If(schema.IfSet("fill_flags", "image")),
	}
}

var BorderFill = schema.NewStruct("BorderFill", append([]schema.Field{
	schema.F("flags", borderFillFlags),
	schema.F("left", Border),
	schema.F("right", Border),
	schema.F("top", Border),
	schema.F("bottom", Border),
	schema.F("diagonal", Border),
}, fillFields()...)...)

var underlineType = schema.NewEnum("UnderlineType", nil, schema.Items("none", "underline", "unknown", "upperline")...)

var charShapeFlags = schema.NewFlags("CharShapeFlags", schema.U32,
	schema.Bit("italic", 0),
	schema.Bit("bold", 1),
	schema.EnumBits("underline", 2, 3, underlineType),
	schema.Bits("underline_style", 4, 7),
	schema.Bits("outline", 8, 10),
	schema.Bits("shadow", 11, 12),
	schema.Bit("emboss", 13),
	schema.Bit("engrave", 14),
	schema.Bit("superscript", 15),
	schema.Bit("subscript", 16),
	schema.Bits("strikethrough", 18, 20),
	schema.Bits("symmark", 21, 24),
	schema.Bit("use_fontspace", 25),
	schema.Bits("strikethrough_style", 26, 29),
	schema.Bit("use_kerning", 30),
)

var CharShape = schema.NewStruct("CharShape",
	schema.F("font_face", schema.FixedArrayOf(schema.U16, langs)),
	schema.F("letter_width_expansion", schema.FixedArrayOf(schema.U8, langs)),
	schema.F("letter_spacing", schema.FixedArrayOf(schema.I8, langs)),
	schema.F("relative_size", schema.FixedArrayOf(schema.U8, langs)),
	schema.F("position", schema.FixedArrayOf(schema.I8, langs)),
	schema.F("basesize", schema.I32),
	schema.F("flags", charShapeFlags),
	schema.F("shadow_space_x", schema.I8),
	schema.F("shadow_space_y", schema.I8),
	schema.F("text_color", COLORREF),
	schema.F("underline_color", COLORREF),
	schema.F("shade_color", COLORREF),
	schema.F("shadow_color", COLORREF),
	schema.F("borderfill_id", schema.U16).Since(v5021),
	schema.F("strikethrough_color", COLORREF).Since(v5030),
)

var tabKind = schema.NewEnum("TabKind", schema.U8, schema.Items("left", "right", "center", "decimal")...)

var Tab = schema.NewStruct("Tab",
	schema.F("pos", HWPUNIT),
	schema.F("kind", tabKind),
	schema.F("fill_type", strokeType),
	schema.F("reserved", schema.U16),
)

var tabDefFlags = schema.NewFlags("TabDefFlags", schema.U32,
	schema.Bit("autotab_left", 0),
	schema.Bit("autotab_right", 1),
)

var TabDef = schema.NewStruct("TabDef",
	schema.F("flags", tabDefFlags),
	schema.F("tabs", schema.CountedArrayOf(schema.U32, Tab)),
)

var paragraphAlign = schema.NewEnum("ParagraphHeadAlign", nil, schema.Items("left", "center", "right")...)

var numberingLevelFlags = schema.NewFlags("NumberingLevelFlags", schema.U32,
	schema.EnumBits("align", 0, 1, paragraphAlign),
	schema.Bit("instance_width", 2),
	schema.Bit("auto_indent", 3),
	schema.Bit("distance_type", 4),
)

var NumberingLevel = schema.NewStruct("NumberingLevel",
	schema.F("flags", numberingLevelFlags),
	schema.F("width_correction", HWPUNIT16),
	schema.F("text_distance", HWPUNIT16),
	schema.F("charshape_id", schema.U32),
	schema.F("format", schema.BStr),
)

var Numbering = schema.NewStruct("Numbering",
	schema.F("levels", schema.FixedArrayOf(NumberingLevel, 7)),
	schema.F("starting_number", schema.U16),
	schema.F("level_starts", schema.FixedArrayOf(schema.U32, 7)).Since(v5025),
)

var Bullet = schema.NewStruct("Bullet",
	schema.F("flags", numberingLevelFlags),
	schema.F("width_correction", HWPUNIT16),
	schema.F("text_distance", HWPUNIT16),
	schema.F("charshape_id", schema.U32),
	schema.F("char", schema.WChar),
)

var lineSpacingType = schema.NewEnum("LineSpacingType", nil, schema.Items("ratio", "fixed", "spaceonly", "minimum")...)

var paraAlign = schema.NewEnum("ParaAlign", nil, schema.Items("both", "left", "right", "center", "distribute", "divide")...)

var headingType = schema.NewEnum("HeadingType", nil, schema.Items("none", "outline", "numbering", "bullet")...)

var paraShapeFlags = schema.NewFlags("ParaShapeFlags", schema.U32,
	schema.EnumBits("linespacing_type", 0, 1, lineSpacingType),
	schema.EnumBits("align", 2, 4, paraAlign),
	schema.Bits("break_latin_word", 5, 6),
	schema.Bit("break_non_latin_word", 7),
	schema.Bit("snap_to_grid", 8),
	schema.Bits("condense", 9, 15),
	schema.Bit("widow_orphan", 16),
	schema.Bit("keep_with_next", 17),
	schema.Bit("keep_lines", 18),
	schema.Bit("page_break_before", 19),
	schema.Bits("vertical_align", 20, 21),
	schema.Bit("linespacing_by_font", 22),
	schema.EnumBits("heading_type", 23, 24, headingType),
	schema.Bits("level", 25, 27),
	schema.Bit("border_connect", 28),
	schema.Bit("ignore_margin", 29),
	schema.Bit("tail_shape", 30),
)

var paraShapeFlags2 = schema.NewFlags("ParaShapeFlags2", schema.U32,
	schema.Bits("single_line", 0, 1),
	schema.Bit("auto_space_eng_kor", 4),
	schema.Bit("auto_space_kor_num", 5),
)

var paraShapeFlags3 = schema.NewFlags("ParaShapeFlags3", schema.U32,
	schema.EnumBits("linespacing_type", 0, 4, lineSpacingType),
)

var ParaShape = schema.NewStruct("ParaShape",
	schema.F("flags", paraShapeFlags),
	schema.F("doubled_margin_left", schema.I32),
	schema.F("doubled_margin_right", schema.I32),
	schema.F("indent", schema.I32),
	schema.F("doubled_margin_top", schema.I32),
	schema.F("doubled_margin_bottom", schema.I32),
	schema.F("linespacing_before", schema.I32),
	schema.F("tabdef_id", schema.U16),
	schema.F("numbering_bullet_id", schema.U16),
	schema.F("borderfill_id", schema.U16),
	schema.F("border_left", schema.I16),
	schema.F("border_right", schema.I16),
	schema.F("border_top", schema.I16),
	schema.F("border_bottom", schema.I16),
	schema.F("flags2", paraShapeFlags2).Since(v5017),
	schema.F("flags3", paraShapeFlags3).Since(v5025),
	schema.F("linespacing", schema.U32).Since(v5025),
)

var styleKind = schema.NewEnum("StyleKind", nil, schema.Items("paragraph", "character")...)

var styleFlags = schema.NewFlags("StyleFlags", schema.U8,
	schema.EnumBits("kind", 0, 2, styleKind),
)

var Style = schema.NewStruct("Style",
	schema.F("local_name", schema.BStr),
	schema.F("name", schema.BStr),
	schema.F("flags", styleFlags),
	schema.F("next_style_id", schema.U8),
	schema.F("lang_id", schema.I16),
	schema.F("parashape_id", schema.U16),
	schema.F("charshape_id", schema.U16),
	schema.F("lock_form", schema.U16).Since(v5005),
)

var compatTarget = schema.NewEnum("CompatibleTarget", schema.U32, schema.Items("default", "hwp2007", "msword")...)

var CompatibleDocument = schema.NewStruct("CompatibleDocument",
	schema.F("target", compatTarget),
)

var LayoutCompatibility = schema.NewStruct("LayoutCompatibility",
	schema.F("char", schema.U32),
	schema.F("paragraph", schema.U32),
	schema.F("section", schema.U32),
	schema.F("object", schema.U32),
	schema.F("field", schema.U32),
)

var MemoShape = schema.NewStruct("MemoShape",
	schema.F("width", HWPUNIT),
	schema.F("line_type", strokeType),
	schema.F("line_width", strokeWidth),
	schema.F("line_color", COLORREF),
	schema.F("fill_color", COLORREF),
	schema.F("active_color", COLORREF),
)
