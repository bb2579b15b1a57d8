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

// Record tags. DocInfo and BodyText tags are offsets from TagBegin.
const (
	TagBegin = 16

	TagDocumentProperties  = TagBegin + 0
	TagIDMappings          = TagBegin + 1
	TagBinData             = TagBegin + 2
	TagFaceName            = TagBegin + 3
	TagBorderFill          = TagBegin + 4
	TagCharShape           = TagBegin + 5
	TagTabDef              = TagBegin + 6
	TagNumbering           = TagBegin + 7
	TagBullet              = TagBegin + 8
	TagParaShape           = TagBegin + 9
	TagStyle               = TagBegin + 10
	TagDocData             = TagBegin + 11
	TagDistributeDocData   = TagBegin + 12
	TagCompatibleDocument  = TagBegin + 14
	TagLayoutCompatibility = TagBegin + 15
	TagTrackChange         = TagBegin + 16

	TagParaHeader              = TagBegin + 50
	TagParaText                = TagBegin + 51
	TagParaCharShape           = TagBegin + 52
	TagParaLineSeg             = TagBegin + 53
	TagParaRangeTag            = TagBegin + 54
	TagCtrlHeader              = TagBegin + 55
	TagListHeader              = TagBegin + 56
	TagPageDef                 = TagBegin + 57
	TagFootnoteShape           = TagBegin + 58
	TagPageBorderFill          = TagBegin + 59
	TagShapeComponent          = TagBegin + 60
	TagTable                   = TagBegin + 61
	TagShapeComponentLine      = TagBegin + 62
	TagShapeComponentRectangle = TagBegin + 63
	TagShapeComponentEllipse   = TagBegin + 64
	TagShapeComponentArc       = TagBegin + 65
	TagShapeComponentPolygon   = TagBegin + 66
	TagShapeComponentCurve     = TagBegin + 67
	TagShapeComponentOLE       = TagBegin + 68
	TagShapeComponentPicture   = TagBegin + 69
	TagShapeComponentContainer = TagBegin + 70
	TagCtrlData                = TagBegin + 71
	TagEqEdit                  = TagBegin + 72
	TagShapeComponentTextArt   = TagBegin + 74
	TagFormObject              = TagBegin + 75
	TagMemoShape               = TagBegin + 76
	TagMemoList                = TagBegin + 77
	TagForbiddenChar           = TagBegin + 78
	TagChartData               = TagBegin + 79
	TagTrackChangeEntry        = TagBegin + 80
	TagTrackChangeAuthor       = TagBegin + 81
	TagVideoData               = TagBegin + 82
	TagShapeComponentUnknown   = TagBegin + 99
)

// opaqueTags are named for diagnostics but carry no schema.
var opaqueTags = map[uint32]string{
	TagDocData:               "DOC_DATA",
	TagDistributeDocData:     "DISTRIBUTE_DOC_DATA",
	TagTrackChange:           "TRACKCHANGE",
	TagCtrlData:              "CTRL_DATA",
	TagShapeComponentTextArt: "SHAPE_COMPONENT_TEXTART",
	TagFormObject:            "FORM_OBJECT",
	TagMemoList:              "MEMO_LIST",
	TagForbiddenChar:         "FORBIDDEN_CHAR",
	TagChartData:             "CHART_DATA",
	TagTrackChangeEntry:      "TRACK_CHANGE",
	TagTrackChangeAuthor:     "TRACK_CHANGE_AUTHOR",
	TagVideoData:             "VIDEO_DATA",
	TagShapeComponentUnknown: "SHAPE_COMPONENT_UNKNOWN",
}
