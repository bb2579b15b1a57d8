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
	"strings"

	"github.com/novatechflow/hwpscale/pkg/schema"
	"github.com/novatechflow/hwpscale/pkg/tree"
)

// Control characters embedded in paragraph text.
const (
	CtrlTab             = 9
	CtrlLineBreak       = 10
	CtrlParaBreak       = 13
	CtrlHyphen          = 24
	CtrlNonBreakSpace   = 30
	CtrlFixedWidthSpace = 31

	// controlUnits is the width, in code units, of inline and extended
	// controls: the code, six parameter units and the code again.
	controlUnits = 8
)

// ControlKind classifies a control character by its width and payload.
type ControlKind uint8

const (
	ControlChar ControlKind = iota
	ControlInline
	ControlExtended
)

func controlKind(code uint16) ControlKind {
	switch code {
	case 4, 5, 6, 7, 8, 9, 19, 20:
		return ControlInline
	case 1, 2, 3, 11, 12, 14, 15, 16, 17, 18, 21, 22, 23:
		return ControlExtended
	}
	return ControlChar
}

// TextChunk is a run of text or one control character. Pos counts UTF-16
// code units from the start of the paragraph.
type TextChunk struct {
	Pos     int
	Text    string
	Control uint16
	Kind    ControlKind
	// Chid names the control object of an extended control.
	Chid  Chid
	Param []byte
}

func (c TextChunk) IsText() bool { return c.Control == 0 && c.Text != "" }

// ParagraphText is the decoded payload of a PARA_TEXT record.
type ParagraphText struct {
	Chunks []TextChunk
}

// String renders the paragraph as plain text. Object controls are dropped.
func (p ParagraphText) String() string {
	var b strings.Builder
	for _, c := range p.Chunks {
		if c.IsText() {
			b.WriteString(c.Text)
			continue
		}
		switch c.Control {
		case CtrlLineBreak, CtrlParaBreak:
			b.WriteByte('\n')
		case CtrlTab:
			b.WriteByte('\t')
		case CtrlHyphen:
			b.WriteByte('-')
		case CtrlNonBreakSpace, CtrlFixedWidthSpace:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func (p ParagraphText) Plain() any {
	out := make([]any, 0, len(p.Chunks))
	for _, c := range p.Chunks {
		if c.IsText() {
			out = append(out, map[string]any{"pos": c.Pos, "text": c.Text})
			continue
		}
		m := map[string]any{"pos": c.Pos, "control": int(c.Control)}
		if c.Kind == ControlExtended {
			m["chid"] = c.Chid.String()
		}
		out = append(out, m)
	}
	return out
}

// ParseParagraphText splits little-endian UTF-16 paragraph text into text
// runs and control characters.
func ParseParagraphText(b []byte) (ParagraphText, error) {
	var (
		out   ParagraphText
		start = -1
	)
	flush := func(end int) error {
		if start < 0 {
			return nil
		}
		s, err := schema.DecodeUTF16(b[start*2 : end*2])
		if err != nil {
			return err
		}
		out.Chunks = append(out.Chunks, TextChunk{Pos: start, Text: s})
		start = -1
		return nil
	}
	units := len(b) / 2
	for i := 0; i < units; {
		u := binary.LittleEndian.Uint16(b[i*2:])
		if u >= 32 {
			if start < 0 {
				start = i
			}
			i++
			continue
		}
		if err := flush(i); err != nil {
			return ParagraphText{}, err
		}
		c := TextChunk{Pos: i, Control: u, Kind: controlKind(u)}
		width := 1
		if c.Kind != ControlChar {
			width = controlUnits
			if i+width > units {
				width = units - i
			}
			c.Param = append([]byte(nil), b[(i+1)*2:(i+width)*2]...)
			if c.Kind == ControlExtended && len(c.Param) >= 4 {
				c.Chid = Chid(binary.LittleEndian.Uint32(c.Param))
			}
		}
		out.Chunks = append(out.Chunks, c)
		i += width
	}
	if err := flush(units); err != nil {
		return ParagraphText{}, err
	}
	return out, nil
}

// PARATEXT consumes the rest of a PARA_TEXT payload.
var PARATEXT = schema.NewVariablePrimitive("paratext", func(c *schema.Cursor) (any, error) {
	return ParseParagraphText(c.Rest())
})

// PlainText concatenates the text of every paragraph below n in document
// order, one line per paragraph.
func PlainText(n *tree.Node) string {
	var b strings.Builder
	n.Walk(func(node *tree.Node, _ int) bool {
		if node.Tag != TagParaText || node.Value == nil {
			return true
		}
		v, ok := node.Value.Lookup("text")
		if !ok {
			return true
		}
		pt, ok := v.(ParagraphText)
		if !ok {
			return true
		}
		s := strings.TrimRight(pt.String(), "\n")
		b.WriteString(s)
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
