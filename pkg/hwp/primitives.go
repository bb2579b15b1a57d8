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
	"fmt"

	"github.com/novatechflow/hwpscale/pkg/schema"
)

// Chid is a four-character control id stored as a little-endian u32 whose
// most significant byte is the first character.
type Chid uint32

// MakeChid packs a four-character id such as "tbl ".
func MakeChid(s string) Chid {
	var b [4]byte
	copy(b[:], s)
	for i := len(s); i < 4; i++ {
		b[i] = ' '
	}
	return Chid(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

func (c Chid) String() string {
	return string([]byte{byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)})
}

func (c Chid) Int64() int64 { return int64(c) }
func (c Chid) Plain() any   { return c.String() }

// ColorRef is a 0x00BBGGRR color.
type ColorRef uint32

func (c ColorRef) RGB() (r, g, b uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16)
}

func (c ColorRef) String() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func (c ColorRef) Int64() int64 { return int64(c) }
func (c ColorRef) Plain() any   { return c.String() }

var (
	CHID = schema.NewPrimitive("chid", 4, func(b []byte) any {
		return Chid(binary.LittleEndian.Uint32(b))
	})
	COLORREF = schema.NewPrimitive("colorref", 4, func(b []byte) any {
		return ColorRef(binary.LittleEndian.Uint32(b))
	})

	HWPUNIT   = schema.Alias("hwpunit", schema.U32)
	SHWPUNIT  = schema.Alias("shwpunit", schema.I32)
	HWPUNIT16 = schema.Alias("hwpunit16", schema.I16)
)

// Control ids.
var (
	ChidSectionDef = MakeChid("secd")
	ChidColumnsDef = MakeChid("cold")
	ChidTable      = MakeChid("tbl ")
	ChidGShape     = MakeChid("gso ")
	ChidEquation   = MakeChid("eqed")
	ChidHeader     = MakeChid("head")
	ChidFooter     = MakeChid("foot")
	ChidFootNote   = MakeChid("fn  ")
	ChidEndNote    = MakeChid("en  ")
	ChidAutoNumber = MakeChid("atno")
	ChidNewNumber  = MakeChid("nwno")
	ChidPageHide   = MakeChid("pghd")
	ChidPageNumPos = MakeChid("pgnp")
	ChidBookmark   = MakeChid("bokm")
	ChidIndexMark  = MakeChid("idxm")
	ChidHiddenComm = MakeChid("tcmt")
	ChidLine       = MakeChid("$lin")
	ChidRectangle  = MakeChid("$rec")
	ChidEllipse    = MakeChid("$ell")
	ChidArc        = MakeChid("$arc")
	ChidPolygon    = MakeChid("$pol")
	ChidCurve      = MakeChid("$cur")
	ChidOLE        = MakeChid("$ole")
	ChidPicture    = MakeChid("$pic")
	ChidContainer  = MakeChid("$con")
	ChidTextArt    = MakeChid("$tat")
)

// fieldChids are the field-begin controls.
var fieldChids = []string{
	"%unk", "%dte", "%ddt", "%pat", "%bmk", "%mmg", "%xrf", "%fmu",
	"%clk", "%smr", "%usr", "%hlk", "%sig", "%%*d", "%%*a", "%%*C",
	"%%*S", "%%*T", "%%*P", "%%*L", "%%*c", "%%*h", "%%*A", "%%*i",
	"%%*t", "%%*r", "%%*l", "%%*n", "%%*e", "%spl", "%%mr", "%%me",
	"%cpr", "%toc",
}
