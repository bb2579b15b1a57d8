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

package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the 4-component format version carried by a document's file
// header (major.minor.micro.build).
type Version struct {
	Major uint8
	Minor uint8
	Micro uint8
	Build uint8
}

func V(major, minor, micro, build uint8) Version {
	return Version{Major: major, Minor: minor, Micro: micro, Build: build}
}

// VersionFromUint32 unpacks the 0xMMnnPPrr layout used on disk.
func VersionFromUint32(u uint32) Version {
	return Version{
		Major: uint8(u >> 24),
		Minor: uint8(u >> 16),
		Micro: uint8(u >> 8),
		Build: uint8(u),
	}
}

func (v Version) Uint32() uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<16 | uint32(v.Micro)<<8 | uint32(v.Build)
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	a, b := v.Uint32(), o.Uint32()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Micro, v.Build)
}

// ParseVersion parses "5.0.3.2"; missing trailing components are zero.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 4 || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	var out [4]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		out[i] = uint8(n)
	}
	return V(out[0], out[1], out[2], out[3]), nil
}

// MaxVersion admits every version-gated field.
var MaxVersion = V(255, 255, 255, 255)
